package transport

import "testing"

func TestEncodeDecodeWelcome(t *testing.T) {
	raw, err := EncodeWelcome(Welcome{SessionID: "s1", ServerInstanceID: "inst-1"})
	if err != nil {
		t.Fatalf("EncodeWelcome: %v", err)
	}
	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != TypeWelcome {
		t.Errorf("Type = %q, want %q", env.Type, TypeWelcome)
	}
}

func TestDecodeMalformedReturnsError(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error decoding malformed signal")
	}
}

func TestEncodeCandidateRoundTrip(t *testing.T) {
	raw, err := EncodeCandidate(Candidate{Candidate: "candidate:1 1 UDP", SDPMid: "0", SDPMLineIndex: 0})
	if err != nil {
		t.Fatalf("EncodeCandidate: %v", err)
	}
	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != TypeCandidate {
		t.Errorf("Type = %q, want %q", env.Type, TypeCandidate)
	}
}
