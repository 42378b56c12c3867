// Package transport implements the dual-path client transport: a
// pion/webrtc datagram-preferred data channel for frame streaming, with a
// coder/websocket reliable channel carrying signaling and serving as the
// binary fallback when no data channel is open.
package transport

import "encoding/json"

// Envelope is the JSON wrapper every signaling message travels in,
// discriminated by Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	TypeWelcome   = "welcome"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
)

// Welcome is sent first on the reliable channel, before any binary frame.
type Welcome struct {
	SessionID        string `json:"session_id"`
	ServerInstanceID string `json:"server_instance_id"`
}

// SDP carries an offer or answer.
type SDP struct {
	SDP string `json:"sdp"`
}

// Candidate carries a trickle-ICE candidate.
type Candidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdp_mid"`
	SDPMLineIndex uint16 `json:"sdp_mline_index"`
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

// EncodeWelcome serializes a WELCOME envelope.
func EncodeWelcome(w Welcome) ([]byte, error) { return encode(TypeWelcome, w) }

// EncodeOffer serializes an OFFER envelope.
func EncodeOffer(s SDP) ([]byte, error) { return encode(TypeOffer, s) }

// EncodeAnswer serializes an ANSWER envelope.
func EncodeAnswer(s SDP) ([]byte, error) { return encode(TypeAnswer, s) }

// EncodeCandidate serializes a CANDIDATE envelope.
func EncodeCandidate(c Candidate) ([]byte, error) { return encode(TypeCandidate, c) }

// Decode parses an inbound signaling frame. Malformed JSON returns an
// error; an envelope with an unknown Type decodes without error. Callers
// must ignore both, per spec, rather than tearing down the session.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
