package cmdbuf

import "testing"

func TestRoundTrip(t *testing.T) {
	buf := New()
	buf.ClearScreen(10, 20, 30)
	buf.SetColor(1, 2, 3, 4)
	buf.FillRect(1.5, 2.5, 3.5, 4.5)
	buf.DrawLine(0, 0, 1, 1, 2)
	buf.DrawText(5, 6, "hello")
	buf.LoadSound("boom", "boom.wav")
	buf.PlaySound("boom", true, 0.75)
	buf.StopSound("boom")
	buf.SetVolume("boom", 0.25)

	cmds, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cmds) != 9 {
		t.Fatalf("len(cmds) = %d, want 9", len(cmds))
	}
	if cmds[4].Text != "hello" {
		t.Errorf("Text = %q, want %q", cmds[4].Text, "hello")
	}
	if cmds[6].Loop != true || cmds[6].Volume != 0.75 {
		t.Errorf("PlaySound decoded = %+v", cmds[6])
	}

	reEncoded := Encode(cmds)
	if string(reEncoded) != string(buf.Bytes()) {
		t.Errorf("re-encoded bytes differ from original")
	}
}

func TestAppendSplicesEventBufferBeforeDraw(t *testing.T) {
	event := New()
	event.PlaySound("global_boom", false, 1.0)

	frame := New()
	frame.Append(event)
	frame.PlaySound("local_pew", false, 0.5)

	cmds, err := Decode(frame.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2", len(cmds))
	}
	if cmds[0].Name != "global_boom" || cmds[1].Name != "local_pew" {
		t.Errorf("unexpected order: %q then %q", cmds[0].Name, cmds[1].Name)
	}
}

func TestClearResetsLength(t *testing.T) {
	buf := New()
	buf.ClearScreen(1, 2, 3)
	buf.Clear()
	if len(buf.Bytes()) != 0 {
		t.Errorf("len = %d after Clear, want 0", len(buf.Bytes()))
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	if _, err := Decode([]byte{byte(OpFillRect), 0, 0}); err == nil {
		t.Error("expected error decoding truncated stream")
	}
}
