package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nocturne-engine/nocturne/internal/watch"
)

func writeScript(t *testing.T, path, source string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
}

func TestHotReloadReplaysOnConnectForRetainedSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.lua")
	writeScript(t, path, `
function on_connect(session_id)
  api.load_sound("a", "a.wav")
end
`)

	w, err := watch.New(path)
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	defer w.Close()

	d, err := New(path, 30, w, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s1 := NewSession("s1")
	s2 := NewSession("s2")
	d.Admission.Push(s1)
	d.Admission.Push(s2)
	d.admitSessions()

	// Drain the initial on_connect frames from admission.
	<-s1.Render
	<-s2.Render

	// Rewrite the script (script B) and trigger the watcher.
	writeScript(t, path, `
function on_connect(session_id)
  api.load_sound("b", "b.wav")
end
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// checkReload consumes the watcher's signal itself, so poll it until
	// the game state has been swapped rather than draining Changed() here.
	deadline := time.After(2 * time.Second)
	oldGS := d.gs
	for d.gs == oldGS {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for fsnotify to trigger a reload")
		case <-time.After(10 * time.Millisecond):
		}
		d.checkReload(ctx)
	}

	select {
	case <-s1.Render:
	default:
		t.Errorf("expected s1 to receive a replayed on_connect frame")
	}
	select {
	case <-s2.Render:
	default:
		t.Errorf("expected s2 to receive a replayed on_connect frame")
	}
}

func TestDisconnectOnClosedInputQueue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.lua")
	writeScript(t, path, `
function on_disconnect(session_id)
end
`)
	w, err := watch.New(path)
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	defer w.Close()

	d, err := New(path, 30, w, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s := NewSession("s1")
	d.sessions["s1"] = s
	close(s.Input)

	d.drainInputs()
	if _, ok := d.sessions["s1"]; ok {
		t.Errorf("expected session to be removed after input queue closed")
	}
}
