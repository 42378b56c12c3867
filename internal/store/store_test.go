package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Record(EventConnect, "s1", ""); err != nil {
		t.Fatalf("Record connect: %v", err)
	}
	if err := s.Record(EventScriptError, "", "boom: nil value"); err != nil {
		t.Fatalf("Record script_error: %v", err)
	}

	events, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Kind != EventScriptError || events[0].Detail != "boom: nil value" {
		t.Errorf("unexpected newest event: %+v", events[0])
	}
	if events[1].Kind != EventConnect || events[1].SessionID != "s1" {
		t.Errorf("unexpected oldest event: %+v", events[1])
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.Record(EventEval, "", "eval"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	events, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}
