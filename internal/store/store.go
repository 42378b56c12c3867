// Package store is the append-only operational event log: connects,
// disconnects, reloads, script errors, and debug evals. This is server
// telemetry, not game-world state — the engine never persists world
// state across restarts.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// EventKind categorizes a row in the operational event log.
type EventKind string

const (
	EventConnect     EventKind = "connect"
	EventDisconnect  EventKind = "disconnect"
	EventReload      EventKind = "reload"
	EventScriptError EventKind = "script_error"
	EventEval        EventKind = "eval"
)

// Store wraps a sqlite-backed event log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and applies
// any pending embedded migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrating %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sqlBytes, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one event row. sessionID may be empty for process-scoped
// events (e.g. reload).
func (s *Store) Record(kind EventKind, sessionID, detail string) error {
	var sessionCol interface{}
	if sessionID != "" {
		sessionCol = sessionID
	}
	_, err := s.db.Exec(
		`INSERT INTO events (occurred_at, kind, session_id, detail) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), string(kind), sessionCol, detail,
	)
	if err != nil {
		return fmt.Errorf("store: recording %s event: %w", kind, err)
	}
	return nil
}

// Event is one row of the operational event log.
type Event struct {
	ID         int64
	OccurredAt string
	Kind       EventKind
	SessionID  string
	Detail     string
}

// Recent returns the most recent limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, occurred_at, kind, COALESCE(session_id, ''), COALESCE(detail, '')
		 FROM events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying recent events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &e.OccurredAt, &kind, &e.SessionID, &e.Detail); err != nil {
			return nil, fmt.Errorf("store: scanning event row: %w", err)
		}
		e.Kind = EventKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
