// Package logging sets up the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger writing structured text to stderr; call sites
// attach session context as key/value arguments.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
