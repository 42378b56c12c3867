// Package watch turns filesystem change notifications into the opaque
// "script changed" signal the session dispatcher polls each tick.
package watch

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the settle time the dispatcher waits after a change
// fires before reloading, absorbing editor save bursts (write + chmod +
// rename sequences some editors emit for a single save).
const DebounceInterval = 50 * time.Millisecond

// Watcher signals on Changed() whenever fsnotify reports a Write, Create
// or Rename event for the watched script file's path. The watch is on the
// file itself, not its directory, so a file that is replaced by renaming
// another file onto its path, or deleted and recreated, is not reported.
type Watcher struct {
	fsw     *fsnotify.Watcher
	path    string
	changed chan struct{}
	errs    chan error
}

// New starts watching path for changes. The caller must call Close when
// done.
func New(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: watching %s: %w", path, err)
	}

	w := &Watcher{
		fsw:     fsw,
		path:    path,
		changed: make(chan struct{}, 1),
		errs:    make(chan error, 1),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// Changed fires (non-blocking receive) whenever the watched file changed.
// The dispatcher drains it with a select-default check once per tick.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Errors surfaces watcher-internal errors (rare: e.g. the underlying file
// was removed out from under an open inotify watch).
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
