package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nocturne-engine/nocturne/internal/script"
	"github.com/nocturne-engine/nocturne/internal/store"
	"github.com/nocturne-engine/nocturne/internal/watch"
)

// DebugQueueCapacity bounds the Net -> Sim debug eval request queue.
const DebugQueueCapacity = 10

// DebugRequest is one pending eval() call submitted through the debug
// HTTP endpoint. Reply receives exactly one response string.
type DebugRequest struct {
	Code  string
	Reply chan string
}

// Dispatcher runs the fixed-rate simulation tick: reload checks,
// admission, input drain, update, per-session draw, and pacing.
type Dispatcher struct {
	scriptPath string
	tickRate   int
	watcher    *watch.Watcher
	store      *store.Store
	log        *slog.Logger

	gs *script.GameState

	Admission *AdmissionQueue
	Debug     chan DebugRequest

	sessions map[string]*Session
}

// New loads the initial game state and wires the watcher, store, and
// admission/debug queues.
func New(scriptPath string, tickRate int, w *watch.Watcher, st *store.Store, log *slog.Logger) (*Dispatcher, error) {
	gs, err := script.Load(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("session: initial script load: %w", err)
	}
	return &Dispatcher{
		scriptPath: scriptPath,
		tickRate:   tickRate,
		watcher:    w,
		store:      st,
		log:        log,
		gs:         gs,
		Admission:  NewAdmissionQueue(),
		Debug:      make(chan DebugRequest, DebugQueueCapacity),
		sessions:   make(map[string]*Session),
	}, nil
}

// Admit enqueues a newly connected session for the next tick's admission
// phase.
func (d *Dispatcher) Admit(s *Session) {
	d.Admission.Push(s)
}

// SubmitDebug attempts to enqueue a debug eval request, returning an
// error immediately if the queue is full rather than blocking.
func (d *Dispatcher) SubmitDebug(req DebugRequest) error {
	select {
	case d.Debug <- req:
		return nil
	default:
		return fmt.Errorf("session: debug queue full")
	}
}

// Run drives the dispatcher loop until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	tickBudget := time.Second / time.Duration(d.tickRate)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.gs.Close()
			return ctx.Err()
		default:
		}

		tickStart := time.Now()

		d.checkReload(ctx)

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now
		d.gs.BeginFrame()

		d.admitSessions()
		d.serveDebugRequest()
		d.drainInputs()

		if err := d.gs.Update(dt); err != nil {
			d.log.Error("script update error", "error", err)
			d.recordEvent(store.EventScriptError, "", err.Error())
		}

		d.drawAll()

		elapsed := time.Since(tickStart)
		if remaining := tickBudget - elapsed; remaining > 0 {
			select {
			case <-ctx.Done():
				d.gs.Close()
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
}

func (d *Dispatcher) checkReload(ctx context.Context) {
	select {
	case <-d.watcher.Changed():
	default:
		return
	}

	// Drain any further pending signals fired during the debounce window.
	timer := time.NewTimer(watch.DebounceInterval)
	defer timer.Stop()
drain:
	for {
		select {
		case <-d.watcher.Changed():
		case <-timer.C:
			break drain
		}
	}

	newGS, err := script.Load(d.scriptPath)
	if err != nil {
		d.log.Error("reload failed, keeping previous script", "error", err)
		d.recordEvent(store.EventScriptError, "", "reload: "+err.Error())
		return
	}

	d.gs.Close()
	d.gs = newGS
	d.recordEvent(store.EventReload, "", d.scriptPath)

	for id, s := range d.sessions {
		bytes, err := d.gs.OnConnect(id)
		if err != nil {
			d.log.Error("on_connect failed during reload replay", "session", id, "error", err)
			continue
		}
		d.deliverOrDrop(s, bytes)
	}
}

func (d *Dispatcher) admitSessions() {
	for _, s := range d.Admission.DrainAll() {
		d.sessions[s.ID] = s
		bytes, err := d.gs.OnConnect(s.ID)
		if err != nil {
			d.log.Error("on_connect failed", "session", s.ID, "error", err)
			continue
		}
		d.recordEvent(store.EventConnect, s.ID, "")
		d.deliverOrDrop(s, bytes)
	}
}

func (d *Dispatcher) serveDebugRequest() {
	select {
	case req := <-d.Debug:
		result := d.gs.Eval(req.Code)
		d.recordEvent(store.EventEval, "", req.Code)
		req.Reply <- result
	default:
	}
}

func (d *Dispatcher) drainInputs() {
	for id, s := range d.sessions {
		events, open := s.DrainInput()
		for _, ev := range events {
			if err := d.gs.OnInput(id, ev.Code, ev.Active); err != nil {
				d.log.Error("on_input failed", "session", id, "error", err)
			}
		}
		if !open {
			d.disconnect(id)
		}
	}
}

func (d *Dispatcher) drawAll() {
	for id, s := range d.sessions {
		bytes, err := d.gs.Draw(id)
		if err != nil {
			d.log.Error("draw failed", "session", id, "error", err)
			d.recordEvent(store.EventScriptError, id, err.Error())
			continue
		}
		d.deliverOrDrop(s, bytes)
	}
}

// deliverOrDrop pushes a frame to a session's render queue, dropping the
// frame on overflow and removing the session if its receiver has gone
// away.
func (d *Dispatcher) deliverOrDrop(s *Session, frame []byte) {
	_, open := s.TrySend(frame)
	if !open {
		d.disconnect(s.ID)
	}
}

func (d *Dispatcher) disconnect(id string) {
	s, ok := d.sessions[id]
	if !ok {
		return
	}
	if err := d.gs.OnDisconnect(id); err != nil {
		d.log.Error("on_disconnect failed", "session", id, "error", err)
	}
	d.recordEvent(store.EventDisconnect, id, "")
	delete(d.sessions, id)
	s.closed = true
}

func (d *Dispatcher) recordEvent(kind store.EventKind, sessionID, detail string) {
	if d.store == nil {
		return
	}
	if err := d.store.Record(kind, sessionID, detail); err != nil {
		d.log.Error("recording operational event failed", "kind", kind, "error", err)
	}
}
