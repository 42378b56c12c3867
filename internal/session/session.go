package session

const (
	// InputQueueCapacity is the per-session Net -> Sim input queue depth.
	// On overflow the newest input is dropped; already-queued inputs are
	// preserved and delivered in order.
	InputQueueCapacity = 100

	// RenderQueueCapacity is the per-session Sim -> Net render queue
	// depth. On overflow the newest frame is dropped; the session is not
	// disconnected.
	RenderQueueCapacity = 30
)

// InputEvent is a single client input record: a 1-byte code and whether
// it is active (pressed) or not.
type InputEvent struct {
	Code   uint8
	Active bool
}

// Session is one logical client as seen by the simulation domain. The
// network domain talks to it only through Input (send) and Render
// (receive); closing Input signals disconnect.
type Session struct {
	ID string

	Input  chan InputEvent
	Render chan []byte

	// closed is set by the dispatcher once the simulation has removed
	// this session.
	closed bool
}

// NewSession allocates a session using the package's default queue
// capacities. Use NewSessionWithCapacity to size the queues from
// configuration instead.
func NewSession(id string) *Session {
	return NewSessionWithCapacity(id, InputQueueCapacity, RenderQueueCapacity)
}

// NewSessionWithCapacity allocates a session with explicit input/render
// queue depths, e.g. as loaded from config.Config.
func NewSessionWithCapacity(id string, inputCapacity, renderCapacity int) *Session {
	return &Session{
		ID:     id,
		Input:  make(chan InputEvent, inputCapacity),
		Render: make(chan []byte, renderCapacity),
	}
}

// TrySend pushes a frame onto the render queue, dropping it if the queue
// is full. Returns false if the queue has been closed (client departed),
// in which case the caller should remove the session.
func (s *Session) TrySend(frame []byte) (delivered, open bool) {
	defer func() {
		if r := recover(); r != nil {
			open = false
		}
	}()
	select {
	case s.Render <- frame:
		return true, true
	default:
		return false, true
	}
}

// DrainInput removes every currently queued input without blocking. The
// returned open flag is false once the channel has been closed and
// drained empty — the caller should then invoke on_disconnect and drop
// the session.
func (s *Session) DrainInput() (events []InputEvent, open bool) {
	for {
		select {
		case ev, ok := <-s.Input:
			if !ok {
				return events, false
			}
			events = append(events, ev)
		default:
			return events, true
		}
	}
}
