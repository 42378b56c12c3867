// Package httpserver wires the HTTP surface: the /ws signaling/fallback
// upgrade, the optional /debug eval endpoint, and the embedded static
// placeholder client.
package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nocturne-engine/nocturne/internal/assets"
	"github.com/nocturne-engine/nocturne/internal/config"
	"github.com/nocturne-engine/nocturne/internal/session"
	"github.com/nocturne-engine/nocturne/internal/transport"
)

// Dispatcher is the subset of *session.Dispatcher the HTTP layer needs.
type Dispatcher interface {
	Admit(s *session.Session)
	SubmitDebug(req session.DebugRequest) error
}

// Server serves the engine's HTTP surface atop a running Dispatcher.
type Server struct {
	cfg        config.Config
	dispatcher Dispatcher
	manager    *transport.Manager
	instanceID string
	log        *slog.Logger
}

// New builds a Server. A fresh server_instance_id is generated once here
// and handed to every client's WELCOME message, so clients can detect a
// server restart.
func New(cfg config.Config, dispatcher Dispatcher, log *slog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		manager:    transport.NewManager(cfg.ICEServers),
		instanceID: uuid.NewString(),
		log:        log,
	}
}

// Handler returns the top-level mux for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	if s.cfg.Debug {
		mux.HandleFunc("/debug", s.handleDebug)
	}
	mux.Handle("/", http.FileServer(http.FS(assets.FS())))
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Error("websocket accept failed", "error", err)
		return
	}

	peer, err := transport.NewPeer(conn)
	if err != nil {
		s.log.Error("creating peer failed", "error", err)
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	sessionID := uuid.NewString()
	ctx := r.Context()

	welcome, err := transport.EncodeWelcome(transport.Welcome{
		SessionID:        sessionID,
		ServerInstanceID: s.instanceID,
	})
	if err != nil {
		s.log.Error("encoding welcome failed", "error", err)
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}
	if err := peer.SendSignal(ctx, welcome); err != nil {
		s.log.Error("sending welcome failed", "error", err)
		return
	}

	inputCap := s.cfg.InputQueueCapacity
	if inputCap <= 0 {
		inputCap = session.InputQueueCapacity
	}
	renderCap := s.cfg.RenderQueueCapacity
	if renderCap <= 0 {
		renderCap = session.RenderQueueCapacity
	}
	sess := session.NewSessionWithCapacity(sessionID, inputCap, renderCap)
	s.dispatcher.Admit(sess)

	limit := s.cfg.RenderBytesPerSec
	if limit <= 0 {
		limit = 1 << 20
	}
	limiter := rate.NewLimiter(rate.Limit(limit), limit)
	go s.pumpRenderFrames(ctx, peer, sess, limiter)

	s.readSignalLoop(ctx, peer, sess)
}

// pumpRenderFrames forwards compressed per-client frames from the
// simulation's render queue to the transport, metered by a token bucket
// so one chatty session can't starve bandwidth for others. This meters
// only; it never changes whether a frame is dropped — that decision
// belongs entirely to the render queue's capacity-30 drop-newest policy.
func (s *Server) pumpRenderFrames(ctx context.Context, peer *transport.Peer, sess *session.Session, limiter *rate.Limiter) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sess.Render:
			if !ok {
				return
			}
			if err := limiter.WaitN(ctx, len(frame)); err != nil {
				return
			}
			if err := peer.SendFrame(ctx, frame); err != nil {
				s.log.Debug("frame send failed, client likely departed", "error", err)
				return
			}
		}
	}
}

func (s *Server) readSignalLoop(ctx context.Context, peer *transport.Peer, sess *session.Session) {
	defer func() {
		close(sess.Input)
		peer.Close()
	}()

	for {
		_, data, err := peer.ReadSignal(ctx)
		if err != nil {
			return
		}

		env, err := transport.Decode(data)
		if err != nil {
			continue
		}

		switch env.Type {
		case transport.TypeOffer:
			s.handleOffer(ctx, peer, sess, env.Data)
		case transport.TypeCandidate:
			s.handleCandidate(peer, env.Data)
		default:
			// WELCOME/ANSWER are server->client only in this protocol;
			// unknown types are ignored per spec.
		}
	}
}

func (s *Server) handleOffer(ctx context.Context, peer *transport.Peer, sess *session.Session, raw json.RawMessage) {
	var sdp transport.SDP
	if err := json.Unmarshal(raw, &sdp); err != nil {
		return
	}

	answerSDP, err := s.manager.HandleOffer(ctx, peer, sdp.SDP,
		func(c transport.Candidate) {
			msg, err := transport.EncodeCandidate(c)
			if err != nil {
				return
			}
			_ = peer.SendSignal(ctx, msg)
		},
		func(input []byte) { deliverInput(sess, input) },
	)
	if err != nil {
		s.log.Error("handling offer failed", "session", sess.ID, "error", err)
		return
	}

	answer, err := transport.EncodeAnswer(transport.SDP{SDP: answerSDP})
	if err != nil {
		return
	}
	_ = peer.SendSignal(ctx, answer)
}

func (s *Server) handleCandidate(peer *transport.Peer, raw json.RawMessage) {
	var cand transport.Candidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		return
	}
	if err := s.manager.AddCandidate(peer, cand); err != nil {
		s.log.Debug("adding trickled candidate failed", "error", err)
	}
}

func deliverInput(sess *session.Session, data []byte) {
	if len(data) != 2 {
		return
	}
	ev := session.InputEvent{Code: data[0], Active: data[1] != 0}
	select {
	case sess.Input <- ev:
	default:
	}
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	reply := make(chan string, 1)
	if err := s.dispatcher.SubmitDebug(session.DebugRequest{Code: string(body), Reply: reply}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	select {
	case result := <-reply:
		w.Write([]byte(result))
	case <-time.After(5 * time.Second):
		http.Error(w, "eval timed out", http.StatusGatewayTimeout)
	}
}
