package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/pion/webrtc/v4"
)

// Peer bundles a client's reliable signaling socket with its optional
// WebRTC data channel, and picks between them for each outbound frame —
// datagram-preferred, reliable-channel fallback. This mirrors the
// teacher's SwappableWriter: the frame sender never needs to know which
// path is live, only that SendFrame either succeeds or returns an error.
type Peer struct {
	mu sync.Mutex

	ws *websocket.Conn
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	encoder *zstd.Encoder
}

// NewPeer wraps an already-accepted reliable websocket connection. The
// data channel, if any, is attached later via SetDataChannel once
// negotiated.
func NewPeer(ws *websocket.Conn) (*Peer, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("transport: creating zstd encoder: %w", err)
	}
	return &Peer{ws: ws, encoder: enc}, nil
}

// SetPeerConnection attaches the negotiated RTCPeerConnection.
func (p *Peer) SetPeerConnection(pc *webrtc.PeerConnection) {
	p.mu.Lock()
	p.pc = pc
	p.mu.Unlock()
}

// SetDataChannel attaches the negotiated data channel. Once it reaches
// the Open state, SendFrame prefers it over the reliable websocket.
func (p *Peer) SetDataChannel(dc *webrtc.DataChannel) {
	p.mu.Lock()
	p.dc = dc
	p.mu.Unlock()
}

func (p *Peer) dataChannelOpen() *webrtc.DataChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc != nil && p.dc.ReadyState() == webrtc.DataChannelStateOpen {
		return p.dc
	}
	return nil
}

// SendFrame compresses frame and sends it through the open data channel
// if one exists, otherwise as a binary frame on the reliable websocket.
func (p *Peer) SendFrame(ctx context.Context, frame []byte) error {
	compressed := p.encoder.EncodeAll(frame, nil)

	if dc := p.dataChannelOpen(); dc != nil {
		if err := dc.Send(compressed); err != nil {
			return fmt.Errorf("transport: data channel send: %w", err)
		}
		return nil
	}

	if err := p.ws.Write(ctx, websocket.MessageBinary, compressed); err != nil {
		return fmt.Errorf("transport: websocket binary send: %w", err)
	}
	return nil
}

// SendSignal writes a JSON signaling envelope as a text frame on the
// reliable channel.
func (p *Peer) SendSignal(ctx context.Context, payload []byte) error {
	if err := p.ws.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("transport: websocket signal send: %w", err)
	}
	return nil
}

// ReadSignal blocks for the next text/binary frame on the reliable
// channel. Signaling messages always arrive as text; binary frames on
// this channel (the datagram fallback path, client -> server direction)
// are not expected in this protocol (input flows via the data channel or
// a dedicated input path), so any binary frame here is surfaced as-is for
// the caller to ignore.
func (p *Peer) ReadSignal(ctx context.Context) (websocket.MessageType, []byte, error) {
	return p.ws.Read(ctx)
}

// Close tears down the data channel, peer connection, and websocket.
func (p *Peer) Close() error {
	p.mu.Lock()
	dc, pc := p.dc, p.pc
	p.mu.Unlock()

	if dc != nil {
		_ = dc.Close()
	}
	if pc != nil {
		_ = pc.Close()
	}
	return p.ws.Close(websocket.StatusNormalClosure, "session closed")
}
