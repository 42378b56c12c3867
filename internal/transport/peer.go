package transport

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/nocturne-engine/nocturne/internal/config"
)

// Manager creates RTCPeerConnections configured with the server's ICE
// servers and wires inbound offers into Peers.
type Manager struct {
	iceServers []webrtc.ICEServer
}

// NewManager builds a Manager from the configured ICE servers.
func NewManager(servers []config.ICEServer) *Manager {
	ice := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		ice = append(ice, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return &Manager{iceServers: ice}
}

// HandleOffer negotiates a new RTCPeerConnection for peer from a remote
// SDP offer, registers the expected input data channel, and returns the
// local SDP answer. onCandidate is invoked for every locally gathered
// ICE candidate so the caller can trickle it to the client; onInput is
// invoked for every inbound 2-byte input record the client sends over the
// data channel.
func (m *Manager) HandleOffer(ctx context.Context, peer *Peer, offerSDP string, onCandidate func(Candidate), onInput func([]byte)) (string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: m.iceServers})
	if err != nil {
		return "", fmt.Errorf("transport: creating peer connection: %w", err)
	}
	peer.SetPeerConnection(pc)

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || onCandidate == nil {
			return
		}
		init := c.ToJSON()
		cand := Candidate{Candidate: init.Candidate}
		if init.SDPMid != nil {
			cand.SDPMid = *init.SDPMid
		}
		if init.SDPMLineIndex != nil {
			cand.SDPMLineIndex = *init.SDPMLineIndex
		}
		onCandidate(cand)
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		peer.SetDataChannel(dc)
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if onInput != nil {
				onInput(msg.Data)
			}
		})
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		return "", fmt.Errorf("transport: setting remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("transport: creating answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("transport: setting local description: %w", err)
	}

	return answer.SDP, nil
}

// AddCandidate applies a trickled remote ICE candidate to peer's
// connection.
func (m *Manager) AddCandidate(peer *Peer, candidate Candidate) error {
	peer.mu.Lock()
	pc := peer.pc
	peer.mu.Unlock()
	if pc == nil {
		return fmt.Errorf("transport: no peer connection to add candidate to")
	}
	sdpMid := candidate.SDPMid
	mlineIndex := candidate.SDPMLineIndex
	init := webrtc.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        &sdpMid,
		SDPMLineIndex: &mlineIndex,
	}
	if err := pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("transport: adding ICE candidate: %w", err)
	}
	return nil
}
