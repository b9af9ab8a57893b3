package wsclient

import (
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/pion/webrtc/v4"
)

var _ peer.Signaler = (*Conn)(nil)

func (c *Conn) SendOffer(to domain.ConnectionID, sdp string) error {
	return c.sendTo(protocol.TypeOffer, to, protocol.SDPPayload{SDP: sdp})
}

func (c *Conn) SendAnswer(to domain.ConnectionID, sdp string) error {
	return c.sendTo(protocol.TypeAnswer, to, protocol.SDPPayload{SDP: sdp})
}

func (c *Conn) SendCandidate(to domain.ConnectionID, cand webrtc.ICECandidateInit) error {
	return c.sendTo(protocol.TypeICECandidate, to, protocol.CandidatePayload{Candidate: peer.CandidateToWire(cand)})
}

func (c *Conn) sendTo(t protocol.EventType, to domain.ConnectionID, payload any) error {
	env, err := protocol.New(t, payload)
	if err != nil {
		return err
	}
	env.Target = to
	return c.Send(env)
}
