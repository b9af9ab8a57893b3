// Package call implements the per-room call lifecycle of one client as a
// pure transition function plus a runtime that executes its commands.
package call

import (
	"slices"

	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRingingOutbound
	PhaseRingingInbound
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseRingingOutbound:
		return "ringing-outbound"
	case PhaseRingingInbound:
		return "ringing-inbound"
	case PhaseActive:
		return "active"
	default:
		return "idle"
	}
}

type MediaStatus int

const (
	MediaNone MediaStatus = iota
	MediaAcquiring
	MediaHeld
)

// Intent is what to do once local media becomes available.
type Intent int

const (
	IntentNone Intent = iota
	IntentStart
	IntentAccept
	IntentJoin
)

// State is a value; Step never mutates the State it is given.
type State struct {
	Self  domain.ConnectionID
	Phase Phase
	// Caller is who rang: the remote caller while ringing inbound, Self
	// while ringing outbound, and whoever started the call while active.
	Caller       domain.ConnectionID
	Participants []domain.ConnectionID
	Media        MediaStatus
	Pending      Intent
	// Tickets tie asynchronous results to the request that caused them.
	MediaTicket uint64
	RingTicket  uint64
}

func NewState(self domain.ConnectionID) State {
	return State{Self: self}
}

func (s State) HasParticipant(id domain.ConnectionID) bool {
	return slices.Contains(s.Participants, id)
}

// Step applies ev to s. Events a phase does not handle leave the state
// unchanged and produce no commands.
func Step(s State, ev Event) (State, []Command) {
	switch e := ev.(type) {
	case MediaAcquired:
		return s.onMediaAcquired(e)
	case MediaFailed:
		return s.onMediaFailed(e)
	}
	// Room-wide call events come back to their sender as well.
	if from, ok := origin(ev); ok && from == s.Self {
		return s, nil
	}
	// A candidate can outrun the offer that opens its link. The runtime
	// holds it until that link exists, whatever the phase.
	if e, ok := ev.(CandidateReceived); ok {
		return s, []Command{DeliverCandidate{From: e.From, Candidate: e.Candidate}}
	}

	switch s.Phase {
	case PhaseIdle:
		return s.idle(ev)
	case PhaseRingingOutbound:
		return s.ringingOutbound(ev)
	case PhaseRingingInbound:
		return s.ringingInbound(ev)
	case PhaseActive:
		return s.active(ev)
	}
	return s, nil
}

func origin(ev Event) (domain.ConnectionID, bool) {
	switch e := ev.(type) {
	case InviteReceived:
		return e.From, true
	case AcceptReceived:
		return e.From, true
	case RejectReceived:
		return e.From, true
	case EndReceived:
		return e.From, true
	case OfferReceived:
		return e.From, true
	case AnswerReceived:
		return e.From, true
	case CandidateReceived:
		return e.From, true
	case MemberJoined:
		return e.ID, true
	case ParticipantLeft:
		return e.ID, true
	}
	return "", false
}

func (s State) idle(ev Event) (State, []Command) {
	switch e := ev.(type) {
	case StartCall:
		if s.Pending != IntentNone {
			return s, nil
		}
		return s.acquire(IntentStart)
	case EndCall:
		return s.cancelPending(), nil
	case InviteReceived:
		// A local start in flight wins over an incoming ring.
		if s.Pending != IntentNone {
			return s, nil
		}
		s.Phase = PhaseRingingInbound
		s.Caller = e.From
		s.RingTicket++
		return s, []Command{StartRingTimer{Ticket: s.RingTicket}}
	case OfferReceived:
		// An ongoing call in the room reached out to us: join it.
		s.Phase = PhaseActive
		s.Participants = []domain.ConnectionID{e.From}
		cmds := []Command{
			OpenLink{Peer: e.From, Role: peer.RoleAnswerer},
			DeliverOffer{From: e.From, SDP: e.SDP},
		}
		if s.Pending == IntentStart {
			s.Pending = IntentJoin
			return s, cmds
		}
		s, more := s.acquire(IntentJoin)
		return s, append(cmds, more...)
	}
	return s, nil
}

func (s State) ringingOutbound(ev Event) (State, []Command) {
	switch e := ev.(type) {
	case AcceptReceived:
		if e.Caller != s.Self {
			return s, nil
		}
		s.Phase = PhaseActive
		s.Participants = []domain.ConnectionID{e.From}
		return s, []Command{StopRingTimer{}, OpenLink{Peer: e.From, Role: peer.RoleAnswerer}}
	case RejectReceived:
		if e.Caller != s.Self {
			return s, nil
		}
		return s.toIdle()
	case RingTimeout:
		if e.Ticket != s.RingTicket {
			return s, nil
		}
		return s.hangUp()
	case EndCall:
		return s.hangUp()
	case OfferReceived:
		s.Phase = PhaseActive
		s.Participants = []domain.ConnectionID{e.From}
		return s, []Command{
			StopRingTimer{},
			OpenLink{Peer: e.From, Role: peer.RoleAnswerer},
			DeliverOffer{From: e.From, SDP: e.SDP},
		}
	}
	return s, nil
}

func (s State) ringingInbound(ev Event) (State, []Command) {
	switch e := ev.(type) {
	case AcceptCall:
		if s.Pending == IntentAccept {
			return s, nil
		}
		s, cmds := s.acquire(IntentAccept)
		return s, append([]Command{StopRingTimer{}}, cmds...)
	case RejectCall, EndCall:
		caller := s.Caller
		s, cmds := s.toIdle()
		return s, append(cmds, Send{
			Type:    protocol.TypeCallReject,
			Payload: protocol.CallPayload{CallerID: caller, ParticipantID: s.Self},
		})
	case EndReceived:
		if e.From != s.Caller {
			return s, nil
		}
		return s.toIdle()
	case ParticipantLeft:
		if e.ID != s.Caller {
			return s, nil
		}
		return s.toIdle()
	case RingTimeout:
		if e.Ticket != s.RingTicket || s.Pending == IntentAccept {
			return s, nil
		}
		return s.toIdle()
	}
	return s, nil
}

func (s State) active(ev Event) (State, []Command) {
	switch e := ev.(type) {
	case AcceptReceived:
		if s.HasParticipant(e.From) {
			return s, nil
		}
		// The accepter offers to the caller; everyone else offers to the accepter.
		role := peer.RoleOfferer
		if e.Caller == s.Self {
			role = peer.RoleAnswerer
		}
		s = s.withParticipant(e.From)
		return s, []Command{OpenLink{Peer: e.From, Role: role}}
	case MemberJoined:
		if s.HasParticipant(e.ID) {
			return s, nil
		}
		s = s.withParticipant(e.ID)
		return s, []Command{OpenLink{Peer: e.ID, Role: peer.RoleOfferer}}
	case OfferReceived:
		var cmds []Command
		if !s.HasParticipant(e.From) {
			s = s.withParticipant(e.From)
			cmds = append(cmds, OpenLink{Peer: e.From, Role: peer.RoleAnswerer})
		}
		return s, append(cmds, DeliverOffer{From: e.From, SDP: e.SDP})
	case AnswerReceived:
		if !s.HasParticipant(e.From) {
			return s, nil
		}
		return s, []Command{DeliverAnswer{From: e.From, SDP: e.SDP}}
	case EndReceived:
		return s.dropParticipant(e.From)
	case ParticipantLeft:
		return s.dropParticipant(e.ID)
	case LinkFailed:
		if !s.HasParticipant(e.Peer) {
			return s, nil
		}
		s, cmds := s.dropParticipant(e.Peer)
		if e.Err != nil {
			cmds = append([]Command{ReportError{Err: e.Err}}, cmds...)
		}
		return s, cmds
	case EndCall:
		return s.hangUp()
	}
	return s, nil
}

// acquire records intent and asks for media unless it is already held or
// on its way.
func (s State) acquire(intent Intent) (State, []Command) {
	s.Pending = intent
	switch s.Media {
	case MediaHeld:
		return s.mediaReady()
	case MediaAcquiring:
		return s, nil
	}
	s.Media = MediaAcquiring
	s.MediaTicket++
	return s, []Command{AcquireMedia{Ticket: s.MediaTicket}}
}

func (s State) onMediaAcquired(e MediaAcquired) (State, []Command) {
	if e.Ticket != s.MediaTicket || s.Media != MediaAcquiring {
		// A cancelled request still opened the device.
		if s.Media == MediaNone {
			return s, []Command{ReleaseMedia{}}
		}
		return s, nil
	}
	s.Media = MediaHeld
	return s.mediaReady()
}

func (s State) mediaReady() (State, []Command) {
	intent := s.Pending
	s.Pending = IntentNone
	switch intent {
	case IntentStart:
		if s.Phase != PhaseIdle {
			return s, nil
		}
		s.Phase = PhaseRingingOutbound
		s.Caller = s.Self
		s.RingTicket++
		return s, []Command{
			Send{Type: protocol.TypeCallInvite, Payload: protocol.CallPayload{CallerID: s.Self}},
			StartRingTimer{Ticket: s.RingTicket},
		}
	case IntentAccept:
		if s.Phase != PhaseRingingInbound {
			return s, nil
		}
		caller := s.Caller
		s.Phase = PhaseActive
		s.Participants = []domain.ConnectionID{caller}
		return s, []Command{
			Send{Type: protocol.TypeCallAccept, Payload: protocol.CallPayload{CallerID: caller, ParticipantID: s.Self}},
			OpenLink{Peer: caller, Role: peer.RoleOfferer},
		}
	case IntentJoin:
		if s.Phase == PhaseActive {
			return s, []Command{AttachMedia{}}
		}
	}
	return s, nil
}

func (s State) onMediaFailed(e MediaFailed) (State, []Command) {
	if e.Ticket != s.MediaTicket || s.Media != MediaAcquiring {
		return s, nil
	}
	s.Media = MediaNone
	intent := s.Pending
	s.Pending = IntentNone
	cmds := []Command{ReportError{Err: e.Err}}
	if intent == IntentAccept && s.Phase == PhaseRingingInbound {
		caller := s.Caller
		s.Phase = PhaseIdle
		s.Caller = ""
		cmds = append(cmds, Send{
			Type:    protocol.TypeCallReject,
			Payload: protocol.CallPayload{CallerID: caller, ParticipantID: s.Self},
		})
	}
	// Joined a call we cannot send into: leave it rather than stay
	// receive-only.
	if intent == IntentJoin && s.Phase == PhaseActive {
		s, more := s.hangUp()
		return s, append(cmds, more...)
	}
	return s, cmds
}

// hangUp tells the room the call is over for us and tears everything down.
func (s State) hangUp() (State, []Command) {
	cmds := []Command{Send{
		Type:    protocol.TypeCallEnd,
		Payload: protocol.CallPayload{CallerID: s.Caller, ParticipantID: s.Self},
	}}
	if s.Phase == PhaseActive {
		cmds = append(cmds, CloseAllLinks{})
	}
	s, more := s.toIdle()
	return s, append(cmds, more...)
}

func (s State) toIdle() (State, []Command) {
	var cmds []Command
	if s.Phase == PhaseRingingInbound || s.Phase == PhaseRingingOutbound {
		cmds = append(cmds, StopRingTimer{})
	}
	if s.Media == MediaHeld {
		cmds = append(cmds, ReleaseMedia{})
	}
	s = s.cancelPending()
	s.Phase = PhaseIdle
	s.Caller = ""
	s.Participants = nil
	s.Media = MediaNone
	return s, cmds
}

func (s State) cancelPending() State {
	s.Pending = IntentNone
	if s.Media == MediaAcquiring {
		s.Media = MediaNone
		s.MediaTicket++
	}
	return s
}

func (s State) withParticipant(id domain.ConnectionID) State {
	s.Participants = append(slices.Clone(s.Participants), id)
	return s
}

func (s State) dropParticipant(id domain.ConnectionID) (State, []Command) {
	if !s.HasParticipant(id) {
		return s, nil
	}
	s.Participants = slices.DeleteFunc(slices.Clone(s.Participants), func(p domain.ConnectionID) bool { return p == id })
	cmds := []Command{CloseLink{Peer: id}}
	if len(s.Participants) > 0 {
		return s, cmds
	}
	s, more := s.toIdle()
	return s, append(cmds, more...)
}
