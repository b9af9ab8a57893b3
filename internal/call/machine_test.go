package call

import (
	"errors"
	"testing"

	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const self domain.ConnectionID = "me"

func run(t *testing.T, s State, evs ...Event) (State, []Command) {
	t.Helper()
	var all []Command
	for _, ev := range evs {
		var cmds []Command
		s, cmds = Step(s, ev)
		all = append(all, cmds...)
	}
	return s, all
}

func ringingOut(t *testing.T) State {
	t.Helper()
	s, _ := run(t, NewState(self), StartCall{}, MediaAcquired{Ticket: 1})
	require.Equal(t, PhaseRingingOutbound, s.Phase)
	return s
}

func ringingIn(t *testing.T, caller domain.ConnectionID) State {
	t.Helper()
	s, _ := run(t, NewState(self), InviteReceived{From: caller})
	require.Equal(t, PhaseRingingInbound, s.Phase)
	return s
}

func activeWith(t *testing.T, peers ...domain.ConnectionID) State {
	t.Helper()
	s := ringingOut(t)
	for _, p := range peers {
		s, _ = Step(s, AcceptReceived{From: p, Caller: self})
	}
	require.Equal(t, PhaseActive, s.Phase)
	return s
}

func TestStartCallAcquiresThenRings(t *testing.T) {
	s, cmds := Step(NewState(self), StartCall{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, MediaAcquiring, s.Media)
	assert.Equal(t, []Command{AcquireMedia{Ticket: 1}}, cmds)

	s, cmds = Step(s, MediaAcquired{Ticket: 1})
	assert.Equal(t, PhaseRingingOutbound, s.Phase)
	assert.Equal(t, self, s.Caller)
	assert.Equal(t, MediaHeld, s.Media)
	assert.Equal(t, []Command{
		Send{Type: protocol.TypeCallInvite, Payload: protocol.CallPayload{CallerID: self}},
		StartRingTimer{Ticket: 1},
	}, cmds)
}

func TestMediaFailureOnStartStaysIdle(t *testing.T) {
	boom := errors.New("no camera")
	s, _ := Step(NewState(self), StartCall{})
	s, cmds := Step(s, MediaFailed{Ticket: 1, Err: boom})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, MediaNone, s.Media)
	assert.Equal(t, []Command{ReportError{Err: boom}}, cmds)
}

func TestCancelledStartReleasesLateMedia(t *testing.T) {
	s, _ := run(t, NewState(self), StartCall{}, EndCall{})
	assert.Equal(t, MediaNone, s.Media)

	s, cmds := Step(s, MediaAcquired{Ticket: 1})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, []Command{ReleaseMedia{}}, cmds)
}

func TestOutboundAcceptGoesActiveAsAnswerer(t *testing.T) {
	s := ringingOut(t)
	s, cmds := Step(s, AcceptReceived{From: "B", Caller: self})
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, []domain.ConnectionID{"B"}, s.Participants)
	assert.Equal(t, []Command{StopRingTimer{}, OpenLink{Peer: "B", Role: peer.RoleAnswerer}}, cmds)
}

func TestOutboundIgnoresAcceptForOtherCaller(t *testing.T) {
	s := ringingOut(t)
	next, cmds := Step(s, AcceptReceived{From: "B", Caller: "Z"})
	assert.Equal(t, s, next)
	assert.Empty(t, cmds)
}

func TestOutboundRejectAndTimeout(t *testing.T) {
	s, cmds := Step(ringingOut(t), RejectReceived{From: "B", Caller: self})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, []Command{StopRingTimer{}, ReleaseMedia{}}, cmds)

	s = ringingOut(t)
	stale, cmds := Step(s, RingTimeout{Ticket: s.RingTicket - 1})
	assert.Equal(t, s, stale)
	assert.Empty(t, cmds)

	s, cmds = Step(s, RingTimeout{Ticket: s.RingTicket})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, []Command{
		Send{Type: protocol.TypeCallEnd, Payload: protocol.CallPayload{CallerID: self, ParticipantID: self}},
		StopRingTimer{},
		ReleaseMedia{},
	}, cmds)
}

func TestInboundAcceptOffersToCaller(t *testing.T) {
	s := ringingIn(t, "A")
	s, cmds := Step(s, AcceptCall{})
	assert.Equal(t, PhaseRingingInbound, s.Phase, "still ringing until media is ready")
	assert.Equal(t, []Command{StopRingTimer{}, AcquireMedia{Ticket: 1}}, cmds)

	s, cmds = Step(s, MediaAcquired{Ticket: 1})
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, []domain.ConnectionID{"A"}, s.Participants)
	assert.Equal(t, []Command{
		Send{Type: protocol.TypeCallAccept, Payload: protocol.CallPayload{CallerID: "A", ParticipantID: self}},
		OpenLink{Peer: "A", Role: peer.RoleOfferer},
	}, cmds)
}

func TestInboundAcceptMediaFailureRejects(t *testing.T) {
	boom := errors.New("denied")
	s, cmds := run(t, ringingIn(t, "A"), AcceptCall{}, MediaFailed{Ticket: 1, Err: boom})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Contains(t, cmds, Command(ReportError{Err: boom}))
	assert.Contains(t, cmds, Command(Send{
		Type:    protocol.TypeCallReject,
		Payload: protocol.CallPayload{CallerID: "A", ParticipantID: self},
	}))
}

func TestInboundRejectAndCallerGone(t *testing.T) {
	s, cmds := Step(ringingIn(t, "A"), RejectCall{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, []Command{
		StopRingTimer{},
		Send{Type: protocol.TypeCallReject, Payload: protocol.CallPayload{CallerID: "A", ParticipantID: self}},
	}, cmds)

	s, _ = Step(ringingIn(t, "A"), EndReceived{From: "A"})
	assert.Equal(t, PhaseIdle, s.Phase)

	s, _ = Step(ringingIn(t, "A"), ParticipantLeft{ID: "A"})
	assert.Equal(t, PhaseIdle, s.Phase)

	s, _ = Step(ringingIn(t, "A"), EndReceived{From: "B"})
	assert.Equal(t, PhaseRingingInbound, s.Phase)
}

func TestInboundTimeoutIgnoredWhileAccepting(t *testing.T) {
	s, _ := Step(ringingIn(t, "A"), AcceptCall{})
	next, cmds := Step(s, RingTimeout{Ticket: s.RingTicket})
	assert.Equal(t, s, next)
	assert.Empty(t, cmds)

	s, _ = Step(ringingIn(t, "A"), RingTimeout{Ticket: 1})
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestConcurrentInvitesAreIgnored(t *testing.T) {
	for name, s := range map[string]State{
		"ringing inbound":  ringingIn(t, "A"),
		"ringing outbound": ringingOut(t),
		"active":           activeWith(t, "B"),
	} {
		t.Run(name, func(t *testing.T) {
			next, cmds := Step(s, InviteReceived{From: "Z"})
			assert.Equal(t, s, next)
			assert.Empty(t, cmds)
		})
	}

	pending, _ := Step(NewState(self), StartCall{})
	next, cmds := Step(pending, InviteReceived{From: "Z"})
	assert.Equal(t, pending, next, "local start in flight wins")
	assert.Empty(t, cmds)
}

func TestOwnEchoesAreIgnored(t *testing.T) {
	s := ringingOut(t)
	for _, ev := range []Event{
		AcceptReceived{From: self, Caller: self},
		RejectReceived{From: self, Caller: self},
		EndReceived{From: self},
		InviteReceived{From: self},
	} {
		next, cmds := Step(s, ev)
		assert.Equal(t, s, next, "%T", ev)
		assert.Empty(t, cmds)
	}
}

func TestActiveAddsLaterAccepters(t *testing.T) {
	s := activeWith(t, "B")

	s, cmds := Step(s, AcceptReceived{From: "C", Caller: self})
	assert.Equal(t, []domain.ConnectionID{"B", "C"}, s.Participants)
	assert.Equal(t, []Command{OpenLink{Peer: "C", Role: peer.RoleAnswerer}}, cmds)

	// Somebody else's invite was accepted by D: we offer to D.
	s, cmds = Step(s, AcceptReceived{From: "D", Caller: "B"})
	assert.Equal(t, []Command{OpenLink{Peer: "D", Role: peer.RoleOfferer}}, cmds)

	_, cmds = Step(s, AcceptReceived{From: "C", Caller: self})
	assert.Empty(t, cmds, "duplicate accept")
}

func TestActiveReachesOutToNewMember(t *testing.T) {
	s := activeWith(t, "B")
	s, cmds := Step(s, MemberJoined{ID: "C"})
	assert.Equal(t, []domain.ConnectionID{"B", "C"}, s.Participants)
	assert.Equal(t, []Command{OpenLink{Peer: "C", Role: peer.RoleOfferer}}, cmds)
}

func TestActiveNegotiationDelivery(t *testing.T) {
	s := activeWith(t, "B")
	cand := protocol.ICECandidate{Candidate: "candidate:1"}

	_, cmds := Step(s, AnswerReceived{From: "B", SDP: "ans"})
	assert.Equal(t, []Command{DeliverAnswer{From: "B", SDP: "ans"}}, cmds)

	_, cmds = Step(s, CandidateReceived{From: "B", Candidate: cand})
	assert.Equal(t, []Command{DeliverCandidate{From: "B", Candidate: cand}}, cmds)

	// Held by the runtime until an offer from them opens a link.
	_, cmds = Step(s, CandidateReceived{From: "stranger", Candidate: cand})
	assert.Equal(t, []Command{DeliverCandidate{From: "stranger", Candidate: cand}}, cmds)

	_, cmds = Step(s, CandidateReceived{From: self, Candidate: cand})
	assert.Empty(t, cmds)

	s, cmds = Step(s, OfferReceived{From: "C", SDP: "off"})
	assert.True(t, s.HasParticipant("C"))
	assert.Equal(t, []Command{OpenLink{Peer: "C", Role: peer.RoleAnswerer}, DeliverOffer{From: "C", SDP: "off"}}, cmds)
}

func TestIdleOfferJoinsCall(t *testing.T) {
	s, cmds := Step(NewState(self), OfferReceived{From: "A", SDP: "off"})
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, []Command{
		OpenLink{Peer: "A", Role: peer.RoleAnswerer},
		DeliverOffer{From: "A", SDP: "off"},
		AcquireMedia{Ticket: 1},
	}, cmds)

	s, cmds = Step(s, MediaAcquired{Ticket: 1})
	assert.Equal(t, MediaHeld, s.Media)
	assert.Equal(t, []Command{AttachMedia{}}, cmds)
}

func TestCandidatesBeforeAnyLinkAreDelivered(t *testing.T) {
	cand := protocol.ICECandidate{Candidate: "candidate:1"}
	for name, s := range map[string]State{
		"idle":     NewState(self),
		"outbound": ringingOut(t),
		"inbound":  ringingIn(t, "A"),
	} {
		next, cmds := Step(s, CandidateReceived{From: "A", Candidate: cand})
		assert.Equal(t, s, next, name)
		assert.Equal(t, []Command{DeliverCandidate{From: "A", Candidate: cand}}, cmds, name)
	}
}

func TestJoinMediaFailureLeavesCall(t *testing.T) {
	boom := errors.New("camera busy")
	s, _ := Step(NewState(self), OfferReceived{From: "A", SDP: "off"})
	require.Equal(t, PhaseActive, s.Phase)

	s, cmds := Step(s, MediaFailed{Ticket: 1, Err: boom})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Empty(t, s.Participants)
	assert.Equal(t, MediaNone, s.Media)
	assert.Equal(t, []Command{
		ReportError{Err: boom},
		Send{Type: protocol.TypeCallEnd, Payload: protocol.CallPayload{ParticipantID: self}},
		CloseAllLinks{},
	}, cmds)
}

func TestRemoteLeaveDropsOnlyThatParticipant(t *testing.T) {
	s := activeWith(t, "B", "C")

	s, cmds := Step(s, EndReceived{From: "B"})
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, []domain.ConnectionID{"C"}, s.Participants)
	assert.Equal(t, []Command{CloseLink{Peer: "B"}}, cmds)

	s, cmds = Step(s, ParticipantLeft{ID: "C"})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, []Command{CloseLink{Peer: "C"}, ReleaseMedia{}}, cmds)
}

func TestLinkFailureReportsAndDrops(t *testing.T) {
	boom := errors.New("ice failed")
	s := activeWith(t, "B", "C")
	s, cmds := Step(s, LinkFailed{Peer: "B", Err: boom})
	assert.Equal(t, []domain.ConnectionID{"C"}, s.Participants)
	assert.Equal(t, []Command{ReportError{Err: boom}, CloseLink{Peer: "B"}}, cmds)
}

func TestEndCallWhileActive(t *testing.T) {
	s, cmds := Step(activeWith(t, "B", "C"), EndCall{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Empty(t, s.Participants)
	assert.Equal(t, MediaNone, s.Media)
	assert.Equal(t, []Command{
		Send{Type: protocol.TypeCallEnd, Payload: protocol.CallPayload{CallerID: self, ParticipantID: self}},
		CloseAllLinks{},
		ReleaseMedia{},
	}, cmds)
}

// Every (phase, event) pair either stays put or moves along an edge of the
// call lifecycle.
func TestTransitionsFollowLifecycle(t *testing.T) {
	allowed := map[Phase][]Phase{
		PhaseIdle:            {PhaseIdle, PhaseRingingOutbound, PhaseRingingInbound, PhaseActive},
		PhaseRingingOutbound: {PhaseRingingOutbound, PhaseActive, PhaseIdle},
		PhaseRingingInbound:  {PhaseRingingInbound, PhaseActive, PhaseIdle},
		PhaseActive:          {PhaseActive, PhaseIdle},
	}
	events := []Event{
		StartCall{}, AcceptCall{}, RejectCall{}, EndCall{},
		MediaAcquired{Ticket: 1}, MediaFailed{Ticket: 1, Err: errors.New("x")},
		InviteReceived{From: "A"}, AcceptReceived{From: "A", Caller: self}, RejectReceived{From: "A", Caller: self},
		EndReceived{From: "A"}, MemberJoined{ID: "Z"}, ParticipantLeft{ID: "A"},
		OfferReceived{From: "A", SDP: "o"}, AnswerReceived{From: "A", SDP: "a"},
		CandidateReceived{From: "A"}, RingTimeout{Ticket: 1}, LinkFailed{Peer: "A", Err: errors.New("x")},
	}
	starts := map[string]State{
		"idle":     NewState(self),
		"pending":  func() State { s, _ := Step(NewState(self), StartCall{}); return s }(),
		"outbound": ringingOut(t),
		"inbound":  ringingIn(t, "A"),
		"active":   activeWith(t, "A"),
	}
	for name, s := range starts {
		for _, ev := range events {
			next, _ := Step(s, ev)
			assert.Contains(t, allowed[s.Phase], next.Phase, "%s + %T", name, ev)
			if next.Phase == PhaseIdle {
				assert.Empty(t, next.Participants, "%s + %T", name, ev)
			}
			if next.Phase == PhaseActive {
				assert.NotEmpty(t, next.Participants, "%s + %T", name, ev)
			}
		}
	}
}
