package call

import (
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
)

// Event is anything the machine reacts to: local user actions, relayed
// messages and completions of asynchronous work.
type Event interface{ isEvent() }

type (
	StartCall  struct{}
	AcceptCall struct{}
	RejectCall struct{}
	// EndCall hangs up, cancels a pending start or declines a ring.
	EndCall struct{}

	MediaAcquired struct{ Ticket uint64 }
	MediaFailed   struct {
		Ticket uint64
		Err    error
	}

	InviteReceived struct{ From domain.ConnectionID }
	AcceptReceived struct {
		From   domain.ConnectionID
		Caller domain.ConnectionID
	}
	RejectReceived struct {
		From   domain.ConnectionID
		Caller domain.ConnectionID
	}
	EndReceived     struct{ From domain.ConnectionID }
	MemberJoined    struct{ ID domain.ConnectionID }
	ParticipantLeft struct{ ID domain.ConnectionID }

	OfferReceived struct {
		From domain.ConnectionID
		SDP  string
	}
	AnswerReceived struct {
		From domain.ConnectionID
		SDP  string
	}
	CandidateReceived struct {
		From      domain.ConnectionID
		Candidate protocol.ICECandidate
	}

	RingTimeout struct{ Ticket uint64 }
	LinkFailed  struct {
		Peer domain.ConnectionID
		Err  error
	}
)

func (StartCall) isEvent()         {}
func (AcceptCall) isEvent()        {}
func (RejectCall) isEvent()        {}
func (EndCall) isEvent()           {}
func (MediaAcquired) isEvent()     {}
func (MediaFailed) isEvent()       {}
func (InviteReceived) isEvent()    {}
func (AcceptReceived) isEvent()    {}
func (RejectReceived) isEvent()    {}
func (EndReceived) isEvent()       {}
func (MemberJoined) isEvent()      {}
func (ParticipantLeft) isEvent()   {}
func (OfferReceived) isEvent()     {}
func (AnswerReceived) isEvent()    {}
func (CandidateReceived) isEvent() {}
func (RingTimeout) isEvent()       {}
func (LinkFailed) isEvent()        {}
