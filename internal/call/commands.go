package call

import (
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
)

// Command is a side effect requested by a transition. Session executes
// them in order.
type Command interface{ isCommand() }

type (
	AcquireMedia struct{ Ticket uint64 }
	ReleaseMedia struct{}

	// Send relays a call-control envelope; an empty Target means the room.
	Send struct {
		Type    protocol.EventType
		Target  domain.ConnectionID
		Payload protocol.CallPayload
	}

	OpenLink struct {
		Peer domain.ConnectionID
		Role peer.Role
	}
	CloseLink     struct{ Peer domain.ConnectionID }
	CloseAllLinks struct{}
	// AttachMedia pushes the held local tracks to every open link.
	AttachMedia struct{}

	DeliverOffer struct {
		From domain.ConnectionID
		SDP  string
	}
	DeliverAnswer struct {
		From domain.ConnectionID
		SDP  string
	}
	DeliverCandidate struct {
		From      domain.ConnectionID
		Candidate protocol.ICECandidate
	}

	StartRingTimer struct{ Ticket uint64 }
	StopRingTimer  struct{}
	ReportError    struct{ Err error }
)

func (AcquireMedia) isCommand()     {}
func (ReleaseMedia) isCommand()     {}
func (Send) isCommand()             {}
func (OpenLink) isCommand()         {}
func (CloseLink) isCommand()        {}
func (CloseAllLinks) isCommand()    {}
func (AttachMedia) isCommand()      {}
func (DeliverOffer) isCommand()     {}
func (DeliverAnswer) isCommand()    {}
func (DeliverCandidate) isCommand() {}
func (StartRingTimer) isCommand()   {}
func (StopRingTimer) isCommand()    {}
func (ReportError) isCommand()      {}
