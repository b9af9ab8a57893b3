package peer

import (
	"errors"
	"fmt"

	"github.com/dkeye/roomcall/internal/domain"
)

var ErrLinkClosed = errors.New("peer link closed")

// NegotiationError records which step of the handshake with which peer failed.
type NegotiationError struct {
	Op   string
	Peer domain.ConnectionID
	Err  error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("negotiation with %s: %s: %v", e.Peer, e.Op, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}
