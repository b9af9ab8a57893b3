// Package protocol defines the JSON envelope exchanged over the signaling
// websocket and the payloads carried by each event type.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/roomcall/internal/domain"
)

type EventType string

const (
	TypeWelcome          EventType = "welcome"
	TypeJoinRoom         EventType = "join-room"
	TypeLeaveRoom        EventType = "leave-room"
	TypeResume           EventType = "resume"
	TypeWhoAmI           EventType = "whoami"
	TypePing             EventType = "ping"
	TypePong             EventType = "pong"
	TypeError            EventType = "error"
	TypeMembershipUpdate EventType = "membership-update"
	TypeParticipantLeft  EventType = "participant-left"
	TypeChatMessage      EventType = "chat-message"
	TypeFileNotice       EventType = "file-notice"
	TypeCallInvite       EventType = "call-invite"
	TypeCallAccept       EventType = "call-accept"
	TypeCallReject       EventType = "call-reject"
	TypeCallEnd          EventType = "call-end"
	TypeOffer            EventType = "negotiation-offer"
	TypeAnswer           EventType = "negotiation-answer"
	TypeICECandidate     EventType = "ice-candidate"
)

var ErrMissingType = errors.New("envelope without type")

// Envelope wraps every frame. From is stamped by the server and any value a
// client puts there is overwritten. Payload is opaque to the relay.
type Envelope struct {
	Type    EventType           `json:"type"`
	From    domain.ConnectionID `json:"from,omitempty"`
	Target  domain.ConnectionID `json:"target,omitempty"`
	Room    domain.RoomID       `json:"room,omitempty"`
	Payload json.RawMessage     `json:"payload,omitempty"`
}

func New(t EventType, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return env, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env.Payload = raw
	return env, nil
}

// Encode builds and serializes an envelope in one step.
func Encode(t EventType, payload any) ([]byte, error) {
	env, err := New(t, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, err
	}
	if env.Type == "" {
		return env, ErrMissingType
	}
	return env, nil
}

func (e Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// Into decodes the payload into v.
func (e Envelope) Into(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

// IsTargeted reports whether the event type is routed to a single connection
// when a target is set.
func (t EventType) IsTargeted() bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate,
		TypeCallInvite, TypeCallAccept, TypeCallReject, TypeCallEnd:
		return true
	}
	return false
}
