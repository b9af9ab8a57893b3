package orch

import (
	"fmt"

	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Relay forwards call-control and negotiation envelopes without looking at
// their payload. With a target the envelope goes to that one connection,
// provided it shares the sender's room; otherwise it goes to the room.
// Invites skip the sender; accept, reject and end reach everyone.
// Drops caused by a missing target are silent.
func (o *Orchestrator) Relay(from domain.ConnectionID, env protocol.Envelope) error {
	if !env.Type.IsTargeted() {
		return fmt.Errorf("%w: %s", ErrNotRelayable, env.Type)
	}
	sender, err := o.Registry.Lookup(from)
	if err != nil {
		return err
	}
	if sender.RoomID == "" {
		return ErrNotInRoom
	}
	room, ok := o.Rooms.Get(sender.RoomID)
	if !ok {
		return ErrNotInRoom
	}

	env.From = from
	env.Room = sender.RoomID

	if env.Target == "" {
		switch env.Type {
		case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
			return ErrTargetRequired
		}
		frame, err := env.Bytes()
		if err != nil {
			return err
		}
		if env.Type == protocol.TypeCallInvite {
			o.publish(room, frame, from)
		} else {
			o.publish(room, frame)
		}
		return nil
	}

	if !room.Has(env.Target) {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("target", string(env.Target)).
			Str("type", string(env.Type)).Msg("relay target gone, dropped")
		return nil
	}
	frame, err := env.Bytes()
	if err != nil {
		return err
	}
	o.sendTo(room, env.Target, frame)
	return nil
}
