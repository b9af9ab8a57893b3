package orch

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/roomcall/internal/app"
	"github.com/dkeye/roomcall/internal/core"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInRoom         = errors.New("not in a room")
	ErrNotRelayable      = errors.New("event type is not relayable")
	ErrTargetRequired    = errors.New("target required")
	ErrUnknownConnection = app.ErrUnknownConnection
)

// Orchestrator is the single owner of presence mutations. Join and Leave
// run under mu so that membership broadcasts always reflect one consistent
// member set; relaying only reads.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy

	mu sync.Mutex
}

func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Policy: policy}
}

// Connect registers a fresh transport session that has not joined a room yet.
func (o *Orchestrator) Connect(id domain.ConnectionID, signal core.SignalConnection, cancel context.CancelFunc) {
	user := &domain.User{ID: id}
	o.Registry.Bind(core.NewMemberSession(domain.NewMember(user), signal), cancel)
}

// Disconnect runs the leave path and forgets the connection.
func (o *Orchestrator) Disconnect(id domain.ConnectionID) {
	if err := o.Leave(id); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(id)).Msg("leave on disconnect")
	}
	o.Registry.Unbind(id)
}

// Resolve reports the room and display name of a live connection.
func (o *Orchestrator) Resolve(id domain.ConnectionID) (domain.RoomID, string, error) {
	u, err := o.Registry.Lookup(id)
	if err != nil {
		return "", "", err
	}
	return u.RoomID, u.DisplayName, nil
}

func (o *Orchestrator) publish(room core.RoomService, frame core.Frame, exclude ...domain.ConnectionID) {
	res := room.Broadcast(frame, exclude...)
	for _, slow := range res.Dropped {
		o.onBackPressure(room, slow)
	}
}

func (o *Orchestrator) sendTo(room core.RoomService, id domain.ConnectionID, frame core.Frame) {
	err := room.SendTo(id, frame)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBackpressure):
		if sess, ok := o.Registry.Get(id); ok {
			o.onBackPressure(room, sess)
		}
	default:
		log.Debug().Err(err).Str("module", "orch").Str("to", string(id)).Msg("send dropped")
	}
}

func (o *Orchestrator) onBackPressure(room core.RoomService, member core.MemberSession) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(room, member) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(member.ID())).Msg("kicking slow member")
		o.Registry.Cancel(member.ID())
	case app.DropFrame, app.NoAction:
	}
}

func encode(t protocol.EventType, room domain.RoomID, from domain.ConnectionID, payload any) (core.Frame, error) {
	env, err := protocol.New(t, payload)
	if err != nil {
		return nil, err
	}
	env.Room = room
	env.From = from
	return env.Bytes()
}
