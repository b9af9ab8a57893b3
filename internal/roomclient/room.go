// Package roomclient keeps the client-side view of one room: who is in it,
// what was said, and which frames belong to the call session.
package roomclient

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dkeye/roomcall/internal/call"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNotJoined = errors.New("not joined to a room")

type Transport interface {
	ID() domain.ConnectionID
	Send(env protocol.Envelope) error
	Incoming() <-chan protocol.Envelope
}

// Calls is the call session fed by the room.
type Calls interface {
	HandleEnvelope(env protocol.Envelope)
	Dispatch(ev call.Event)
	Leave()
}

type Hooks struct {
	OnMembers func([]protocol.MemberInfo)
	OnMessage func(*domain.ChatMessage)
	// OnError receives server error codes such as "rate_limited".
	OnError func(code string)
}

type Room struct {
	t     Transport
	calls Calls
	hooks Hooks

	mu       sync.RWMutex
	roomID   domain.RoomID
	name     string
	members  []protocol.MemberInfo
	messages []*domain.ChatMessage
}

func New(t Transport, calls Calls, hooks Hooks) *Room {
	return &Room{t: t, calls: calls, hooks: hooks}
}

func (r *Room) Join(displayName, roomID string) error {
	name, err := domain.NormalizeDisplayName(displayName)
	if err != nil {
		return err
	}
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return err
	}
	env, err := protocol.New(protocol.TypeJoinRoom, protocol.JoinRoomPayload{DisplayName: name, RoomID: string(id)})
	if err != nil {
		return err
	}

	// A call belongs to one room; moving ends it and the new room's first
	// member list is a fresh baseline.
	r.mu.Lock()
	moving := r.roomID != "" && r.roomID != id
	if moving {
		r.members = nil
	}
	r.roomID = id
	r.name = name
	r.mu.Unlock()
	if moving {
		r.calls.Leave()
	}
	return r.t.Send(env)
}

// Leave hangs up any call and leaves the room. The chat log is kept.
func (r *Room) Leave() error {
	r.mu.Lock()
	joined := r.roomID != ""
	r.roomID = ""
	r.members = nil
	r.mu.Unlock()
	if !joined {
		return nil
	}
	r.calls.Leave()
	return r.t.Send(protocol.Envelope{Type: protocol.TypeLeaveRoom})
}

func (r *Room) RoomID() domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roomID
}

// SendChat validates text the way the server does and records our own
// copy, since the server does not echo it back.
func (r *Room) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > domain.MaxMessageLen {
		return domain.ErrMessageTooLong
	}
	room, name, err := r.current()
	if err != nil {
		return err
	}
	msg := &domain.ChatMessage{
		ID:          uuid.NewString(),
		RoomID:      room,
		AuthorID:    r.t.ID(),
		DisplayName: name,
		Timestamp:   time.Now().UTC(),
		Text:        text,
	}
	env, err := protocol.New(protocol.TypeChatMessage, protocol.ChatFromMessage(msg))
	if err != nil {
		return err
	}
	if err := r.t.Send(env); err != nil {
		return err
	}
	r.record(msg)
	return nil
}

// SendFile announces a file that was already uploaded.
func (r *Room) SendFile(ref domain.FileRef) error {
	room, name, err := r.current()
	if err != nil {
		return err
	}
	author := domain.User{ID: r.t.ID(), DisplayName: name}
	msg, err := domain.NewFileMessage(room, &author, ref)
	if err != nil {
		return err
	}
	env, err := protocol.New(protocol.TypeFileNotice, protocol.FileFromMessage(msg))
	if err != nil {
		return err
	}
	if err := r.t.Send(env); err != nil {
		return err
	}
	r.record(msg)
	return nil
}

func (r *Room) current() (domain.RoomID, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.roomID == "" {
		return "", "", ErrNotJoined
	}
	return r.roomID, r.name, nil
}

// Members is the last membership list the server sent, in join order.
func (r *Room) Members() []protocol.MemberInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.members)
}

// Messages is the chat log in arrival order.
func (r *Room) Messages() []*domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.messages)
}

func (r *Room) record(m *domain.ChatMessage) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	r.mu.Unlock()
	if r.hooks.OnMessage != nil {
		r.hooks.OnMessage(m)
	}
}

// Run consumes incoming frames until the transport closes or ctx ends.
// When the transport goes away the call is torn down.
func (r *Room) Run(ctx context.Context) error {
	defer r.calls.Leave()
	in := r.t.Incoming()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				return nil
			}
			r.Handle(env)
		}
	}
}

func (r *Room) Handle(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeMembershipUpdate:
		var p protocol.MembershipPayload
		if err := env.Into(&p); err != nil {
			log.Warn().Err(err).Str("module", "roomclient").Msg("bad membership payload")
			return
		}
		r.onMembership(p)
	case protocol.TypeChatMessage:
		var p protocol.ChatPayload
		if err := env.Into(&p); err != nil {
			log.Warn().Err(err).Str("module", "roomclient").Msg("bad chat payload")
			return
		}
		r.record(p.Message())
	case protocol.TypeFileNotice:
		var p protocol.FilePayload
		if err := env.Into(&p); err != nil {
			log.Warn().Err(err).Str("module", "roomclient").Msg("bad file payload")
			return
		}
		r.record(p.Message())
	case protocol.TypeParticipantLeft, protocol.TypeCallInvite, protocol.TypeCallAccept, protocol.TypeCallReject, protocol.TypeCallEnd,
		protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		r.calls.HandleEnvelope(env)
	case protocol.TypeError:
		var p protocol.ErrorPayload
		_ = env.Into(&p)
		log.Warn().Str("module", "roomclient").Str("code", p.Error).Msg("server error")
		if r.hooks.OnError != nil {
			r.hooks.OnError(p.Error)
		}
	case protocol.TypePong, protocol.TypeWelcome, protocol.TypeWhoAmI:
	default:
		log.Debug().Str("module", "roomclient").Str("type", string(env.Type)).Msg("unhandled frame")
	}
}

// onMembership replaces the member list and reports newcomers to the call
// session so an active call can reach out to them.
func (r *Room) onMembership(p protocol.MembershipPayload) {
	self := r.t.ID()
	r.mu.Lock()
	if r.roomID != "" && p.RoomID != r.roomID {
		r.mu.Unlock()
		return
	}
	known := make(map[domain.ConnectionID]struct{}, len(r.members))
	for _, m := range r.members {
		known[m.ConnectionID] = struct{}{}
	}
	first := r.members == nil
	r.members = slices.Clone(p.Members)
	r.mu.Unlock()

	if !first {
		for _, m := range p.Members {
			if _, ok := known[m.ConnectionID]; ok || m.ConnectionID == self {
				continue
			}
			r.calls.Dispatch(call.MemberJoined{ID: m.ConnectionID})
		}
	}
	if r.hooks.OnMembers != nil {
		r.hooks.OnMembers(slices.Clone(p.Members))
	}
}
