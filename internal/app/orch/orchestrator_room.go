package orch

import (
	"github.com/dkeye/roomcall/internal/core"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join moves the connection into roomID, leaving any other room first, and
// returns the member list in join order. Joining the room the connection is
// already in only refreshes its display name.
func (o *Orchestrator) Join(id domain.ConnectionID, displayName, roomID string) ([]core.MemberDTO, error) {
	name, err := domain.NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	rid, err := domain.ParseRoomID(roomID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.Registry.Get(id)
	if !ok {
		return nil, ErrUnknownConnection
	}
	prev, _, inRoom := o.Registry.RoomOf(id)
	if inRoom && prev != rid {
		o.leaveLocked(id)
		log.Info().Str("module", "orch").Str("sid", string(id)).Str("from_room", string(prev)).Msg("left previous room")
	}
	rejoin := inRoom && prev == rid

	meta := domain.NewMember(&domain.User{ID: id, DisplayName: name, RoomID: rid})
	if rejoin {
		meta.JoinedAt = sess.Meta().JoinedAt
	}
	ms := core.NewMemberSession(meta, sess.Signal())
	o.Registry.Replace(ms)

	room := o.Rooms.GetOrCreate(rid)
	room.AddMember(ms)
	o.Registry.UpdateRoom(id, rid)
	log.Info().Str("module", "orch").Str("sid", string(id)).Str("room", string(rid)).Bool("rejoin", rejoin).Msg("added to room")

	members := room.MembersSnapshot()
	o.publishMembership(room, members)
	if !rejoin {
		notice := domain.JoinNotice(rid, name)
		if frame, err := encode(protocol.TypeChatMessage, rid, "", protocol.ChatFromMessage(notice)); err == nil {
			o.publish(room, frame, id)
		}
	}
	return members, nil
}

// Leave removes the connection from its room. It is a no-op for
// connections that are not in a room.
func (o *Orchestrator) Leave(id domain.ConnectionID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.leaveLocked(id)
	return nil
}

func (o *Orchestrator) leaveLocked(id domain.ConnectionID) {
	rid, _, ok := o.Registry.RoomOf(id)
	if !ok {
		return
	}
	o.Registry.RemoveRoom(id)
	room, ok := o.Rooms.Get(rid)
	if !ok {
		return
	}
	room.RemoveMember(id)
	if o.Rooms.DropIfEmpty(rid) {
		return
	}

	o.publishMembership(room, room.MembersSnapshot())
	frame, err := encode(protocol.TypeParticipantLeft, rid, "", protocol.ParticipantLeftPayload{ConnectionID: id})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode participant-left")
		return
	}
	o.publish(room, frame)
}

func (o *Orchestrator) publishMembership(room core.RoomService, members []core.MemberDTO) {
	p := protocol.MembershipPayload{RoomID: room.Room().ID, Members: make([]protocol.MemberInfo, 0, len(members))}
	for _, m := range members {
		p.Members = append(p.Members, protocol.MemberInfo{DisplayName: m.DisplayName, ConnectionID: m.ConnectionID})
	}
	frame, err := encode(protocol.TypeMembershipUpdate, p.RoomID, "", p)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode membership")
		return
	}
	o.publish(room, frame)
}
