package orch

import (
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
)

// Chat validates a text message and fans it out to the sender's room
// without echoing it back.
func (o *Orchestrator) Chat(from domain.ConnectionID, text string) (*domain.ChatMessage, error) {
	sender, err := o.Registry.Lookup(from)
	if err != nil {
		return nil, err
	}
	if sender.RoomID == "" {
		return nil, ErrNotInRoom
	}
	msg, err := domain.NewTextMessage(sender.RoomID, &sender, text)
	if err != nil {
		return nil, err
	}
	return msg, o.fanOut(from, msg, protocol.TypeChatMessage, protocol.ChatFromMessage(msg))
}

// FileNotice announces an uploaded file to the sender's room.
func (o *Orchestrator) FileNotice(from domain.ConnectionID, ref domain.FileRef) (*domain.ChatMessage, error) {
	sender, err := o.Registry.Lookup(from)
	if err != nil {
		return nil, err
	}
	if sender.RoomID == "" {
		return nil, ErrNotInRoom
	}
	msg, err := domain.NewFileMessage(sender.RoomID, &sender, ref)
	if err != nil {
		return nil, err
	}
	return msg, o.fanOut(from, msg, protocol.TypeFileNotice, protocol.FileFromMessage(msg))
}

func (o *Orchestrator) fanOut(from domain.ConnectionID, msg *domain.ChatMessage, t protocol.EventType, payload any) error {
	room, ok := o.Rooms.Get(msg.RoomID)
	if !ok {
		return ErrNotInRoom
	}
	frame, err := encode(t, msg.RoomID, from, payload)
	if err != nil {
		return err
	}
	o.publish(room, frame, from)
	return nil
}
