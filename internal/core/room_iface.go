package core

import (
	"github.com/dkeye/roomcall/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	DisplayName  string              `json:"displayName"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Has(id domain.ConnectionID) bool
	// MembersSnapshot lists members in join order.
	MembersSnapshot() []MemberDTO

	AddMember(ms MemberSession)
	RemoveMember(id domain.ConnectionID) bool
	Broadcast(data Frame, exclude ...domain.ConnectionID) PublishResult
	SendTo(id domain.ConnectionID, data Frame) error
}

type RoomInfo struct {
	ID          domain.RoomID `json:"name"`
	MemberCount int           `json:"client_count"`
}

type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	// DropIfEmpty forgets the room once nobody is left in it.
	DropIfEmpty(id domain.RoomID) bool
}
