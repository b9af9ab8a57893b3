package app

import (
	"testing"

	"github.com/dkeye/roomcall/internal/core"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}

func session(id, name string) core.MemberSession {
	u := &domain.User{ID: domain.ConnectionID(id), DisplayName: name}
	return core.NewMemberSession(domain.NewMember(u), nopSignal{})
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	canceled := false
	r.Bind(session("c1", ""), func() { canceled = true })
	_, ok := r.Get("c1")
	assert.True(t, ok)

	_, _, ok = r.RoomOf("c1")
	assert.False(t, ok, "fresh connection is in no room")

	require.True(t, r.Replace(session("c1", "alice")))
	require.True(t, r.UpdateRoom("c1", "r1"))

	room, sess, ok := r.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), room)
	assert.Equal(t, "alice", sess.Meta().User.DisplayName)

	u, err := r.Lookup("c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("r1"), u.RoomID)
	assert.Equal(t, "alice", u.DisplayName)

	r.RemoveRoom("c1")
	_, _, ok = r.RoomOf("c1")
	assert.False(t, ok)

	assert.True(t, r.Cancel("c1"))
	assert.True(t, canceled)

	r.Unbind("c1")
	_, ok = r.Get("c1")
	assert.False(t, ok)
	_, err = r.Lookup("c1")
	assert.ErrorIs(t, err, ErrUnknownConnection)
	assert.False(t, r.Cancel("c1"))
	assert.False(t, r.UpdateRoom("c1", "r1"))
	assert.False(t, r.Replace(session("c1", "x")))
}

func TestRoomManagerCreatesLazilyAndDropsEmpty(t *testing.T) {
	m := NewRoomManager()
	_, ok := m.Get("r1")
	assert.False(t, ok)

	r1 := m.GetOrCreate("r1")
	assert.Same(t, r1, m.GetOrCreate("r1"))
	m.GetOrCreate("a0")

	r1.AddMember(session("c1", "alice"))
	assert.False(t, m.DropIfEmpty("r1"), "occupied room stays")

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.RoomID("a0"), list[0].ID)
	assert.Equal(t, 1, list[1].MemberCount)

	r1.RemoveMember("c1")
	assert.True(t, m.DropIfEmpty("r1"))
	_, ok = m.Get("r1")
	assert.False(t, ok)
	assert.False(t, m.DropIfEmpty("missing"))
}
