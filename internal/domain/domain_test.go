package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "trimmed", in: "  alice  ", want: "alice"},
		{name: "empty", in: "", wantErr: ErrDisplayNameEmpty},
		{name: "blank", in: " \t ", wantErr: ErrDisplayNameEmpty},
		{name: "max runes", in: strings.Repeat("ж", MaxDisplayNameLen), want: strings.Repeat("ж", MaxDisplayNameLen)},
		{name: "too long", in: strings.Repeat("a", MaxDisplayNameLen+1), wantErr: ErrDisplayNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDisplayName(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetDisplayNameKeepsOldOnError(t *testing.T) {
	u, err := NewUser("c1", "bob")
	require.NoError(t, err)

	assert.ErrorIs(t, u.SetDisplayName(" "), ErrDisplayNameEmpty)
	assert.Equal(t, "bob", u.DisplayName)

	require.NoError(t, u.SetDisplayName("robert"))
	assert.Equal(t, "robert", u.DisplayName)
}

func TestParseRoomID(t *testing.T) {
	id, err := ParseRoomID(" standup ")
	require.NoError(t, err)
	assert.Equal(t, RoomID("standup"), id)

	_, err = ParseRoomID("")
	assert.ErrorIs(t, err, ErrRoomIDEmpty)

	_, err = ParseRoomID(strings.Repeat("r", MaxRoomIDLen+1))
	assert.ErrorIs(t, err, ErrRoomIDTooLong)
}

func TestNewTextMessage(t *testing.T) {
	author := &User{ID: "c1", DisplayName: "alice"}

	m, err := NewTextMessage("r1", author, "  hi there ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", m.Text)
	assert.Equal(t, ConnectionID("c1"), m.AuthorID)
	assert.Equal(t, "alice", m.DisplayName)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.System)
	assert.Nil(t, m.File)

	_, err = NewTextMessage("r1", author, "   ")
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = NewTextMessage("r1", author, strings.Repeat("x", MaxMessageLen+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestNewFileMessage(t *testing.T) {
	author := &User{ID: "c1", DisplayName: "alice"}

	m, err := NewFileMessage("r1", author, FileRef{Name: "a.bin", URL: "/uploads/x.bin"})
	require.NoError(t, err)
	require.NotNil(t, m.File)
	assert.Equal(t, "application/octet-stream", m.File.MimeType)
	assert.Empty(t, m.Text)

	_, err = NewFileMessage("r1", author, FileRef{Name: "a.bin"})
	assert.ErrorIs(t, err, ErrFileRefInvalid)
}

func TestJoinNotice(t *testing.T) {
	m := JoinNotice("r1", "carol")
	assert.True(t, m.System)
	assert.Empty(t, m.AuthorID)
	assert.Equal(t, "carol has joined the room.", m.Text)
	assert.Equal(t, RoomID("r1"), m.RoomID)
}
