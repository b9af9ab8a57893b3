package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// RoomID is the user-chosen room name; rooms have no other identity.
type RoomID string

type Room struct {
	ID RoomID
}

func ParseRoomID(s string) (RoomID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrRoomIDEmpty
	}
	if utf8.RuneCountInString(s) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(s), nil
}
