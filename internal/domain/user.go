// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxConnectionIDLen = 36
	MaxDisplayNameLen  = 36
)

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
)

// ConnectionID identifies one live transport session. It is the only key
// the server uses for a user; display names may repeat.
type ConnectionID string

type User struct {
	ID          ConnectionID `json:"connectionId"`
	DisplayName string       `json:"displayName"`
	RoomID      RoomID       `json:"roomId,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id ConnectionID, displayName string) (*User, error) {
	name, err := NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, DisplayName: name}, nil
}

func (u *User) SetDisplayName(displayName string) error {
	name, err := NormalizeDisplayName(displayName)
	if err != nil {
		return err
	}
	u.DisplayName = name
	return nil
}

func NormalizeDisplayName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrDisplayNameEmpty
	}
	if utf8.RuneCountInString(s) > MaxDisplayNameLen {
		return "", ErrDisplayNameTooLong
	}
	return s, nil
}
