package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxMessageLen = 4000

var (
	ErrMessageEmpty   = errors.New("message empty")
	ErrMessageTooLong = errors.New("message too long")
	ErrFileRefInvalid = errors.New("file reference invalid")
)

// FileRef points at a file stored by the upload service.
type FileRef struct {
	Name     string `json:"fileName"`
	URL      string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
}

// ChatMessage is either text or a file reference. Messages live in memory only.
type ChatMessage struct {
	ID          string
	RoomID      RoomID
	AuthorID    ConnectionID
	DisplayName string
	Timestamp   time.Time
	System      bool
	Text        string
	File        *FileRef
}

func NewTextMessage(room RoomID, author *User, text string) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	return &ChatMessage{
		ID:          uuid.NewString(),
		RoomID:      room,
		AuthorID:    author.ID,
		DisplayName: author.DisplayName,
		Timestamp:   time.Now().UTC(),
		Text:        text,
	}, nil
}

func NewFileMessage(room RoomID, author *User, ref FileRef) (*ChatMessage, error) {
	if strings.TrimSpace(ref.Name) == "" || strings.TrimSpace(ref.URL) == "" {
		return nil, ErrFileRefInvalid
	}
	if ref.MimeType == "" {
		ref.MimeType = "application/octet-stream"
	}
	return &ChatMessage{
		ID:          uuid.NewString(),
		RoomID:      room,
		AuthorID:    author.ID,
		DisplayName: author.DisplayName,
		Timestamp:   time.Now().UTC(),
		File:        &ref,
	}, nil
}

// JoinNotice is the system line shown to members already in the room.
func JoinNotice(room RoomID, displayName string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		RoomID:    room,
		Timestamp: time.Now().UTC(),
		System:    true,
		Text:      displayName + " has joined the room.",
	}
}
