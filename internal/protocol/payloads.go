package protocol

import (
	"time"

	"github.com/dkeye/roomcall/internal/domain"
)

type WelcomePayload struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

type JoinRoomPayload struct {
	DisplayName string `json:"displayName"`
	RoomID      string `json:"roomId"`
}

type WhoAmIPayload struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
	DisplayName  string              `json:"displayName,omitempty"`
	RoomID       domain.RoomID       `json:"roomId,omitempty"`
}

type MemberInfo struct {
	DisplayName  string              `json:"displayName"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

type MembershipPayload struct {
	RoomID  domain.RoomID `json:"roomId"`
	Members []MemberInfo  `json:"members"`
}

type ParticipantLeftPayload struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
}

type ChatPayload struct {
	ID          string              `json:"id,omitempty"`
	RoomID      domain.RoomID       `json:"roomId"`
	AuthorID    domain.ConnectionID `json:"authorId,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
	Body        string              `json:"body"`
	Timestamp   int64               `json:"timestamp"`
	System      bool                `json:"system,omitempty"`
}

type FilePayload struct {
	ID          string              `json:"id,omitempty"`
	RoomID      domain.RoomID       `json:"roomId"`
	AuthorID    domain.ConnectionID `json:"authorId,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
	FileName    string              `json:"fileName"`
	FileURL     string              `json:"fileUrl"`
	MimeType    string              `json:"mimeType"`
	Timestamp   int64               `json:"timestamp"`
}

// CallPayload is shared by invite, accept, reject and end. CallerID names
// whoever rang; ParticipantID names whoever produced the event.
type CallPayload struct {
	CallerID      domain.ConnectionID `json:"callerId,omitempty"`
	ParticipantID domain.ConnectionID `json:"participantId,omitempty"`
}

type SDPPayload struct {
	SDP string `json:"sdp"`
}

// ICECandidate mirrors the browser RTCIceCandidateInit JSON shape.
type ICECandidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

type CandidatePayload struct {
	Candidate ICECandidate `json:"candidate"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func ChatFromMessage(m *domain.ChatMessage) ChatPayload {
	return ChatPayload{
		ID:          m.ID,
		RoomID:      m.RoomID,
		AuthorID:    m.AuthorID,
		DisplayName: m.DisplayName,
		Body:        m.Text,
		Timestamp:   m.Timestamp.UnixMilli(),
		System:      m.System,
	}
}

func FileFromMessage(m *domain.ChatMessage) FilePayload {
	p := FilePayload{
		ID:          m.ID,
		RoomID:      m.RoomID,
		AuthorID:    m.AuthorID,
		DisplayName: m.DisplayName,
		Timestamp:   m.Timestamp.UnixMilli(),
	}
	if m.File != nil {
		p.FileName = m.File.Name
		p.FileURL = m.File.URL
		p.MimeType = m.File.MimeType
	}
	return p
}

// Message converts a received chat payload back into the domain form.
func (p ChatPayload) Message() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:          p.ID,
		RoomID:      p.RoomID,
		AuthorID:    p.AuthorID,
		DisplayName: p.DisplayName,
		Timestamp:   time.UnixMilli(p.Timestamp).UTC(),
		System:      p.System,
		Text:        p.Body,
	}
}

func (p FilePayload) Message() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:          p.ID,
		RoomID:      p.RoomID,
		AuthorID:    p.AuthorID,
		DisplayName: p.DisplayName,
		Timestamp:   time.UnixMilli(p.Timestamp).UTC(),
		File:        &domain.FileRef{Name: p.FileName, URL: p.FileURL, MimeType: p.MimeType},
	}
}
