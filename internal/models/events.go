package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event type tags carried in the "type" field of broadcast payloads.
const (
	EventLobbyCreated      = "LOBBY_CREATED"
	EventLobbyDeleted      = "LOBBY_DELETED"
	EventParticipantJoined = "PARTICIPANT_JOINED"
	EventParticipantLeft   = "PARTICIPANT_LEFT"
	EventChatMessage       = "MESSAGE"
)

// LobbyCreatedEvent announces a new lobby on the global lobby-list topic.
type LobbyCreatedEvent struct {
	EventID   string `json:"eventId"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creatorId"`
}

// LobbyDeletedEvent announces lobby removal on the global lobby-list topic.
type LobbyDeletedEvent struct {
	EventID string `json:"eventId"`
	Type    string `json:"type"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
}

// ParticipantJoinedEvent is published on a lobby's participant topic.
type ParticipantJoinedEvent struct {
	EventID  string `json:"eventId"`
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
}

// ParticipantLeftEvent is published on a lobby's participant topic.
type ParticipantLeftEvent struct {
	EventID  string `json:"eventId"`
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
}

// ChatMessageEvent is published on a lobby's message topic with the
// decrypted text.
type ChatMessageEvent struct {
	EventID        string    `json:"eventId"`
	Type           string    `json:"type"`
	ID             int64     `json:"id"`
	Text           string    `json:"text"`
	SenderID       int64     `json:"senderId"`
	SenderNickname string    `json:"senderNickname"`
	LobbyID        int64     `json:"lobbyId"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEventID returns a sortable unique id for an event envelope.
func NewEventID() string {
	return ulid.Make().String()
}

func NewLobbyCreated(l *Lobby) LobbyCreatedEvent {
	return LobbyCreatedEvent{
		EventID:   NewEventID(),
		Type:      EventLobbyCreated,
		ID:        l.ID,
		Name:      l.Name,
		CreatorID: l.CreatorID,
	}
}

func NewLobbyDeleted(l *Lobby) LobbyDeletedEvent {
	return LobbyDeletedEvent{
		EventID: NewEventID(),
		Type:    EventLobbyDeleted,
		ID:      l.ID,
		Name:    l.Name,
	}
}

func NewParticipantJoined(userID int64, nickname string) ParticipantJoinedEvent {
	return ParticipantJoinedEvent{
		EventID:  NewEventID(),
		Type:     EventParticipantJoined,
		UserID:   userID,
		Nickname: nickname,
	}
}

func NewParticipantLeft(userID int64, nickname string) ParticipantLeftEvent {
	return ParticipantLeftEvent{
		EventID:  NewEventID(),
		Type:     EventParticipantLeft,
		UserID:   userID,
		Nickname: nickname,
	}
}

func NewChatMessage(msg *ChatMessage) ChatMessageEvent {
	return ChatMessageEvent{
		EventID:        NewEventID(),
		Type:           EventChatMessage,
		ID:             msg.ID,
		Text:           msg.Text,
		SenderID:       msg.SenderID,
		SenderNickname: msg.SenderNickname,
		LobbyID:        msg.LobbyID,
		Timestamp:      msg.Timestamp,
	}
}
