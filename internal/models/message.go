package models

import "time"

// Message is a stored chat message. Text holds ciphertext at rest and
// plaintext once it has passed through the codec.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	SenderID  int64     `json:"senderId"`
	LobbyID   int64     `json:"lobbyId"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is the outward-facing view of a message with the sender
// nickname resolved.
type ChatMessage struct {
	ID             int64     `json:"id"`
	Text           string    `json:"text"`
	SenderID       int64     `json:"senderId"`
	SenderNickname string    `json:"senderNickname"`
	LobbyID        int64     `json:"lobbyId"`
	Timestamp      time.Time `json:"timestamp"`
}
