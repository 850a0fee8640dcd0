package models

// Lobby represents a named chat room owned by its creator.
type Lobby struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creatorId"`
}
