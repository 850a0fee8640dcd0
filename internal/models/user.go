package models

// User represents a registered account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash, never serialized
	Nickname string `json:"nickname"`
}

// Participant is the public view of a lobby member.
type Participant struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
}
