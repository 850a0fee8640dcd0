package service

import "errors"

var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrNotCreator     = errors.New("forbidden: only the creator can delete a lobby")
	ErrEmptyName      = errors.New("lobby name must not be empty")
	ErrMissingLobbyID = errors.New("lobbyId is required")

	// ErrNotInLobby marks the benign leave-while-absent outcome. It is
	// not a failure: callers surface it as success with a notice.
	ErrNotInLobby = errors.New("user is not a member of this lobby")
)
