package store

import (
	"context"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

// DataStore defines the interface for persistent storage of users,
// lobbies, membership and messages. Both PostgresStore and SQLiteStore
// implement this interface.
//
// Lookup methods return (nil, nil) when the record does not exist.
// Lobby rows, their membership and their message history live and die
// together: DeleteLobby cascades to both dependent tables inside one
// transaction.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, username, passwordHash, nickname string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) error
	CountUsers(ctx context.Context) (int64, error)

	// Lobby operations. CreateLobby inserts the lobby row and the
	// creator's membership atomically.
	CreateLobby(ctx context.Context, name string, creatorID int64) (*models.Lobby, error)
	GetLobby(ctx context.Context, id int64) (*models.Lobby, error)
	DeleteLobby(ctx context.Context, id int64) error
	ListLobbies(ctx context.Context) ([]models.Lobby, error)
	CountLobbies(ctx context.Context) (int64, error)

	// Membership operations. AddMember reports false when the pair
	// already existed; RemoveMember reports false when it did not.
	AddMember(ctx context.Context, lobbyID, userID int64) (bool, error)
	RemoveMember(ctx context.Context, lobbyID, userID int64) (bool, error)
	ListParticipants(ctx context.Context, lobbyID int64) ([]models.Participant, error)
	ListMemberUsers(ctx context.Context, lobbyID int64) ([]models.User, error)

	// Message operations. InsertMessage assigns the ordering id and
	// server timestamp; ListMessages returns ascending id order.
	InsertMessage(ctx context.Context, lobbyID, senderID int64, ciphertext string) (*models.Message, error)
	ListMessages(ctx context.Context, lobbyID int64) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)
}
