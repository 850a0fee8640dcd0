package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB

	// insertMu serializes message inserts so the timestamp is read in
	// the same order the ordering ids are assigned.
	insertMu sync.Mutex
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/linkadoo.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/linkadoo.db"
	}

	memory := dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:")
	if !memory {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if memory {
		// A fresh connection to :memory: gets a fresh database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		nickname TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lobbies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		creator_id INTEGER NOT NULL REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS lobby_members (
		lobby_id INTEGER NOT NULL REFERENCES lobbies(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (lobby_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lobby_id INTEGER NOT NULL REFERENCES lobbies(id) ON DELETE CASCADE,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		text TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_members_lobby ON lobby_members(lobby_id);
	CREATE INDEX IF NOT EXISTS idx_messages_lobby ON messages(lobby_id, id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, nickname string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, nickname) VALUES (?, ?, ?)
	`, username, passwordHash, nickname)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Username: username, Password: passwordHash, Nickname: nickname}, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, nickname FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.Password, &user.Nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, nickname FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.Password, &user.Nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateNickname changes a user's nickname.
func (s *SQLiteStore) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET nickname = ? WHERE id = ?`, nickname, id)
	return err
}

// CountUsers returns the total number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateLobby inserts the lobby and its creator's membership in one
// transaction. Neither row persists if the other fails.
func (s *SQLiteStore) CreateLobby(ctx context.Context, name string, creatorID int64) (*models.Lobby, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO lobbies (name, creator_id) VALUES (?, ?)
	`, name, creatorID)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO lobby_members (lobby_id, user_id) VALUES (?, ?)
	`, id, creatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.Lobby{ID: id, Name: name, CreatorID: creatorID}, nil
}

// GetLobby retrieves a lobby by ID.
func (s *SQLiteStore) GetLobby(ctx context.Context, id int64) (*models.Lobby, error) {
	lobby := &models.Lobby{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, creator_id FROM lobbies WHERE id = ?
	`, id).Scan(&lobby.ID, &lobby.Name, &lobby.CreatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lobby, nil
}

// DeleteLobby removes the lobby row; membership and messages go with
// it via ON DELETE CASCADE.
func (s *SQLiteStore) DeleteLobby(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lobbies WHERE id = ?`, id)
	return err
}

// ListLobbies retrieves all lobbies.
func (s *SQLiteStore) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, creator_id FROM lobbies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lobbies []models.Lobby
	for rows.Next() {
		var lobby models.Lobby
		if err := rows.Scan(&lobby.ID, &lobby.Name, &lobby.CreatorID); err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}
	return lobbies, rows.Err()
}

// CountLobbies returns the total number of lobbies.
func (s *SQLiteStore) CountLobbies(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lobbies`).Scan(&count)
	return count, err
}

// AddMember inserts a (lobby, user) pair. Returns false when the user
// was already a member.
func (s *SQLiteStore) AddMember(ctx context.Context, lobbyID, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO lobby_members (lobby_id, user_id) VALUES (?, ?)
	`, lobbyID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveMember deletes a (lobby, user) pair. Returns false when the
// user was not a member.
func (s *SQLiteStore) RemoveMember(ctx context.Context, lobbyID, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM lobby_members WHERE lobby_id = ? AND user_id = ?
	`, lobbyID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListParticipants returns (userId, nickname) pairs for a lobby.
// Members whose user row is gone render with the "Unknown" sentinel.
func (s *SQLiteStore) ListParticipants(ctx context.Context, lobbyID int64) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lm.user_id, COALESCE(u.nickname, 'Unknown')
		FROM lobby_members lm
		LEFT JOIN users u ON u.id = lm.user_id
		WHERE lm.lobby_id = ?
		ORDER BY lm.user_id
	`, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Nickname); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListMemberUsers returns the full user records of a lobby's members.
func (s *SQLiteStore) ListMemberUsers(ctx context.Context, lobbyID int64) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.password, u.nickname
		FROM lobby_members lm
		JOIN users u ON u.id = lm.user_id
		WHERE lm.lobby_id = ?
		ORDER BY u.id
	`, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Nickname); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// InsertMessage persists a ciphertext message, assigning the ordering
// id and a UTC server timestamp. Concurrent inserts are serialized so
// a larger id never carries a smaller timestamp.
func (s *SQLiteStore) InsertMessage(ctx context.Context, lobbyID, senderID int64, ciphertext string) (*models.Message, error) {
	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (lobby_id, sender_id, text, timestamp) VALUES (?, ?, ?, ?)
	`, lobbyID, senderID, ciphertext, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Message{
		ID:        id,
		Text:      ciphertext,
		SenderID:  senderID,
		LobbyID:   lobbyID,
		Timestamp: now,
	}, nil
}

// ListMessages returns a lobby's messages in ascending ordering-id
// order. The id, not the timestamp, is the ordering key.
func (s *SQLiteStore) ListMessages(ctx context.Context, lobbyID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lobby_id, sender_id, text, timestamp
		FROM messages
		WHERE lobby_id = ?
		ORDER BY id ASC
	`, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.LobbyID, &m.SenderID, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the total message count across all lobbies.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
