package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		nickname TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lobbies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		creator_id BIGINT NOT NULL REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS lobby_members (
		lobby_id BIGINT NOT NULL REFERENCES lobbies(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (lobby_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		lobby_id BIGINT NOT NULL REFERENCES lobbies(id) ON DELETE CASCADE,
		sender_id BIGINT NOT NULL REFERENCES users(id),
		text TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_lobby ON lobby_members(lobby_id);
	CREATE INDEX IF NOT EXISTS idx_messages_lobby ON messages(lobby_id, id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash, nickname string) (*models.User, error) {
	user := &models.User{Username: username, Password: passwordHash, Nickname: nickname}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, nickname)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, passwordHash, nickname).Scan(&user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, nickname FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.Password, &user.Nickname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, nickname FROM users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.Password, &user.Nickname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateNickname changes a user's nickname.
func (s *PostgresStore) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET nickname = $1 WHERE id = $2`, nickname, id)
	return err
}

// CountUsers returns the total number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateLobby inserts the lobby and its creator's membership in one
// transaction.
func (s *PostgresStore) CreateLobby(ctx context.Context, name string, creatorID int64) (*models.Lobby, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lobby := &models.Lobby{Name: name, CreatorID: creatorID}
	if err := tx.QueryRow(ctx, `
		INSERT INTO lobbies (name, creator_id) VALUES ($1, $2) RETURNING id
	`, name, creatorID).Scan(&lobby.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lobby_members (lobby_id, user_id) VALUES ($1, $2)
	`, lobby.ID, creatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return lobby, nil
}

// GetLobby retrieves a lobby by ID.
func (s *PostgresStore) GetLobby(ctx context.Context, id int64) (*models.Lobby, error) {
	lobby := &models.Lobby{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, creator_id FROM lobbies WHERE id = $1
	`, id).Scan(&lobby.ID, &lobby.Name, &lobby.CreatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lobby, nil
}

// DeleteLobby removes the lobby row; dependents cascade.
func (s *PostgresStore) DeleteLobby(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM lobbies WHERE id = $1`, id)
	return err
}

// ListLobbies retrieves all lobbies.
func (s *PostgresStore) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, creator_id FROM lobbies ORDER BY id`)
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
func (s *PostgresStore) CountLobbies(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lobbies`).Scan(&count)
	return count, err
}

// AddMember inserts a (lobby, user) pair, reporting false when it
// already existed.
func (s *PostgresStore) AddMember(ctx context.Context, lobbyID, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO lobby_members (lobby_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, lobbyID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveMember deletes a (lobby, user) pair, reporting false when it
// did not exist.
func (s *PostgresStore) RemoveMember(ctx context.Context, lobbyID, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM lobby_members WHERE lobby_id = $1 AND user_id = $2
	`, lobbyID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListParticipants returns (userId, nickname) pairs for a lobby.
func (s *PostgresStore) ListParticipants(ctx context.Context, lobbyID int64) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT lm.user_id, COALESCE(u.nickname, 'Unknown')
		FROM lobby_members lm
		LEFT JOIN users u ON u.id = lm.user_id
		WHERE lm.lobby_id = $1
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
func (s *PostgresStore) ListMemberUsers(ctx context.Context, lobbyID int64) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.password, u.nickname
		FROM lobby_members lm
		JOIN users u ON u.id = lm.user_id
		WHERE lm.lobby_id = $1
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

// InsertMessage persists a ciphertext message with a server-assigned
// ordering id and UTC timestamp. clock_timestamp() is taken at insert
// execution rather than statement start, keeping timestamps aligned
// with id assignment under concurrent sends.
func (s *PostgresStore) InsertMessage(ctx context.Context, lobbyID, senderID int64, ciphertext string) (*models.Message, error) {
	msg := &models.Message{
		Text:     ciphertext,
		SenderID: senderID,
		LobbyID:  lobbyID,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (lobby_id, sender_id, text, timestamp)
		VALUES ($1, $2, $3, clock_timestamp())
		RETURNING id, timestamp
	`, lobbyID, senderID, ciphertext).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return nil, err
	}
	msg.Timestamp = msg.Timestamp.UTC()
	return msg, nil
}

// ListMessages returns a lobby's messages in ascending ordering-id
// order.
func (s *PostgresStore) ListMessages(ctx context.Context, lobbyID int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lobby_id, sender_id, text, timestamp
		FROM messages
		WHERE lobby_id = $1
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
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the total message count across all lobbies.
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
