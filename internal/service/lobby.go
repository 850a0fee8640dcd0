package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/metrics"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
)

// unknownNickname is rendered when a member's user record cannot be
// resolved.
const unknownNickname = "Unknown"

// LobbyService owns lobby lifecycle and membership. Every successful
// mutation publishes the matching event; storage transactions keep the
// lobby row and its dependent stores consistent.
type LobbyService struct {
	store  store.DataStore
	broker *broker.Broker
	logger zerolog.Logger
}

// NewLobbyService creates a lobby service.
func NewLobbyService(s store.DataStore, b *broker.Broker, logger zerolog.Logger) *LobbyService {
	return &LobbyService{store: s, broker: b, logger: logger}
}

// Create validates the name, persists the lobby with its creator as
// first member, and announces it on the global lobby-list topic.
func (s *LobbyService) Create(ctx context.Context, name string, creatorID int64) (*models.Lobby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	lobby, err := s.store.CreateLobby(ctx, name, creatorID)
	if err != nil {
		return nil, err
	}

	s.broker.Publish(broker.TopicLobbies, models.NewLobbyCreated(lobby))
	metrics.LobbiesCreated.Inc()

	s.logger.Info().
		Int64("lobby_id", lobby.ID).
		Str("name", lobby.Name).
		Int64("creator_id", creatorID).
		Msg("lobby created")

	return lobby, nil
}

// Delete removes a lobby and everything scoped to it. Only the creator
// may delete.
func (s *LobbyService) Delete(ctx context.Context, lobbyID, requesterID int64) error {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return ErrLobbyNotFound
	}
	if lobby.CreatorID != requesterID {
		return ErrNotCreator
	}

	if err := s.store.DeleteLobby(ctx, lobbyID); err != nil {
		return err
	}

	s.broker.Publish(broker.TopicLobbies, models.NewLobbyDeleted(lobby))
	metrics.LobbiesDeleted.Inc()

	s.logger.Info().
		Int64("lobby_id", lobbyID).
		Int64("requester_id", requesterID).
		Msg("lobby deleted")

	return nil
}

// Join adds a user to a lobby. Joining twice is a no-op and publishes
// no second event.
func (s *LobbyService) Join(ctx context.Context, lobbyID, userID int64) error {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return ErrLobbyNotFound
	}

	added, err := s.store.AddMember(ctx, lobbyID, userID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}

	// Best-effort nickname resolution: an unknown user must not abort
	// the join.
	nickname := unknownNickname
	if user, err := s.store.GetUserByID(ctx, userID); err == nil && user != nil {
		nickname = user.Nickname
	}

	s.broker.Publish(broker.TopicParticipants(lobbyID), models.NewParticipantJoined(userID, nickname))

	s.logger.Info().
		Int64("lobby_id", lobbyID).
		Int64("user_id", userID).
		Msg("user joined lobby")

	return nil
}

// Leave removes a user from a lobby. Leaving while absent returns
// ErrNotInLobby, a benign outcome distinct from failure.
func (s *LobbyService) Leave(ctx context.Context, lobbyID, userID int64) error {
	if lobbyID == 0 {
		return ErrMissingLobbyID
	}

	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return ErrLobbyNotFound
	}

	removed, err := s.store.RemoveMember(ctx, lobbyID, userID)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Warn().
			Int64("lobby_id", lobbyID).
			Int64("user_id", userID).
			Msg("leave requested by non-member")
		return ErrNotInLobby
	}

	nickname := unknownNickname
	if user, err := s.store.GetUserByID(ctx, userID); err == nil && user != nil {
		nickname = user.Nickname
	}

	s.broker.Publish(broker.TopicParticipants(lobbyID), models.NewParticipantLeft(userID, nickname))

	s.logger.Info().
		Int64("lobby_id", lobbyID).
		Int64("user_id", userID).
		Msg("user left lobby")

	return nil
}

// List returns all lobbies.
func (s *LobbyService) List(ctx context.Context) ([]models.Lobby, error) {
	return s.store.ListLobbies(ctx)
}

// Participants returns the (userId, nickname) pairs of a lobby's
// members.
func (s *LobbyService) Participants(ctx context.Context, lobbyID int64) ([]models.Participant, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	return s.store.ListParticipants(ctx, lobbyID)
}

// Members returns the full user records of a lobby's members.
func (s *LobbyService) Members(ctx context.Context, lobbyID int64) ([]models.User, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	return s.store.ListMemberUsers(ctx, lobbyID)
}
