package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/codec"
	"github.com/SenjeyB/LinkadooDemo/internal/metrics"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
)

// decryptFallback replaces the text of a message whose ciphertext can
// no longer be decrypted. One corrupt message must not hide a lobby's
// history.
const decryptFallback = "[message could not be decrypted]"

// MessageService owns per-lobby message history. Text is encrypted
// before it reaches storage and decrypted on every read; ciphertext
// never leaves this component.
type MessageService struct {
	store  store.DataStore
	codec  *codec.Codec
	broker *broker.Broker
	logger zerolog.Logger
}

// NewMessageService creates a message service.
func NewMessageService(s store.DataStore, c *codec.Codec, b *broker.Broker, logger zerolog.Logger) *MessageService {
	return &MessageService{store: s, codec: c, broker: b, logger: logger}
}

// Send encrypts and persists a message, then broadcasts the plaintext
// view on the lobby's message topic. The returned record carries
// plaintext.
func (s *MessageService) Send(ctx context.Context, text string, senderID, lobbyID int64) (*models.Message, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}

	ciphertext, err := s.codec.Encrypt(text)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.InsertMessage(ctx, lobbyID, senderID, ciphertext)
	if err != nil {
		return nil, err
	}
	msg.Text = text

	chat := &models.ChatMessage{
		ID:             msg.ID,
		Text:           text,
		SenderID:       senderID,
		SenderNickname: s.nickname(ctx, senderID),
		LobbyID:        lobbyID,
		Timestamp:      msg.Timestamp,
	}
	s.broker.Publish(broker.TopicMessages(lobbyID), models.NewChatMessage(chat))
	metrics.MessagesSent.Inc()

	s.logger.Info().
		Int64("message_id", msg.ID).
		Int64("lobby_id", lobbyID).
		Int64("sender_id", senderID).
		Msg("message stored")

	return msg, nil
}

// History returns a lobby's messages in ascending order with text
// decrypted and sender nicknames resolved. A decryption failure on one
// message degrades that message only.
func (s *MessageService) History(ctx context.Context, lobbyID int64) ([]models.ChatMessage, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}

	stored, err := s.store.ListMessages(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	nicknames := make(map[int64]string)
	out := make([]models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		text, err := s.codec.Decrypt(m.Text)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("message_id", m.ID).
				Int64("lobby_id", lobbyID).
				Msg("message decryption failed")
			text = decryptFallback
		}

		nickname, ok := nicknames[m.SenderID]
		if !ok {
			nickname = s.nickname(ctx, m.SenderID)
			nicknames[m.SenderID] = nickname
		}

		out = append(out, models.ChatMessage{
			ID:             m.ID,
			Text:           text,
			SenderID:       m.SenderID,
			SenderNickname: nickname,
			LobbyID:        m.LobbyID,
			Timestamp:      m.Timestamp,
		})
	}
	return out, nil
}

// nickname resolves a sender's nickname, falling back to the sentinel.
func (s *MessageService) nickname(ctx context.Context, userID int64) string {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return unknownNickname
	}
	return user.Nickname
}
