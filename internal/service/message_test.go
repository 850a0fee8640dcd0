package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

func TestSendMessage(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)

	sub := env.broker.Subscribe(broker.TopicMessages(lobby.ID))

	msg, err := env.messages.Send(ctx, "hello there", env.alice.ID, lobby.ID)
	req.NoError(err)

	// The caller sees plaintext, never ciphertext.
	req.Equal("hello there", msg.Text)
	req.Equal(env.alice.ID, msg.SenderID)
	req.Equal(lobby.ID, msg.LobbyID)
	req.NotZero(msg.ID)
	req.False(msg.Timestamp.IsZero())
	req.WithinDuration(time.Now().UTC(), msg.Timestamp, time.Minute)

	ev, ok := drain(t, sub).(models.ChatMessageEvent)
	req.True(ok)
	req.Equal(models.EventChatMessage, ev.Type)
	req.Equal("hello there", ev.Text)
	req.Equal("Alice", ev.SenderNickname)
	req.Equal(lobby.ID, ev.LobbyID)
}

func TestSendMessageMissingLobby(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.messages.Send(context.Background(), "hi", env.alice.ID, 999)
	require.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestMessageStoredEncrypted(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)

	_, err = env.messages.Send(ctx, "top secret", env.alice.ID, lobby.ID)
	req.NoError(err)

	// The raw store row must not carry the plaintext.
	stored, err := env.store.ListMessages(ctx, lobby.ID)
	req.NoError(err)
	req.Len(stored, 1)
	req.NotEqual("top secret", stored[0].Text)
	req.NotContains(stored[0].Text, "secret")
}

func TestHistoryOrderAndDecryption(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)
	req.NoError(env.lobbies.Join(ctx, lobby.ID, env.bob.ID))

	texts := []string{"first", "second", "third", "fourth"}
	senders := []int64{env.alice.ID, env.bob.ID, env.alice.ID, env.bob.ID}
	for i, text := range texts {
		_, err := env.messages.Send(ctx, text, senders[i], lobby.ID)
		req.NoError(err)
	}

	history, err := env.messages.History(ctx, lobby.ID)
	req.NoError(err)
	req.Len(history, len(texts))

	var lastID int64
	var lastTS time.Time
	for i, m := range history {
		req.Equal(texts[i], m.Text)
		req.Equal(senders[i], m.SenderID)
		req.Greater(m.ID, lastID)
		req.False(m.Timestamp.Before(lastTS))
		lastID = m.ID
		lastTS = m.Timestamp
	}

	req.Equal("Alice", history[0].SenderNickname)
	req.Equal("Bob", history[1].SenderNickname)
}

func TestConcurrentSendsKeepHistoryOrdered(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)

	const workers = 4
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := env.messages.Send(ctx, fmt.Sprintf("w%d-%d", w, i), env.alice.ID, lobby.ID); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Whatever interleaving won, the presented order follows the
	// ordering ids and timestamps never run backwards.
	history, err := env.messages.History(ctx, lobby.ID)
	req.NoError(err)
	req.Len(history, workers*perWorker)
	for i := 1; i < len(history); i++ {
		req.Greater(history[i].ID, history[i-1].ID)
		req.False(history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestHistoryMissingLobby(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.messages.History(context.Background(), 999)
	require.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestHistoryEmptyLobby(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)

	history, err := env.messages.History(ctx, lobby.ID)
	req.NoError(err)
	req.Empty(history)
}

func TestHistoryCorruptCiphertextDegradesOneMessage(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, err := env.lobbies.Create(ctx, "Chess", env.alice.ID)
	req.NoError(err)

	_, err = env.messages.Send(ctx, "before", env.alice.ID, lobby.ID)
	req.NoError(err)

	// Plant a row that was never produced by the codec.
	_, err = env.store.InsertMessage(ctx, lobby.ID, env.alice.ID, "not base64!!")
	req.NoError(err)

	_, err = env.messages.Send(ctx, "after", env.alice.ID, lobby.ID)
	req.NoError(err)

	history, err := env.messages.History(ctx, lobby.ID)
	req.NoError(err)
	req.Len(history, 3)
	req.Equal("before", history[0].Text)
	req.Equal(decryptFallback, history[1].Text)
	req.Equal("after", history[2].Text)
}

func TestNicknameFallsBackForUnknownUser(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	req.Equal("Alice", env.messages.nickname(ctx, env.alice.ID))
	req.Equal(unknownNickname, env.messages.nickname(ctx, 999))
}
