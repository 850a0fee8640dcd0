package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/codec"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
	"github.com/SenjeyB/LinkadooDemo/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	srv    *httptest.Server
	tokens *token.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)

	tokens, err := token.New(testSecret)
	require.NoError(t, err)

	c, err := codec.New("MySuperSecretKey")
	require.NoError(t, err)

	r := NewRouter(zerolog.Nop(), s, tokens, c, broker.New(zerolog.Nop()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, tokens: tokens}
}

// do issues a JSON request and decodes the response body into out when
// out is non-nil. It returns the status code.
func (ts *testServer) do(t *testing.T, method, path, bearer string, body, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup registers a user and returns their id and a login token.
func (ts *testServer) signup(t *testing.T, username, nickname string) (int64, string) {
	t.Helper()

	var user models.User
	status := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": "hunter22",
		"nickname": nickname,
	}, &user)
	require.Equal(t, http.StatusOK, status)
	require.NotZero(t, user.ID)

	var login struct {
		Token string `json:"token"`
	}
	status = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "hunter22",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)

	return user.ID, login.Token
}

func TestRegisterAndLogin(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	var raw map[string]interface{}
	status := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "hunter22", "nickname": "Alice",
	}, &raw)
	req.Equal(http.StatusOK, status)
	req.Equal("alice", raw["username"])
	req.Equal("Alice", raw["nickname"])
	// The password hash must never be serialized.
	req.NotContains(raw, "password")

	// Duplicate username.
	status = ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "other", "nickname": "Other",
	}, nil)
	req.Equal(http.StatusBadRequest, status)

	// Missing fields.
	status = ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bob",
	}, nil)
	req.Equal(http.StatusBadRequest, status)

	// Wrong password.
	status = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	req.Equal(http.StatusUnauthorized, status)

	// Unknown user.
	status = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "nobody", "password": "hunter22",
	}, nil)
	req.Equal(http.StatusUnauthorized, status)

	var login struct {
		Token string `json:"token"`
	}
	status = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "hunter22",
	}, &login)
	req.Equal(http.StatusOK, status)
	req.True(ts.tokens.Validate(login.Token))

	username, err := ts.tokens.ExtractUsername(login.Token)
	req.NoError(err)
	req.Equal("alice", username)
}

func TestLobbyFlow(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceID, aliceTok := ts.signup(t, "alice", "Alice")
	bobID, bobTok := ts.signup(t, "bob", "Bob")

	// Creation requires authentication.
	status := ts.do(t, http.MethodPost, "/lobby/create", "", map[string]string{"name": "Chess"}, nil)
	req.Equal(http.StatusUnauthorized, status)

	var lobby models.Lobby
	status = ts.do(t, http.MethodPost, "/lobby/create", aliceTok, map[string]string{"name": "Chess"}, &lobby)
	req.Equal(http.StatusCreated, status)
	req.Equal("Chess", lobby.Name)
	req.Equal(aliceID, lobby.CreatorID)

	status = ts.do(t, http.MethodPost, "/lobby/create", aliceTok, map[string]string{"name": "   "}, nil)
	req.Equal(http.StatusBadRequest, status)

	var lobbies []models.Lobby
	status = ts.do(t, http.MethodGet, "/lobby/list", "", nil, &lobbies)
	req.Equal(http.StatusOK, status)
	req.Len(lobbies, 1)

	// Bob joins; joining a missing lobby is a 404.
	status = ts.do(t, http.MethodPost, fmt.Sprintf("/lobby/%d/join", lobby.ID), bobTok, nil, nil)
	req.Equal(http.StatusOK, status)
	status = ts.do(t, http.MethodPost, "/lobby/999/join", bobTok, nil, nil)
	req.Equal(http.StatusNotFound, status)

	var participants []models.Participant
	status = ts.do(t, http.MethodGet, fmt.Sprintf("/lobby/%d/participants", lobby.ID), bobTok, nil, &participants)
	req.Equal(http.StatusOK, status)
	req.Equal([]models.Participant{
		{UserID: aliceID, Nickname: "Alice"},
		{UserID: bobID, Nickname: "Bob"},
	}, participants)

	// Leaving a lobby never joined is still a 200 notice.
	var notice map[string]string
	status = ts.do(t, http.MethodPost, "/lobby/leave", aliceTok, map[string]int64{"lobbyId": lobby.ID}, &notice)
	req.Equal(http.StatusOK, status)
	req.Equal("left lobby", notice["message"])
	status = ts.do(t, http.MethodPost, "/lobby/leave", aliceTok, map[string]int64{"lobbyId": lobby.ID}, &notice)
	req.Equal(http.StatusOK, status)
	req.Equal("not a member of this lobby", notice["message"])

	// Only the creator deletes.
	status = ts.do(t, http.MethodPost, fmt.Sprintf("/lobby/%d/delete", lobby.ID), bobTok, nil, nil)
	req.Equal(http.StatusForbidden, status)
	status = ts.do(t, http.MethodPost, fmt.Sprintf("/lobby/%d/delete", lobby.ID), aliceTok, nil, nil)
	req.Equal(http.StatusOK, status)

	status = ts.do(t, http.MethodGet, "/lobby/list", "", nil, &lobbies)
	req.Equal(http.StatusOK, status)
	req.Empty(lobbies)

	// Everything scoped to the deleted lobby is gone.
	status = ts.do(t, http.MethodGet, fmt.Sprintf("/messages/lobby/%d", lobby.ID), "", nil, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestMessageFlow(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceID, aliceTok := ts.signup(t, "alice", "Alice")

	var lobby models.Lobby
	status := ts.do(t, http.MethodPost, "/lobby/create", aliceTok, map[string]string{"name": "Chess"}, &lobby)
	req.Equal(http.StatusCreated, status)

	var msg models.Message
	status = ts.do(t, http.MethodPost, "/messages/send", "", map[string]interface{}{
		"text": "hi there", "senderId": aliceID, "lobbyId": lobby.ID,
	}, &msg)
	req.Equal(http.StatusOK, status)
	req.Equal("hi there", msg.Text)
	req.NotZero(msg.ID)

	// Validation failures.
	status = ts.do(t, http.MethodPost, "/messages/send", "", map[string]interface{}{
		"senderId": aliceID, "lobbyId": lobby.ID,
	}, nil)
	req.Equal(http.StatusBadRequest, status)
	status = ts.do(t, http.MethodPost, "/messages/send", "", map[string]interface{}{
		"text": "hi", "senderId": aliceID, "lobbyId": 999,
	}, nil)
	req.Equal(http.StatusNotFound, status)

	var history []models.ChatMessage
	status = ts.do(t, http.MethodGet, fmt.Sprintf("/messages/lobby/%d", lobby.ID), "", nil, &history)
	req.Equal(http.StatusOK, status)
	req.Len(history, 1)
	req.Equal("hi there", history[0].Text)
	req.Equal("Alice", history[0].SenderNickname)
	req.Equal(aliceID, history[0].SenderID)
}

func TestHealthAndStats(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	var health map[string]interface{}
	status := ts.do(t, http.MethodGet, "/health", "", nil, &health)
	req.Equal(http.StatusOK, status)
	req.Equal("healthy", health["status"])

	ts.signup(t, "alice", "Alice")

	var stats struct {
		Users   int64 `json:"users"`
		Lobbies int64 `json:"lobbies"`
	}
	status = ts.do(t, http.MethodGet, "/stats", "", nil, &stats)
	req.Equal(http.StatusOK, status)
	req.Equal(int64(1), stats.Users)
	req.Zero(stats.Lobbies)
}

func (ts *testServer) wsURL(tok string) string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?token=" + tok
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	for _, tok := range []string{"", "garbage"} {
		conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(tok), nil)
		req.Error(err)
		req.Nil(conn)
		req.Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestWebSocketSubscribeAndSend(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceID, aliceTok := ts.signup(t, "alice", "Alice")

	var lobby models.Lobby
	status := ts.do(t, http.MethodPost, "/lobby/create", aliceTok, map[string]string{"name": "Chess"}, &lobby)
	req.Equal(http.StatusCreated, status)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(aliceTok), nil)
	req.NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// Frames on one connection are processed in order, so the
	// subscription is live before the send is handled.
	req.NoError(conn.WriteJSON(map[string]interface{}{
		"action": "subscribe",
		"topic":  fmt.Sprintf("lobby.%d.messages", lobby.ID),
	}))
	req.NoError(conn.WriteJSON(map[string]interface{}{
		"action":  "send",
		"lobbyId": lobby.ID,
		"text":    "hello from ws",
	}))

	var ev models.ChatMessageEvent
	req.NoError(conn.ReadJSON(&ev))
	req.Equal(models.EventChatMessage, ev.Type)
	req.Equal("hello from ws", ev.Text)
	req.Equal(aliceID, ev.SenderID)
	req.Equal("Alice", ev.SenderNickname)
	req.Equal(lobby.ID, ev.LobbyID)
	req.NotEmpty(ev.EventID)

	// The message was persisted too.
	var history []models.ChatMessage
	status = ts.do(t, http.MethodGet, fmt.Sprintf("/messages/lobby/%d", lobby.ID), "", nil, &history)
	req.Equal(http.StatusOK, status)
	req.Len(history, 1)
	req.Equal("hello from ws", history[0].Text)
}

func TestWebSocketRejectsUnknownTopic(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	_, aliceTok := ts.signup(t, "alice", "Alice")

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(aliceTok), nil)
	req.NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	req.NoError(conn.WriteJSON(map[string]string{
		"action": "subscribe",
		"topic":  "lobby.abc.everything",
	}))

	var frame struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	req.NoError(conn.ReadJSON(&frame))
	req.Equal("ERROR", frame.Type)
	req.Equal("unknown topic", frame.Message)
}
