package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/metrics"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// topicRegex matches the per-lobby topic names clients may subscribe
// to; the global lobby-list topic is checked separately.
var topicRegex = regexp.MustCompile(`^lobby\.\d+\.(participants|messages)$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsCommand is an inbound client frame.
type wsCommand struct {
	Action  string `json:"action"` // "subscribe", "unsubscribe" or "send"
	Topic   string `json:"topic,omitempty"`
	LobbyID int64  `json:"lobbyId,omitempty"`
	Text    string `json:"text,omitempty"`
}

// wsError is an outbound error frame.
type wsError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// wsClient is one live connection with its subscriptions.
type wsClient struct {
	conn *websocket.Conn
	user *models.User
	send chan interface{}
	done chan struct{}

	mu   sync.Mutex
	subs map[string]*broker.Subscription
}

// HandleWS upgrades the connection and serves the streaming surface.
// The credential travels as a query parameter because not all client
// runtimes can attach headers to the upgrade request; an invalid or
// missing token refuses the upgrade.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Resolve(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	client := &wsClient{
		conn: conn,
		user: user,
		send: make(chan interface{}, 64),
		done: make(chan struct{}),
		subs: make(map[string]*broker.Subscription),
	}

	h.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("websocket connected")

	go client.writePump()
	h.readLoop(client)

	// Disconnect: drop every subscription promptly so the connection
	// stops counting as a live recipient.
	client.mu.Lock()
	for _, sub := range client.subs {
		h.broker.Unsubscribe(sub)
	}
	client.subs = nil
	client.mu.Unlock()

	close(client.done)
	conn.Close()

	h.logger.Info().Int64("user_id", user.ID).Msg("websocket disconnected")
}

// readLoop consumes client frames until the connection drops.
func (h *Handler) readLoop(c *wsClient) {
	c.conn.SetReadLimit(8 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd wsCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Int64("user_id", c.user.ID).Msg("websocket read error")
			}
			return
		}

		switch cmd.Action {
		case "subscribe":
			h.subscribe(c, cmd.Topic)
		case "unsubscribe":
			c.unsubscribe(h, cmd.Topic)
		case "send":
			h.sendFromWS(c, cmd)
		default:
			c.fail("unknown action")
		}
	}
}

// subscribe attaches the client to a topic and starts forwarding its
// events.
func (h *Handler) subscribe(c *wsClient, topic string) {
	if topic != broker.TopicLobbies && !topicRegex.MatchString(topic) {
		c.fail("unknown topic")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		return
	}
	if _, ok := c.subs[topic]; ok {
		return
	}

	sub := h.broker.Subscribe(topic)
	c.subs[topic] = sub

	go func() {
		for ev := range sub.C {
			select {
			case c.send <- ev:
			case <-c.done:
				return
			}
		}
	}()
}

func (c *wsClient) unsubscribe(h *Handler, topic string) {
	c.mu.Lock()
	sub, ok := c.subs[topic]
	if ok {
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	if ok {
		h.broker.Unsubscribe(sub)
	}
}

// sendFromWS persists and broadcasts a message authored over the
// connection. The sender is always the connection's identity.
func (h *Handler) sendFromWS(c *wsClient, cmd wsCommand) {
	if cmd.Text == "" || cmd.LobbyID <= 0 {
		c.fail("text and lobbyId are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.messages.Send(ctx, cmd.Text, c.user.ID, cmd.LobbyID); err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			c.fail("lobby not found")
			return
		}
		c.fail("failed to send message")
	}
}

func (c *wsClient) fail(message string) {
	select {
	case c.send <- wsError{Type: "ERROR", Message: message}:
	case <-c.done:
	}
}

// writePump serializes all outbound traffic on the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
