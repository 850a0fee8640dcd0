package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/service"
)

// SendMessageRequest represents the message submission body.
type SendMessageRequest struct {
	Text     string `json:"text"`
	SenderID int64  `json:"senderId"`
	LobbyID  int64  `json:"lobbyId"`
}

// SendMessage handles persisting and broadcasting a chat message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.LobbyID <= 0 || req.SenderID <= 0 {
		h.Error(w, http.StatusBadRequest, "senderId and lobbyId are required")
		return
	}

	msg, err := h.messages.Send(r.Context(), req.Text, req.SenderID, req.LobbyID)
	if err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			h.Error(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Error(w, http.StatusBadRequest, "failed to send message")
		return
	}

	h.JSON(w, http.StatusOK, msg)
}

// LobbyMessages handles fetching a lobby's decrypted message history.
func (h *Handler) LobbyMessages(w http.ResponseWriter, r *http.Request) {
	lobbyID, ok := h.lobbyID(w, r)
	if !ok {
		return
	}

	history, err := h.messages.History(r.Context(), lobbyID)
	if err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			h.Error(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	h.JSON(w, http.StatusOK, history)
}
