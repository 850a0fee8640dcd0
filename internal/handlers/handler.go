package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/api/middleware"
	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/service"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
	"github.com/SenjeyB/LinkadooDemo/internal/token"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	lobbies  *service.LobbyService
	messages *service.MessageService
	tokens   *token.Service
	auth     *middleware.Auth
	broker   *broker.Broker
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(
	s store.DataStore,
	lobbies *service.LobbyService,
	messages *service.MessageService,
	tokens *token.Service,
	auth *middleware.Auth,
	b *broker.Broker,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		store:    s,
		lobbies:  lobbies,
		messages: messages,
		tokens:   tokens,
		auth:     auth,
		broker:   b,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Notice sends a 200 response carrying an informational message for
// benign non-error outcomes.
func (h *Handler) Notice(w http.ResponseWriter, message string) {
	h.JSON(w, http.StatusOK, map[string]string{"message": message})
}
