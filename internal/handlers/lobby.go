package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SenjeyB/LinkadooDemo/internal/api/middleware"
	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/service"
)

// CreateLobbyRequest represents the lobby creation request.
type CreateLobbyRequest struct {
	Name string `json:"name"`
}

// LeaveLobbyRequest represents the leave request.
type LeaveLobbyRequest struct {
	LobbyID int64 `json:"lobbyId"`
}

// CreateLobby handles lobby creation (authenticated).
func (h *Handler) CreateLobby(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lobby, err := h.lobbies.Create(r.Context(), req.Name, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyName) {
			h.Error(w, http.StatusBadRequest, "lobby name must not be empty")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to create lobby")
		return
	}

	h.JSON(w, http.StatusCreated, lobby)
}

// JoinLobby handles joining a lobby (authenticated).
func (h *Handler) JoinLobby(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lobbyID, ok := h.lobbyID(w, r)
	if !ok {
		return
	}

	if err := h.lobbies.Join(r.Context(), lobbyID, user.ID); err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			h.Error(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to join lobby")
		return
	}

	h.Notice(w, "joined lobby")
}

// LeaveLobby handles leaving a lobby (authenticated). Leaving a lobby
// the user is not in succeeds with a notice.
func (h *Handler) LeaveLobby(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req LeaveLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.lobbies.Leave(r.Context(), req.LobbyID, user.ID)
	switch {
	case err == nil:
		h.Notice(w, "left lobby")
	case errors.Is(err, service.ErrNotInLobby):
		h.Notice(w, "not a member of this lobby")
	case errors.Is(err, service.ErrMissingLobbyID):
		h.Error(w, http.StatusBadRequest, "lobbyId is required")
	case errors.Is(err, service.ErrLobbyNotFound):
		h.Error(w, http.StatusNotFound, "lobby not found")
	default:
		h.Error(w, http.StatusInternalServerError, "failed to leave lobby")
	}
}

// ListLobbies handles listing all lobbies.
func (h *Handler) ListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.lobbies.List(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if lobbies == nil {
		lobbies = []models.Lobby{}
	}
	h.JSON(w, http.StatusOK, lobbies)
}

// LobbyUsers handles listing the full user records of a lobby.
func (h *Handler) LobbyUsers(w http.ResponseWriter, r *http.Request) {
	lobbyID, ok := h.lobbyID(w, r)
	if !ok {
		return
	}

	users, err := h.lobbies.Members(r.Context(), lobbyID)
	if err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			h.Error(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	h.JSON(w, http.StatusOK, users)
}

// DeleteLobby handles lobby deletion (authenticated, creator only).
func (h *Handler) DeleteLobby(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lobbyID, ok := h.lobbyID(w, r)
	if !ok {
		return
	}

	err := h.lobbies.Delete(r.Context(), lobbyID, user.ID)
	switch {
	case err == nil:
		h.Notice(w, "lobby deleted")
	case errors.Is(err, service.ErrLobbyNotFound):
		h.Error(w, http.StatusNotFound, "lobby not found")
	case errors.Is(err, service.ErrNotCreator):
		h.Error(w, http.StatusForbidden, "only the creator can delete a lobby")
	default:
		h.Error(w, http.StatusInternalServerError, "failed to delete lobby")
	}
}

// Participants handles listing (userId, nickname) pairs of a lobby
// (authenticated).
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lobbyID, ok := h.lobbyID(w, r)
	if !ok {
		return
	}

	participants, err := h.lobbies.Participants(r.Context(), lobbyID)
	if err != nil {
		if errors.Is(err, service.ErrLobbyNotFound) {
			h.Error(w, http.StatusNotFound, "lobby not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	h.JSON(w, http.StatusOK, participants)
}

// lobbyID parses the {id} URL parameter, writing a 400 on failure.
func (h *Handler) lobbyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid lobby ID")
		return 0, false
	}
	return id, true
}
