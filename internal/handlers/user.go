package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SenjeyB/LinkadooDemo/internal/api/middleware"
)

// NicknameChangeRequest represents the nickname update body.
type NicknameChangeRequest struct {
	Nickname string `json:"nickname"`
}

// ProfileResponse is the public view of a user.
type ProfileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// GetUser handles public profile lookup.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.JSON(w, http.StatusOK, ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
	})
}

// UpdateNickname handles nickname changes for the authenticated user.
func (h *Handler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req NicknameChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		h.Error(w, http.StatusBadRequest, "nickname must not be empty")
		return
	}

	if err := h.store.UpdateNickname(r.Context(), user.ID, req.Nickname); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update nickname")
		return
	}

	h.logger.Info().Int64("user_id", user.ID).Msg("nickname updated")
	h.Notice(w, "nickname updated")
}
