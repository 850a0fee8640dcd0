package handlers

import "net/http"

// StatsResponse represents service-wide counters.
type StatsResponse struct {
	Users       int64 `json:"users"`
	Lobbies     int64 `json:"lobbies"`
	Messages    int64 `json:"messages"`
	Subscribers int   `json:"subscribers"`
}

// Stats handles the service statistics endpoint.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.CountUsers(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	lobbies, err := h.store.CountLobbies(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	messages, err := h.store.CountMessages(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Users:       users,
		Lobbies:     lobbies,
		Messages:    messages,
		Subscribers: h.broker.Subscribers(),
	})
}
