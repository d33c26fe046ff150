package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/store"
)

// UserHandler serves the /user profile routes.
type UserHandler struct {
	users store.UserRepository
	log   zerolog.Logger
}

func NewUserHandler(users store.UserRepository, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Get returns the authenticated user's profile.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	user, err := h.users.FindUser(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Username string `json:"username"`
}

// Update changes the display name.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := h.users.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
