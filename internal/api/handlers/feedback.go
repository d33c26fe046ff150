package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	salinmail "github.com/salinmt/salin/internal/mail"
	"github.com/salinmt/salin/internal/store"
)

var feedbackTypes = map[string]bool{
	"bug":         true,
	"feature":     true,
	"improvement": true,
	"other":       true,
}

// FeedbackHandler relays user feedback to the configured inbox. A nil mailer
// or empty inbox address means the feature is off and the route answers 503.
type FeedbackHandler struct {
	users  store.UserRepository
	mailer Mailer
	inbox  string
	log    zerolog.Logger
}

func NewFeedbackHandler(users store.UserRepository, mailer Mailer, inbox string, log zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{users: users, mailer: mailer, inbox: inbox, log: log}
}

type feedbackRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Submit validates and mails a feedback message.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil || h.inbox == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Feedback is not configured")
		return
	}
	userID := middleware.UserID(r)

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "Feedback")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if !feedbackTypes[req.Type] {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be one of bug, feature, improvement, other")
		return
	}

	f := salinmail.Feedback{
		Type:    req.Type,
		Message: req.Message,
		UserID:  userID.String(),
	}
	if user, err := h.users.FindUser(r.Context(), userID); err == nil {
		f.UserEmail = user.Email
		f.ReplyTo = user.Email
	}

	if err := h.mailer.SendFeedback(r.Context(), h.inbox, f); err != nil {
		h.log.Error().Err(err).Msg("sending feedback failed")
		middleware.WriteError(w, http.StatusBadGateway, "Could not send feedback")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Feedback sent. Thank you!",
	})
}
