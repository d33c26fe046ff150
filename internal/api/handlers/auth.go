package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/auth"
	"github.com/salinmt/salin/internal/domain"
	salinmail "github.com/salinmt/salin/internal/mail"
	"github.com/salinmt/salin/internal/store"
)

// Mailer is the slice of the mail sender the handlers use. A nil Mailer
// disables the features that depend on it.
type Mailer interface {
	SendFeedback(ctx context.Context, to string, f salinmail.Feedback) error
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

const resetTokenTTL = time.Hour

// AuthHandler covers registration, login, password reset and Google OAuth.
type AuthHandler struct {
	users      store.UserRepository
	categories store.CategoryRepository
	tokens     *auth.Tokens
	google     *auth.GoogleOAuth
	mailer     Mailer
	clientURL  string
	log        zerolog.Logger
}

func NewAuthHandler(users store.UserRepository, categories store.CategoryRepository, tokens *auth.Tokens, google *auth.GoogleOAuth, mailer Mailer, clientURL string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		categories: categories,
		tokens:     tokens,
		google:     google,
		mailer:     mailer,
		clientURL:  strings.TrimRight(clientURL, "/"),
		log:        log,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a local account and seeds the starter categories.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Email is not valid")
		return
	}
	if len(req.Password) < 8 {
		middleware.WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := h.users.InsertUser(r.Context(), user); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	if err := h.categories.SeedDefaultCategories(r.Context(), user.ID); err != nil {
		// The account exists; default categories are a convenience.
		h.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("seeding default categories failed")
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks local credentials and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// One message for both cases so the endpoint does not reveal
		// which emails are registered.
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a reset link when the email is registered. The
// response is the same either way.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if user, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil {
		h.sendResetLink(r.Context(), user)
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Msg("forgot-password lookup failed")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If that email is registered, a reset link has been sent",
	})
}

func (h *AuthHandler) sendResetLink(ctx context.Context, user *domain.User) {
	if h.mailer == nil {
		h.log.Warn().Msg("mail sender not configured, skipping reset email")
		return
	}
	token := uuid.New()
	if err := h.users.InsertResetToken(ctx, token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		h.log.Error().Err(err).Msg("storing reset token failed")
		return
	}
	resetURL := h.clientURL + "/#/reset-password?token=" + token.String()
	if err := h.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		h.log.Error().Err(err).Msg("sending reset email failed")
	}
}

type resetPasswordRequest struct {
	Password string `json:"newPassword"`
}

// ResetPassword consumes the bearer reset token and stores the new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Reset token is required")
		return
	}
	token, err := uuid.Parse(raw)
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	if len(req.Password) < 8 {
		middleware.WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	userID, err := h.users.ConsumeResetToken(r.Context(), token)
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), userID, hash); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// GoogleRedirect sends the browser to Google's consent screen.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}
	http.Redirect(w, r, h.google.AuthURL(uuid.NewString()), http.StatusTemporaryRedirect)
}

type oauthCallbackRequest struct {
	Code string `json:"code"`
}

// GoogleCallback exchanges the authorization code posted by the client,
// provisions the user on first sign-in and issues a session token.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}
	var req oauthCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	if req.Code == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	identity, err := h.google.Exchange(r.Context(), req.Code)
	if err != nil {
		h.log.Warn().Err(err).Msg("google code exchange failed")
		middleware.WriteError(w, http.StatusUnauthorized, "Google sign-in failed")
		return
	}
	username := identity.Name
	if username == "" {
		username = identity.Email
	}
	user, created, err := h.users.FindOrCreateUserByEmail(r.Context(), identity.Email, username)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	if created {
		if err := h.categories.SeedDefaultCategories(r.Context(), user.ID); err != nil {
			h.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("seeding default categories failed")
		}
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(h.log, w, err, "User")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}
