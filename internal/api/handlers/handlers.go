// Package handlers implements the HTTP surface of the API. Each resource
// gets its own handler struct with dependencies injected at construction.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/auth"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

// decodeJSON decodes the request body into dst, normalizing malformed
// bodies into a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: request body is not valid JSON", domain.ErrInvalid)
	}
	return nil
}

// respondError maps domain and store errors onto HTTP status codes.
// The resource name shows up in not-found and conflict messages.
func respondError(log zerolog.Logger, w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientBalance):
		middleware.WriteError(w, http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrDuplicate):
		middleware.WriteError(w, http.StatusConflict, resource+" already exists")
	case errors.Is(err, auth.ErrInvalidToken):
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid or expired token.")
	default:
		log.Error().Err(err).Msg("request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a valid UUID", domain.ErrInvalid)
	}
	return id, nil
}
