package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/aiparse"
	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/store"
)

// TransactionParser turns free-form text into transaction drafts.
type TransactionParser interface {
	ParseTransactions(ctx context.Context, text string, categoryNames []string) ([]aiparse.Draft, error)
}

// ParseHandler serves POST /parse. A nil parser means the feature is not
// configured and the route answers 503.
type ParseHandler struct {
	parser     TransactionParser
	categories store.CategoryRepository
	log        zerolog.Logger
}

func NewParseHandler(parser TransactionParser, categories store.CategoryRepository, log zerolog.Logger) *ParseHandler {
	return &ParseHandler{parser: parser, categories: categories, log: log}
}

type parseRequest struct {
	Text string `json:"text"`
}

// Parse asks the model to extract transaction drafts from the text, scoped
// to the user's category names. Drafts are suggestions; nothing is saved.
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "AI parsing is not configured")
		return
	}
	userID := middleware.UserID(r)

	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	categories, err := h.categories.ListCategories(r.Context(), userID, "", false)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	drafts, err := h.parser.ParseTransactions(r.Context(), req.Text, names)
	if err != nil {
		h.log.Error().Err(err).Msg("parsing transactions failed")
		middleware.WriteError(w, http.StatusBadGateway, "Could not parse transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"transactions": drafts})
}
