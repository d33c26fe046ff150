package handlers_test

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/aiparse"
	"github.com/salinmt/salin/internal/api/handlers"
	"github.com/salinmt/salin/internal/auth"
	"github.com/salinmt/salin/internal/domain"
)

func TestParseReturnsDrafts(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	createCategory(t, e, token, "Dining", domain.Expense)

	e.parser.drafts = []aiparse.Draft{{
		Title:  "coffee",
		Amount: decimal.NewFromInt(5),
		Type:   domain.Expense,
		Date:   domain.Today(),
	}}

	rec := e.do(t, http.MethodPost, "/parse", token, map[string]any{
		"text": "bought a coffee for 5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Transactions []aiparse.Draft `json:"transactions"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "coffee", resp.Transactions[0].Title)

	// The parser is scoped to the caller's category names.
	assert.Equal(t, "bought a coffee for 5", e.parser.gotText)
	assert.Contains(t, e.parser.gotCategories, "Dining")
}

func TestParseRequiresText(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	rec := e.do(t, http.MethodPost, "/parse", token, map[string]any{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseUnavailableWithoutParser(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	// A router without a configured parser turns the route off.
	bare := handlers.NewRouter(handlers.RouterConfig{
		Store:  e.store,
		Tokens: auth.NewTokens("test-secret"),
		Log:    zerolog.Nop(),
	})
	rec := doAgainst(t, bare, http.MethodPost, "/parse", token, map[string]any{"text": "lunch 12"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
