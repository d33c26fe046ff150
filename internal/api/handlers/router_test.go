package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/aiparse"
	"github.com/salinmt/salin/internal/api/handlers"
	"github.com/salinmt/salin/internal/auth"
	salinmail "github.com/salinmt/salin/internal/mail"
	"github.com/salinmt/salin/internal/store/memory"
)

type fakeMailer struct {
	feedback  []salinmail.Feedback
	resetURLs []string
}

func (m *fakeMailer) SendFeedback(_ context.Context, _ string, f salinmail.Feedback) error {
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _ string, resetURL string) error {
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

type fakeParser struct {
	drafts []aiparse.Draft
	err    error

	gotText       string
	gotCategories []string
}

func (p *fakeParser) ParseTransactions(_ context.Context, text string, categoryNames []string) ([]aiparse.Draft, error) {
	p.gotText = text
	p.gotCategories = categoryNames
	return p.drafts, p.err
}

type env struct {
	store  *memory.Store
	router http.Handler
	mailer *fakeMailer
	parser *fakeParser
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:  memory.New(),
		mailer: &fakeMailer{},
		parser: &fakeParser{},
	}
	e.router = handlers.NewRouter(handlers.RouterConfig{
		Store:         e.store,
		Tokens:        auth.NewTokens("test-secret"),
		Parser:        e.parser,
		Mailer:        e.mailer,
		ClientURL:     "http://localhost:3000",
		FeedbackEmail: "team@example.com",
		Log:           zerolog.Nop(),
	})
	return e
}

var userSeq int

// register creates a user through the API and returns a session token.
func (e *env) register(t *testing.T) string {
	t.Helper()
	userSeq++
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": fmt.Sprintf("user%d", userSeq),
		"email":    fmt.Sprintf("user%d@example.com", userSeq),
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAgainst(t, e.router, method, path, token, body)
}

func doAgainst(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
