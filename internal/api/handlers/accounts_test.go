package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

type accountResponse struct {
	Message string         `json:"message"`
	Account domain.Account `json:"account"`
}

func createAccount(t *testing.T, e *env, token, name, typ string, balance int) domain.Account {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/accounts", token, map[string]any{
		"name":    name,
		"type":    typ,
		"balance": balance,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp accountResponse
	decodeBody(t, rec, &resp)
	return resp.Account
}

func TestCreateAccount(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	account := createAccount(t, e, token, "Wallet", "cash", 500)
	assert.Equal(t, "Wallet", account.Name)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)), account.Balance.String())
	assert.False(t, account.AllowNegative)

	card := createAccount(t, e, token, "Visa", "credit_card", 0)
	assert.True(t, card.AllowNegative)
}

func TestCreateAccountValidation(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	rec := e.do(t, http.MethodPost, "/accounts", token, map[string]any{"type": "cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only credit cards may open in the red.
	rec = e.do(t, http.MethodPost, "/accounts", token, map[string]any{
		"name": "Wallet", "type": "cash", "balance": -10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/accounts", token, map[string]any{
		"name": "Visa", "type": "credit_card", "balance": -10,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestListAccountsHidesArchived(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	createAccount(t, e, token, "Wallet", "cash", 0)
	kept := createAccount(t, e, token, "Savings", "bank", 100)

	// Non-zero balance forces an archive instead of a delete.
	rec := e.do(t, http.MethodDelete, "/accounts/"+kept.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/accounts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var visible []domain.Account
	decodeBody(t, rec, &visible)
	require.Len(t, visible, 1)
	assert.Equal(t, "Wallet", visible[0].Name)

	rec = e.do(t, http.MethodGet, "/accounts?include_archived=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.Account
	decodeBody(t, rec, &all)
	assert.Len(t, all, 2)
}

func TestUpdateAccount(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 50)

	rec := e.do(t, http.MethodPut, "/accounts/"+account.ID.String(), token, map[string]any{
		"name": "Cash stash",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp accountResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Cash stash", resp.Account.Name)
	// Balance is derived from transactions and never writable here.
	assert.True(t, resp.Account.Balance.Equal(decimal.NewFromInt(50)))

	// Retyping to credit_card flips the negative-balance policy.
	rec = e.do(t, http.MethodPut, "/accounts/"+account.ID.String(), token, map[string]any{
		"type": "credit_card",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Account.AllowNegative)

	rec = e.do(t, http.MethodPut, "/accounts/"+account.ID.String(), token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAccountLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	type removal struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}

	// Empty and unused: hard delete.
	empty := createAccount(t, e, token, "Scratch", "cash", 0)
	rec := e.do(t, http.MethodDelete, "/accounts/"+empty.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res removal
	decodeBody(t, rec, &res)
	assert.Equal(t, store.RemovalDeleted, res.Action)

	// Non-zero balance: archived, and the balance reason wins.
	funded := createAccount(t, e, token, "Savings", "bank", 100)
	rec = e.do(t, http.MethodDelete, "/accounts/"+funded.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &res)
	assert.Equal(t, store.RemovalArchived, res.Action)
	assert.Equal(t, store.ReasonNonZeroBalance, res.Reason)

	// Zero balance but with history: archived for the history reason.
	used := createAccount(t, e, token, "Checking", "bank", 100)
	category := createCategory(t, e, token, "Groceries2", "expense")
	createTransaction(t, e, token, "spend it all", 100, "expense", used.ID, category.ID)
	rec = e.do(t, http.MethodDelete, "/accounts/"+used.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &res)
	assert.Equal(t, store.RemovalArchived, res.Action)
	assert.Equal(t, store.ReasonAccountHasHistory, res.Reason)
}

func TestAccountOwnership(t *testing.T) {
	e := newEnv(t)
	owner := e.register(t)
	intruder := e.register(t)

	account := createAccount(t, e, owner, "Wallet", "cash", 0)

	rec := e.do(t, http.MethodGet, "/accounts/"+account.ID.String(), intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/accounts/"+account.ID.String(), intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
