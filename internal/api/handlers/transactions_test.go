package handlers_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/domain"
)

type transactionResponse struct {
	Message     string             `json:"message"`
	Transaction domain.Transaction `json:"transaction"`
}

func createTransaction(t *testing.T, e *env, token, title string, amount int, typ domain.TransactionType, accountID, categoryID uuid.UUID) domain.Transaction {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"title":       title,
		"amount":      amount,
		"type":        typ,
		"date":        domain.Today().String(),
		"account_id":  accountID,
		"category_id": categoryID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp transactionResponse
	decodeBody(t, rec, &resp)
	return resp.Transaction
}

func accountBalance(t *testing.T, e *env, token string, id uuid.UUID) decimal.Decimal {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/accounts/"+id.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var account domain.Account
	decodeBody(t, rec, &account)
	return account.Balance
}

func requireBalance(t *testing.T, e *env, token string, id uuid.UUID, want int64) {
	t.Helper()
	got := accountBalance(t, e, token, id)
	require.True(t, got.Equal(decimal.NewFromInt(want)), "balance = %s, want %d", got, want)
}

// TestBalanceFollowsTransactionLifecycle walks one account through a
// rejected overdraw, a spend, an amount edit and a delete, checking the
// cached balance after every step.
func TestBalanceFollowsTransactionLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 500)
	category := createCategory(t, e, token, "Dining", domain.Expense)

	// Overdraw is rejected and leaves the balance untouched.
	rec := e.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"title":       "too much",
		"amount":      600,
		"type":        "expense",
		"date":        domain.Today().String(),
		"account_id":  account.ID,
		"category_id": category.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	requireBalance(t, e, token, account.ID, 500)

	spend := createTransaction(t, e, token, "dinner", 200, domain.Expense, account.ID, category.ID)
	requireBalance(t, e, token, account.ID, 300)

	rec = e.do(t, http.MethodPut, "/transactions/"+spend.ID.String(), token, map[string]any{
		"amount": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	requireBalance(t, e, token, account.ID, 450)

	rec = e.do(t, http.MethodDelete, "/transactions/"+spend.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requireBalance(t, e, token, account.ID, 500)
}

func TestUpdateMovesTransactionBetweenAccounts(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	wallet := createAccount(t, e, token, "Wallet", "cash", 500)
	bank := createAccount(t, e, token, "Bank", "bank", 1000)
	category := createCategory(t, e, token, "Dining", domain.Expense)

	spend := createTransaction(t, e, token, "dinner", 200, domain.Expense, wallet.ID, category.ID)
	requireBalance(t, e, token, wallet.ID, 300)

	rec := e.do(t, http.MethodPut, "/transactions/"+spend.ID.String(), token, map[string]any{
		"account_id": bank.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	requireBalance(t, e, token, wallet.ID, 500)
	requireBalance(t, e, token, bank.ID, 800)
}

func TestIdenticalUpdateMovesNothing(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 500)
	category := createCategory(t, e, token, "Dining", domain.Expense)
	spend := createTransaction(t, e, token, "dinner", 200, domain.Expense, account.ID, category.ID)

	rec := e.do(t, http.MethodPut, "/transactions/"+spend.ID.String(), token, map[string]any{
		"title": "late dinner",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	requireBalance(t, e, token, account.ID, 300)
}

func TestTypeFlipMovesTwiceTheAmount(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 500)
	category := createCategory(t, e, token, "Misc", domain.Expense)
	tx := createTransaction(t, e, token, "oops", 100, domain.Expense, account.ID, category.ID)
	requireBalance(t, e, token, account.ID, 400)

	rec := e.do(t, http.MethodPut, "/transactions/"+tx.ID.String(), token, map[string]any{
		"type": "income",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	requireBalance(t, e, token, account.ID, 600)
}

func TestCreditCardMayGoNegative(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	card := createAccount(t, e, token, "Visa", "credit_card", 0)
	category := createCategory(t, e, token, "Travel", domain.Expense)

	createTransaction(t, e, token, "flight", 350, domain.Expense, card.ID, category.ID)
	requireBalance(t, e, token, card.ID, -350)
}

func TestIncomeRaisesBalance(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Bank", "bank", 100)
	category := createCategory(t, e, token, "Salary2", domain.Income)

	createTransaction(t, e, token, "payday", 2500, domain.Income, account.ID, category.ID)
	requireBalance(t, e, token, account.ID, 2600)
}

func TestCreateTransactionRejectsUnknownRefs(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 500)
	category := createCategory(t, e, token, "Dining", domain.Expense)

	rec := e.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"title":       "ghost account",
		"amount":      10,
		"type":        "expense",
		"date":        domain.Today().String(),
		"account_id":  uuid.New(),
		"category_id": category.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"title":       "ghost category",
		"amount":      10,
		"type":        "expense",
		"date":        domain.Today().String(),
		"account_id":  account.ID,
		"category_id": uuid.New(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactionFilters(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	wallet := createAccount(t, e, token, "Wallet", "cash", 1000)
	bank := createAccount(t, e, token, "Bank", "bank", 1000)
	dining := createCategory(t, e, token, "Dining", domain.Expense)
	salary := createCategory(t, e, token, "Pay", domain.Income)

	createTransaction(t, e, token, "coffee", 5, domain.Expense, wallet.ID, dining.ID)
	createTransaction(t, e, token, "dinner out", 60, domain.Expense, bank.ID, dining.ID)
	createTransaction(t, e, token, "payday", 900, domain.Income, bank.ID, salary.ID)

	list := func(query string) []domain.Transaction {
		t.Helper()
		rec := e.do(t, http.MethodGet, "/transactions"+query, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []domain.Transaction
		decodeBody(t, rec, &out)
		return out
	}

	assert.Len(t, list(""), 3)
	assert.Len(t, list("?type=expense"), 2)
	assert.Len(t, list("?accountId="+wallet.ID.String()), 1)
	assert.Len(t, list("?categoryId="+dining.ID.String()), 2)
	assert.Len(t, list("?search=dinner"), 1)
	assert.Len(t, list("?type=income&accountId="+bank.ID.String()), 1)

	tomorrow := domain.DateOf(domain.Today().Time().AddDate(0, 0, 1))
	assert.Empty(t, list("?startDate="+tomorrow.String()))

	rec := e.do(t, http.MethodGet, "/transactions?type=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 1000)
	category := createCategory(t, e, token, "Misc", domain.Expense)

	createTransaction(t, e, token, "first", 1, domain.Expense, account.ID, category.ID)
	createTransaction(t, e, token, "second", 1, domain.Expense, account.ID, category.ID)
	createTransaction(t, e, token, "third", 1, domain.Expense, account.ID, category.ID)

	rec := e.do(t, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []domain.Transaction
	decodeBody(t, rec, &out)
	require.Len(t, out, 3)
	assert.Equal(t, "third", out[0].Title)
	assert.Equal(t, "first", out[2].Title)
}

func TestTransactionOwnership(t *testing.T) {
	e := newEnv(t)
	owner := e.register(t)
	intruder := e.register(t)

	account := createAccount(t, e, owner, "Wallet", "cash", 500)
	category := createCategory(t, e, owner, "Dining", domain.Expense)
	tx := createTransaction(t, e, owner, "dinner", 20, domain.Expense, account.ID, category.ID)

	rec := e.do(t, http.MethodDelete, "/transactions/"+tx.ID.String(), intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	requireBalance(t, e, owner, account.ID, 480)
}
