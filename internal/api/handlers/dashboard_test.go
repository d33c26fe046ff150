package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/domain"
)

type dashboard struct {
	TotalBalance       decimal.Decimal      `json:"total_balance"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
	Budget             struct {
		ID     *uuid.UUID      `json:"id"`
		Amount decimal.Decimal `json:"amount"`
		Spent  decimal.Decimal `json:"spent"`
	} `json:"budget"`
}

func getDashboard(t *testing.T, e *env, token string) dashboard {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d dashboard
	decodeBody(t, rec, &d)
	return d
}

func TestDashboardEmpty(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	d := getDashboard(t, e, token)
	assert.True(t, d.TotalBalance.IsZero())
	assert.NotNil(t, d.RecentTransactions)
	assert.Empty(t, d.RecentTransactions)
	assert.Nil(t, d.Budget.ID)
	assert.True(t, d.Budget.Amount.IsZero())
	assert.True(t, d.Budget.Spent.IsZero())
}

func TestDashboardAggregates(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)

	wallet := createAccount(t, e, token, "Wallet", "cash", 500)
	bank := createAccount(t, e, token, "Bank", "bank", 1500)
	archived := createAccount(t, e, token, "Old", "bank", 300)
	rec := e.do(t, http.MethodDelete, "/accounts/"+archived.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dining := createCategory(t, e, token, "Dining", domain.Expense)
	now := time.Now()
	budget := createBudget(t, e, token, 1000, int(now.Month()), now.Year())

	createTransaction(t, e, token, "dinner", 150, domain.Expense, wallet.ID, dining.ID)
	createTransaction(t, e, token, "lunch", 50, domain.Expense, bank.ID, dining.ID)

	d := getDashboard(t, e, token)

	// 500 + 1500 - 200 spent; the archived account is excluded.
	assert.True(t, d.TotalBalance.Equal(decimal.NewFromInt(1800)), d.TotalBalance.String())
	require.NotNil(t, d.Budget.ID)
	assert.Equal(t, budget.ID, *d.Budget.ID)
	assert.True(t, d.Budget.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, d.Budget.Spent.Equal(decimal.NewFromInt(200)), d.Budget.Spent.String())

	require.Len(t, d.RecentTransactions, 2)
	assert.Equal(t, "lunch", d.RecentTransactions[0].Title)
}

func TestDashboardRecentCapsAtFive(t *testing.T) {
	e := newEnv(t)
	token := e.register(t)
	account := createAccount(t, e, token, "Wallet", "cash", 1000)
	category := createCategory(t, e, token, "Misc", domain.Expense)

	for i := 0; i < 7; i++ {
		createTransaction(t, e, token, fmt.Sprintf("tx %d", i), 1, domain.Expense, account.ID, category.ID)
	}

	d := getDashboard(t, e, token)
	require.Len(t, d.RecentTransactions, 5)
	assert.Equal(t, "tx 6", d.RecentTransactions[0].Title)
}

func TestDashboardIsPerUser(t *testing.T) {
	e := newEnv(t)
	rich := e.register(t)
	broke := e.register(t)

	createAccount(t, e, rich, "Vault", "bank", 9000)

	d := getDashboard(t, e, broke)
	assert.True(t, d.TotalBalance.IsZero())
}
