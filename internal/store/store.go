// Package store defines the repository contracts the handlers depend on and
// the sentinel errors they translate into HTTP status codes. The Postgres
// implementation lives in store/postgres; tests use the in-memory one in
// store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientBalance is returned when a balance mutation would
	// drive a non-negative account below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicate is returned on unique-constraint conflicts.
	ErrDuplicate = errors.New("already exists")
)

// TransactionFilter narrows QueryTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	StartDate  *domain.Date
	EndDate    *domain.Date
	Type       domain.TransactionType
	CategoryID *uuid.UUID
	AccountID  *uuid.UUID
	Search     string
}

// Removal reports how a lifecycle-guarded delete resolved.
type Removal struct {
	Action string `json:"action"` // "archived" or "deleted"
	Reason string `json:"reason,omitempty"`
}

const (
	RemovalArchived = "archived"
	RemovalDeleted  = "deleted"

	ReasonNonZeroBalance     = "Account has a non-zero balance"
	ReasonAccountHasHistory  = "Account has transaction history"
	ReasonCategoryHasHistory = "Category has transaction history"
)

// AccountRepository persists accounts and their cached balances.
type AccountRepository interface {
	InsertAccount(ctx context.Context, account *domain.Account) error
	ListAccounts(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]domain.Account, error)
	FindAccount(ctx context.Context, userID, id uuid.UUID) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateAccountCommand) (*domain.Account, error)
	// RemoveAccount archives the account when it has transaction history or
	// a non-zero balance, and hard-deletes it otherwise. The check and the
	// write happen in one database transaction.
	RemoveAccount(ctx context.Context, userID, id uuid.UUID) (*Removal, error)
	// SumBalances totals the balances of the user's non-archived accounts.
	SumBalances(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	InsertCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, userID uuid.UUID, typeFilter domain.TransactionType, includeArchived bool) ([]domain.Category, error)
	FindCategory(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateCategoryCommand) (*domain.Category, error)
	RemoveCategory(ctx context.Context, userID, id uuid.UUID) (*Removal, error)
	// SeedDefaultCategories installs the starter categories for a new user.
	SeedDefaultCategories(ctx context.Context, userID uuid.UUID) error
}

// TransactionRepository persists transactions. Every mutation applies its
// ledger deltas to the affected accounts in the same database transaction as
// the row write, with the account rows locked, so balances never drift and
// concurrent requests cannot lose updates.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, transaction *domain.Transaction) error
	QueryTransactions(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)
	FindTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateTransactionCommand) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error
	ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)
	// SumExpenses totals expense amounts with dates inside [start, end].
	SumExpenses(ctx context.Context, userID uuid.UUID, start, end domain.Date) (decimal.Decimal, error)
}

// BudgetRepository persists monthly budgets.
type BudgetRepository interface {
	InsertBudget(ctx context.Context, budget *domain.Budget) error
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]domain.Budget, error)
	// FindBudgetForMonth returns ErrNotFound when no budget is set; callers
	// treat that as amount zero, not as a failure.
	FindBudgetForMonth(ctx context.Context, userID uuid.UUID, month, year int) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateBudgetCommand) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, id uuid.UUID) error
}

// UserRepository persists local user profiles and credentials.
type UserRepository interface {
	InsertUser(ctx context.Context, user *domain.User) error
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindOrCreateUserByEmail backs the OAuth callback: it returns the
	// existing user for the email or creates one with an empty password.
	// created reports whether this call provisioned the user.
	FindOrCreateUserByEmail(ctx context.Context, email, username string) (user *domain.User, created bool, err error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	InsertResetToken(ctx context.Context, token, userID uuid.UUID, expiresAt time.Time) error
	// ConsumeResetToken deletes the token and returns its user, or
	// ErrNotFound when the token is unknown or expired.
	ConsumeResetToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error)
}

// Store bundles the repositories the API wires together.
type Store interface {
	AccountRepository
	CategoryRepository
	TransactionRepository
	BudgetRepository
	UserRepository
}
