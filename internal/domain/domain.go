// Package domain holds the entities of the money tracker and the typed
// commands accepted at the API boundary. Request bodies are decoded into
// commands and validated here before any of them reaches the ledger or a
// repository.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalid marks a validation failure. Handlers map it to HTTP 400.
var ErrInvalid = errors.New("invalid input")

// TransactionType says which way a transaction moves an account balance.
type TransactionType string

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// Account types are an open set; these are the ones the client offers.
// Anything else is treated as a custom label.
const (
	AccountCash       = "cash"
	AccountBank       = "bank"
	AccountEWallet    = "e-wallet"
	AccountCreditCard = "credit_card"
)

// AllowNegative reports whether an account of the given type may carry a
// negative balance. Only credit cards may.
func AllowNegative(accountType string) bool {
	return accountType == AccountCreditCard
}

// User is the local profile row kept next to the auth credentials.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is a financial account with a cached balance. The balance is set by
// the user at creation and derived from transactions afterwards.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	AllowNegative bool            `json:"allow_negative"`
	IsArchived    bool            `json:"is_archived"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Category groups transactions. Keywords are kept for future
// auto-categorization and passed to the AI parser as hints.
type Category struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Keywords   []string        `json:"keywords,omitempty"`
	IsArchived bool            `json:"is_archived"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Transaction is a single income or expense fact. Amount is always stored
// positive; the effect on the account balance follows from Type.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Description string          `json:"description,omitempty"`
	AccountID   uuid.UUID       `json:"account_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`

	// Joined display fields, populated on reads.
	AccountName  string `json:"account_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// Budget is a monthly spending target. Spent is derived on read and never
// stored.
type Budget struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Month     int             `json:"month"`
	Year      int             `json:"year"`
	CreatedAt time.Time       `json:"created_at"`
}
