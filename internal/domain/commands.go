package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountCommand opens a new account. Balance is the opening balance
// and is the only time the balance is set directly.
type CreateAccountCommand struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

func (c *CreateAccountCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Type = strings.TrimSpace(c.Type)
	if c.Name == "" || c.Type == "" {
		return fmt.Errorf("%w: name and type are required", ErrInvalid)
	}
	if c.Balance.IsNegative() && !AllowNegative(c.Type) {
		return fmt.Errorf("%w: opening balance cannot be negative for a %s account", ErrInvalid, c.Type)
	}
	return nil
}

// UpdateAccountCommand renames or retypes an account. The balance is derived
// after creation and deliberately not updatable here.
type UpdateAccountCommand struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

func (c *UpdateAccountCommand) Validate() error {
	if c.Name == nil && c.Type == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalid)
	}
	if c.Type != nil && strings.TrimSpace(*c.Type) == "" {
		return fmt.Errorf("%w: type cannot be empty", ErrInvalid)
	}
	return nil
}

// CreateCategoryCommand adds a category.
type CreateCategoryCommand struct {
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	Keywords []string        `json:"keywords"`
}

func (c *CreateCategoryCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalid)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}
	return nil
}

// UpdateCategoryCommand edits a category in place.
type UpdateCategoryCommand struct {
	Name     *string          `json:"name"`
	Type     *TransactionType `json:"type"`
	Keywords []string         `json:"keywords"`
}

func (c *UpdateCategoryCommand) Validate() error {
	if c.Name == nil && c.Type == nil && c.Keywords == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalid)
	}
	if c.Type != nil && !c.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}
	return nil
}

// CreateTransactionCommand records a new transaction.
type CreateTransactionCommand struct {
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	AccountID   uuid.UUID       `json:"account_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
}

func (c *CreateTransactionCommand) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" || c.Date.IsZero() || c.AccountID == uuid.Nil || c.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: title, date, account_id and category_id are required", ErrInvalid)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	return nil
}

// UpdateTransactionCommand edits a transaction. Omitted fields keep their
// current values; the ledger only moves balances when account, amount or
// type actually change.
type UpdateTransactionCommand struct {
	Title       *string          `json:"title"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        *TransactionType `json:"type"`
	Date        *Date            `json:"date"`
	Description *string          `json:"description"`
	AccountID   *uuid.UUID       `json:"account_id"`
	CategoryID  *uuid.UUID       `json:"category_id"`
}

func (c *UpdateTransactionCommand) Validate() error {
	if c.Title == nil && c.Amount == nil && c.Type == nil && c.Date == nil &&
		c.Description == nil && c.AccountID == nil && c.CategoryID == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalid)
	}
	if c.Amount != nil && !c.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if c.Type != nil && !c.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}
	if c.AccountID != nil && *c.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account_id cannot be empty", ErrInvalid)
	}
	if c.CategoryID != nil && *c.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category_id cannot be empty", ErrInvalid)
	}
	return nil
}

// Apply copies the command onto an existing transaction, defaulting omitted
// fields to their current values, and returns the resulting state.
func (c *UpdateTransactionCommand) Apply(t Transaction) Transaction {
	if c.Title != nil {
		t.Title = strings.TrimSpace(*c.Title)
	}
	if c.Amount != nil {
		t.Amount = *c.Amount
	}
	if c.Type != nil {
		t.Type = *c.Type
	}
	if c.Date != nil {
		t.Date = *c.Date
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.AccountID != nil {
		t.AccountID = *c.AccountID
	}
	if c.CategoryID != nil {
		t.CategoryID = *c.CategoryID
	}
	return t
}

// CreateBudgetCommand sets the spending target for a month. Year defaults to
// the current year when omitted.
type CreateBudgetCommand struct {
	Amount decimal.Decimal `json:"amount"`
	Month  int             `json:"month"`
	Year   int             `json:"year"`
}

func (c *CreateBudgetCommand) Validate() error {
	if !c.Amount.IsPositive() {
		return fmt.Errorf("%w: budget amount and month are required", ErrInvalid)
	}
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalid)
	}
	return nil
}

// UpdateBudgetCommand edits a budget.
type UpdateBudgetCommand struct {
	Amount *decimal.Decimal `json:"amount"`
	Month  *int             `json:"month"`
	Year   *int             `json:"year"`
}

func (c *UpdateBudgetCommand) Validate() error {
	if c.Amount == nil && c.Month == nil && c.Year == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if c.Amount != nil && !c.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if c.Month != nil && (*c.Month < 1 || *c.Month > 12) {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalid)
	}
	return nil
}
