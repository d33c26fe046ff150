package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/ledger"
	"github.com/salinmt/salin/internal/store"
)

func scanTransaction(row pgx.Row, withNames bool) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount string
	var date time.Time
	dest := []any{&t.ID, &t.UserID, &t.Title, &amount, &t.Type, &date, &t.Description, &t.AccountID, &t.CategoryID, &t.CreatedAt}
	if withNames {
		dest = append(dest, &t.AccountName, &t.CategoryName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	t.Date = domain.DateOf(date)
	return &t, nil
}

// applyDeltas locks the touched accounts in delta order (Reconcile sorts by
// account id, so two concurrent movers lock in the same order) and applies
// each delta as an atomic increment. It fails without writing anything when
// an account is missing, not the user's, or would be overdrawn.
func applyDeltas(ctx context.Context, tx pgx.Tx, userID uuid.UUID, deltas []ledger.Delta) error {
	for _, d := range deltas {
		var balance string
		var allowNegative bool
		err := tx.QueryRow(ctx, `
			SELECT balance::text, allow_negative FROM accounts
			WHERE id = $1 AND user_id = $2 FOR UPDATE`, d.AccountID, userID).
			Scan(&balance, &allowNegative)
		if err != nil {
			return fmt.Errorf("locking account %s: %w", d.AccountID, mapError(err))
		}
		current, err := decimal.NewFromString(balance)
		if err != nil {
			return fmt.Errorf("parsing balance: %w", err)
		}
		if ledger.WouldOverdraw(current, d.Amount, allowNegative) {
			return store.ErrInsufficientBalance
		}
		_, err = tx.Exec(ctx, `
			UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
			d.Amount.String(), d.AccountID)
		if err != nil {
			return fmt.Errorf("adjusting balance: %w", err)
		}
	}
	return nil
}

// verifyCategory checks the category exists and belongs to the user.
func verifyCategory(ctx context.Context, tx pgx.Tx, userID, categoryID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
		categoryID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}
	if !exists {
		return fmt.Errorf("category %s: %w", categoryID, store.ErrNotFound)
	}
	return nil
}

// InsertTransaction stores a transaction and applies its effect to the
// account balance in the same database transaction.
func (s *Store) InsertTransaction(ctx context.Context, transaction *domain.Transaction) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := verifyCategory(ctx, tx, transaction.UserID, transaction.CategoryID); err != nil {
			return err
		}
		entry := ledger.EntryOf(*transaction)
		if err := applyDeltas(ctx, tx, transaction.UserID, ledger.Reconcile(nil, &entry)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, user_id, title, amount, type, date, description, account_id, category_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
			transaction.ID, transaction.UserID, transaction.Title,
			transaction.Amount.String(), transaction.Type, transaction.Date.Time(),
			transaction.Description, transaction.AccountID, transaction.CategoryID)
		if err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// buildTransactionQuery assembles the filtered listing query with positional
// parameters, one clause per set filter.
func buildTransactionQuery(userID uuid.UUID, filter store.TransactionFilter) (string, []any) {
	query := `
		SELECT t.id, t.user_id, t.title, t.amount::text, t.type, t.date, t.description,
		       t.account_id, t.category_id, t.created_at, a.name, c.name
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1`
	args := []any{userID}

	appendArg := func(clause string, value any) {
		args = append(args, value)
		query += " AND " + clause + "$" + strconv.Itoa(len(args))
	}
	if filter.StartDate != nil {
		appendArg("t.date >= ", filter.StartDate.Time())
	}
	if filter.EndDate != nil {
		appendArg("t.date <= ", filter.EndDate.Time())
	}
	if filter.Type != "" {
		appendArg("t.type = ", string(filter.Type))
	}
	if filter.CategoryID != nil {
		appendArg("t.category_id = ", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		appendArg("t.account_id = ", *filter.AccountID)
	}
	if filter.Search != "" {
		appendArg("t.title ILIKE ", "%"+filter.Search+"%")
	}
	query += " ORDER BY t.created_at DESC"
	return query, args
}

// QueryTransactions lists the user's transactions newest first, applying the
// optional filters.
func (s *Store) QueryTransactions(ctx context.Context, userID uuid.UUID, filter store.TransactionFilter) ([]domain.Transaction, error) {
	query, args := buildTransactionQuery(userID, filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows, true)
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: scanning: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// FindTransaction returns one transaction owned by the user.
func (s *Store) FindTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, amount::text, type, date, description, account_id, category_id, created_at
		FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	t, err := scanTransaction(row, false)
	if err != nil {
		return nil, fmt.Errorf("FindTransaction: %w", mapError(err))
	}
	return t, nil
}

// UpdateTransaction edits a transaction and reconciles the affected account
// balances. The old-state revert, the new-state apply and the row update all
// commit together or not at all.
func (s *Store) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateTransactionCommand) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, user_id, title, amount::text, type, date, description, account_id, category_id, created_at
			FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
		old, err := scanTransaction(row, false)
		if err != nil {
			return fmt.Errorf("finding transaction: %w", mapError(err))
		}

		next := cmd.Apply(*old)
		if cmd.CategoryID != nil {
			if err := verifyCategory(ctx, tx, userID, next.CategoryID); err != nil {
				return err
			}
		}

		before := ledger.EntryOf(*old)
		after := ledger.EntryOf(next)
		if err := applyDeltas(ctx, tx, userID, ledger.Reconcile(&before, &after)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET title = $1, amount = $2, type = $3, date = $4, description = $5, account_id = $6, category_id = $7
			WHERE id = $8`,
			next.Title, next.Amount.String(), next.Type, next.Date.Time(),
			next.Description, next.AccountID, next.CategoryID, id)
		if err != nil {
			return fmt.Errorf("updating row: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return updated, nil
}

// DeleteTransaction reverts the transaction's effect on its account and
// removes the row, atomically.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, user_id, title, amount::text, type, date, description, account_id, category_id, created_at
			FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
		old, err := scanTransaction(row, false)
		if err != nil {
			return fmt.Errorf("finding transaction: %w", mapError(err))
		}

		before := ledger.EntryOf(*old)
		if err := applyDeltas(ctx, tx, userID, ledger.Reconcile(&before, nil)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

// ListRecentTransactions returns the user's most recently recorded
// transactions for the dashboard.
func (s *Store) ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.title, t.amount::text, t.type, t.date, t.description,
		       t.account_id, t.category_id, t.created_at, a.name, c.name
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecentTransactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		t, err := scanTransaction(rows, true)
		if err != nil {
			return nil, fmt.Errorf("ListRecentTransactions: scanning: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// SumExpenses totals expense amounts with dates inside [start, end].
func (s *Store) SumExpenses(ctx context.Context, userID uuid.UUID, start, end domain.Date) (decimal.Decimal, error) {
	var total string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND date >= $2 AND date <= $3`,
		userID, start.Time(), end.Time()).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumExpenses: %w", err)
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumExpenses: parsing total: %w", err)
	}
	return sum, nil
}
