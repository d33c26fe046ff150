package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var balance string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &balance, &a.AllowNegative, &a.IsArchived, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parsing balance %q: %w", balance, err)
	}
	return &a, nil
}

// InsertAccount stores a new account with its opening balance.
func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, allow_negative, is_archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, now())`,
		account.ID, account.UserID, account.Name, account.Type,
		account.Balance.String(), account.AllowNegative)
	if err != nil {
		return fmt.Errorf("InsertAccount: %w", mapError(err))
	}
	return nil
}

// ListAccounts returns the user's accounts, excluding archived ones unless
// asked for.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]domain.Account, error) {
	query := "SELECT id, user_id, name, type, balance::text, allow_negative, is_archived, created_at FROM accounts WHERE user_id = $1"
	if !includeArchived {
		query += " AND is_archived = FALSE"
	}
	query += " ORDER BY created_at"

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: scanning: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// FindAccount returns one account owned by the user.
func (s *Store) FindAccount(ctx context.Context, userID, id uuid.UUID) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, type, balance::text, allow_negative, is_archived, created_at
		FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("FindAccount: %w", mapError(err))
	}
	return a, nil
}

// UpdateAccount renames or retypes an account. A type change re-derives the
// negative-balance policy.
func (s *Store) UpdateAccount(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateAccountCommand) (*domain.Account, error) {
	var updated *domain.Account
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, user_id, name, type, balance::text, allow_negative, is_archived, created_at
			FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
		a, err := scanAccount(row)
		if err != nil {
			return fmt.Errorf("finding account: %w", mapError(err))
		}

		if cmd.Name != nil {
			a.Name = *cmd.Name
		}
		if cmd.Type != nil {
			a.Type = *cmd.Type
			a.AllowNegative = domain.AllowNegative(a.Type)
		}

		_, err = tx.Exec(ctx, `
			UPDATE accounts SET name = $1, type = $2, allow_negative = $3 WHERE id = $4`,
			a.Name, a.Type, a.AllowNegative, a.ID)
		if err != nil {
			return fmt.Errorf("updating account: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}
	return updated, nil
}

// RemoveAccount archives the account when it has transaction history or a
// non-zero balance, and deletes it otherwise. The checks and the write share
// a transaction so a concurrent transaction insert cannot slip between them.
func (s *Store) RemoveAccount(ctx context.Context, userID, id uuid.UUID) (*store.Removal, error) {
	var removal *store.Removal
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var balance string
		err := tx.QueryRow(ctx, `
			SELECT balance::text FROM accounts
			WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&balance)
		if err != nil {
			return fmt.Errorf("finding account: %w", mapError(err))
		}
		bal, err := decimal.NewFromString(balance)
		if err != nil {
			return fmt.Errorf("parsing balance: %w", err)
		}

		var hasTransactions bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = $1)`, id).Scan(&hasTransactions)
		if err != nil {
			return fmt.Errorf("checking history: %w", err)
		}

		switch {
		case !bal.IsZero():
			removal = &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonNonZeroBalance}
		case hasTransactions:
			removal = &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonAccountHasHistory}
		default:
			removal = &store.Removal{Action: store.RemovalDeleted}
		}

		if removal.Action == store.RemovalArchived {
			_, err = tx.Exec(ctx, `UPDATE accounts SET is_archived = TRUE WHERE id = $1`, id)
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		}
		if err != nil {
			return fmt.Errorf("removing account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RemoveAccount: %w", err)
	}
	return removal, nil
}

// SumBalances totals the user's non-archived account balances.
func (s *Store) SumBalances(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0)::text FROM accounts
		WHERE user_id = $1 AND is_archived = FALSE`, userID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumBalances: %w", err)
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumBalances: parsing total: %w", err)
	}
	return sum, nil
}
