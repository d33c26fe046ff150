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

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	var amount string
	err := row.Scan(&b.ID, &b.UserID, &amount, &b.Month, &b.Year, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	return &b, nil
}

// InsertBudget stores a monthly budget. A second budget for the same month
// returns ErrDuplicate.
func (s *Store) InsertBudget(ctx context.Context, budget *domain.Budget) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, amount, month, year, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		budget.ID, budget.UserID, budget.Amount.String(), budget.Month, budget.Year)
	if err != nil {
		return fmt.Errorf("InsertBudget: %w", mapError(err))
	}
	return nil
}

// ListBudgets returns the user's budgets, newest month first.
func (s *Store) ListBudgets(ctx context.Context, userID uuid.UUID) ([]domain.Budget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, amount::text, month, year, created_at
		FROM budgets WHERE user_id = $1 ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: scanning: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

// FindBudgetForMonth returns the budget for one month, or ErrNotFound.
func (s *Store) FindBudgetForMonth(ctx context.Context, userID uuid.UUID, month, year int) (*domain.Budget, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, amount::text, month, year, created_at
		FROM budgets WHERE user_id = $1 AND month = $2 AND year = $3`, userID, month, year)
	b, err := scanBudget(row)
	if err != nil {
		return nil, fmt.Errorf("FindBudgetForMonth: %w", mapError(err))
	}
	return b, nil
}

// UpdateBudget edits a budget.
func (s *Store) UpdateBudget(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateBudgetCommand) (*domain.Budget, error) {
	var updated *domain.Budget
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, user_id, amount::text, month, year, created_at
			FROM budgets WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
		b, err := scanBudget(row)
		if err != nil {
			return fmt.Errorf("finding budget: %w", mapError(err))
		}

		if cmd.Amount != nil {
			b.Amount = *cmd.Amount
		}
		if cmd.Month != nil {
			b.Month = *cmd.Month
		}
		if cmd.Year != nil {
			b.Year = *cmd.Year
		}

		_, err = tx.Exec(ctx, `
			UPDATE budgets SET amount = $1, month = $2, year = $3 WHERE id = $4`,
			b.Amount.String(), b.Month, b.Year, b.ID)
		if err != nil {
			return fmt.Errorf("updating budget: %w", mapError(err))
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateBudget: %w", err)
	}
	return updated, nil
}

// DeleteBudget removes a budget outright; budgets have no archival.
func (s *Store) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteBudget: %w", store.ErrNotFound)
	}
	return nil
}
