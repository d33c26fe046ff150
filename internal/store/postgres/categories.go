package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Keywords, &c.IsArchived, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCategory stores a new category.
func (s *Store) InsertCategory(ctx context.Context, category *domain.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, type, keywords, is_archived, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, now())`,
		category.ID, category.UserID, category.Name, category.Type, category.Keywords)
	if err != nil {
		return fmt.Errorf("InsertCategory: %w", mapError(err))
	}
	return nil
}

// ListCategories returns the user's categories, optionally filtered by type,
// excluding archived ones unless asked for.
func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID, typeFilter domain.TransactionType, includeArchived bool) ([]domain.Category, error) {
	query := `SELECT id, user_id, name, type, keywords, is_archived, created_at FROM categories WHERE user_id = $1`
	args := []any{userID}
	if typeFilter != "" {
		args = append(args, string(typeFilter))
		query += " AND type = $2"
	}
	if !includeArchived {
		query += " AND is_archived = FALSE"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("ListCategories: scanning: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// FindCategory returns one category owned by the user.
func (s *Store) FindCategory(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, type, keywords, is_archived, created_at
		FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("FindCategory: %w", mapError(err))
	}
	return c, nil
}

// UpdateCategory edits a category in place.
func (s *Store) UpdateCategory(ctx context.Context, userID, id uuid.UUID, cmd domain.UpdateCategoryCommand) (*domain.Category, error) {
	var updated *domain.Category
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, user_id, name, type, keywords, is_archived, created_at
			FROM categories WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
		c, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("finding category: %w", mapError(err))
		}

		if cmd.Name != nil {
			c.Name = *cmd.Name
		}
		if cmd.Type != nil {
			c.Type = *cmd.Type
		}
		if cmd.Keywords != nil {
			c.Keywords = cmd.Keywords
		}

		_, err = tx.Exec(ctx, `
			UPDATE categories SET name = $1, type = $2, keywords = $3 WHERE id = $4`,
			c.Name, c.Type, c.Keywords, c.ID)
		if err != nil {
			return fmt.Errorf("updating category: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	return updated, nil
}

// RemoveCategory archives the category when any transaction references it,
// and deletes it otherwise.
func (s *Store) RemoveCategory(ctx context.Context, userID, id uuid.UUID) (*store.Removal, error) {
	var removal *store.Removal
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
			id, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("finding category: %w", err)
		}
		if !exists {
			return store.ErrNotFound
		}

		var hasTransactions bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1)`, id).Scan(&hasTransactions)
		if err != nil {
			return fmt.Errorf("checking history: %w", err)
		}

		if hasTransactions {
			removal = &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonCategoryHasHistory}
			_, err = tx.Exec(ctx, `UPDATE categories SET is_archived = TRUE WHERE id = $1`, id)
		} else {
			removal = &store.Removal{Action: store.RemovalDeleted}
			_, err = tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		}
		if err != nil {
			return fmt.Errorf("removing category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RemoveCategory: %w", err)
	}
	return removal, nil
}

// SeedDefaultCategories installs the starter categories for a new user.
func (s *Store) SeedDefaultCategories(ctx context.Context, userID uuid.UUID) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, c := range defaultCategories {
			_, err := tx.Exec(ctx, `
				INSERT INTO categories (id, user_id, name, type, is_archived, created_at)
				VALUES ($1, $2, $3, $4, FALSE, now())`,
				uuid.New(), userID, c.Name, c.Type)
			if err != nil {
				return fmt.Errorf("seeding %q: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SeedDefaultCategories: %w", err)
	}
	return nil
}
