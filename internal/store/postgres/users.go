package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser stores a new user. A taken email returns ErrDuplicate.
func (s *Store) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		user.ID, strings.ToLower(user.Email), user.Username, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("InsertUser: %w", mapError(err))
	}
	return nil
}

// FindUser returns a user by id.
func (s *Store) FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("FindUser: %w", mapError(err))
	}
	return u, nil
}

// FindUserByEmail returns a user by email, case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("FindUserByEmail: %w", mapError(err))
	}
	return u, nil
}

// FindOrCreateUserByEmail backs the OAuth callback. Created users get no
// password; they can only sign in federated until they set one via the
// reset flow.
func (s *Store) FindOrCreateUserByEmail(ctx context.Context, email, username string) (*domain.User, bool, error) {
	// xmax = 0 distinguishes a fresh insert from the conflict branch.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, '', now())
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, username, password_hash, created_at, (xmax = 0)`,
		uuid.New(), strings.ToLower(email), username)
	var u domain.User
	var created bool
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &created); err != nil {
		return nil, false, fmt.Errorf("FindOrCreateUserByEmail: %w", mapError(err))
	}
	return &u, created, nil
}

// UpdateUsername sets the profile username.
func (s *Store) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET username = $1 WHERE id = $2
		RETURNING id, email, username, password_hash, created_at`, username, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("UpdateUsername: %w", mapError(err))
	}
	return u, nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("UpdatePassword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdatePassword: %w", store.ErrNotFound)
	}
	return nil
}

// InsertResetToken stores a password-reset token.
func (s *Store) InsertResetToken(ctx context.Context, token, userID uuid.UUID, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reset_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("InsertResetToken: %w", err)
	}
	return nil
}

// ConsumeResetToken deletes the token and returns its user. Expired or
// unknown tokens come back as ErrNotFound; a token is single-use either way.
func (s *Store) ConsumeResetToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM reset_tokens WHERE token = $1 RETURNING user_id, expires_at`, token).
		Scan(&userID, &expiresAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ConsumeResetToken: %w", mapError(err))
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, fmt.Errorf("ConsumeResetToken: expired: %w", store.ErrNotFound)
	}
	return userID, nil
}
