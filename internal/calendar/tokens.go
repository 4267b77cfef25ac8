package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	queryRefreshToken = `SELECT refresh_token FROM google_accounts WHERE user_id = $1`

	queryUpsertToken = `
		INSERT INTO google_accounts (user_id, refresh_token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET refresh_token = $2, updated_at = $3`

	queryDeleteToken = `DELETE FROM google_accounts WHERE user_id = $1`
)

// PostgresTokenStore keeps per-user Google refresh tokens in the
// portal database.
type PostgresTokenStore struct {
	db *sql.DB
}

// NewPostgresTokenStore wraps an open database handle.
func NewPostgresTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

// RefreshToken returns the stored token for a user, or ErrNotConnected
// when the user never linked a Google account.
func (s *PostgresTokenStore) RefreshToken(ctx context.Context, userID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, queryRefreshToken, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("calendar: load refresh token: %w", err)
	}
	if token == "" {
		return "", ErrNotConnected
	}
	return token, nil
}

// SaveToken stores or replaces a user's refresh token.
func (s *PostgresTokenStore) SaveToken(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("calendar: empty refresh token")
	}
	if _, err := s.db.ExecContext(ctx, queryUpsertToken, userID, refreshToken, time.Now()); err != nil {
		return fmt.Errorf("calendar: save refresh token: %w", err)
	}
	return nil
}

// Unlink removes a user's Google account link. Removing a link that
// does not exist is not an error.
func (s *PostgresTokenStore) Unlink(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteToken, userID); err != nil {
		return fmt.Errorf("calendar: unlink account: %w", err)
	}
	return nil
}
