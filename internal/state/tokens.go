package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RevokeToken records a token id as revoked until expiresAt.
// Revoking the same id twice is not an error.
func (s *SQLStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.exec(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at) VALUES (?, ?) ON CONFLICT (token_id) DO NOTHING`,
		tokenID, toUnix(expiresAt))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether tokenID has been revoked.
func (s *SQLStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var one int
	err := s.queryRow(ctx, `SELECT 1 FROM revoked_tokens WHERE token_id = ?`, tokenID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return true, nil
}

// PurgeExpiredTokens deletes revocations whose tokens have expired anyway.
func (s *SQLStore) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, toUnix(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return res.RowsAffected()
}
