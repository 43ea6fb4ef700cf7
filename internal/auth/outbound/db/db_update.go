package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
)

// UpdatePasswordHash swaps the stored hash for an equivalent one, used when
// the hashing parameters changed since the user last signed in.
func (s *DB) UpdatePasswordHash(ctx context.Context, userID int64, oldHash, newHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePasswordHash")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE users SET password_hash = $3 WHERE id = $1 AND password_hash = $2`,
		userID, oldHash, newHash)
	return s.mapError(err)
}

// EnableTwoFactor stores the secret and flips the flag in one statement.
// It fails with goerror.ErrConflict when 2FA is already enabled.
func (s *DB) EnableTwoFactor(ctx context.Context, userID int64, secret string, keyVersion int, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "EnableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users
		SET two_factor_enabled = TRUE, two_factor_secret = $2, two_factor_key_version = $3, updated_at = $4
		WHERE id = $1 AND two_factor_enabled = FALSE`,
		userID, secret, keyVersion, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}
	return nil
}

// DisableTwoFactor clears the secret. It fails with goerror.ErrNotFound when
// 2FA was not enabled.
func (s *DB) DisableTwoFactor(ctx context.Context, userID int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "DisableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users
		SET two_factor_enabled = FALSE, two_factor_secret = NULL, updated_at = $2
		WHERE id = $1 AND two_factor_enabled = TRUE`,
		userID, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
