package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

// CreateUser inserts the user and its audit entry in one transaction.
func (s *DB) CreateUser(ctx context.Context, u entity.NewUser, entry audit.Entry) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO users
		(id, email, first_name, last_name, role, status, password_hash,
		 public_key, private_key, encryption_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		u.ID,
		u.Email,
		u.FirstName,
		u.LastName,
		u.Role,
		entity.UserStatusActive,
		u.PasswordHash,
		pgtype.Text{String: u.PublicKey, Valid: u.PublicKey != ""},
		pgtype.Text{String: u.PrivateKey, Valid: u.PrivateKey != ""},
		u.EncryptionVersion,
		u.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = audit.Insert(ctx, tx, entry); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// ResetPassword replaces the credential and writes the audit entry atomically.
// The update only applies while oldHash is still current; otherwise it
// returns goerror.ErrNotFound.
func (s *DB) ResetPassword(ctx context.Context, userID int64, oldHash, newHash string, entry audit.Entry) (err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $3, updated_at = $4
		WHERE id = $1 AND password_hash = $2`,
		userID, oldHash, newHash, entry.CreatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if err = audit.Insert(ctx, tx, entry); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
