package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/medicore/internal/auth/entity"
)

const selectUser = `SELECT id, email, first_name, last_name, role, status, password_hash,
	two_factor_enabled, COALESCE(two_factor_secret, ''), two_factor_key_version,
	COALESCE(public_key, ''), COALESCE(private_key, ''), encryption_version,
	created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.Status,
		&u.PasswordHash,
		&u.TwoFactorEnabled,
		&u.TwoFactorSecret,
		&u.TwoFactorKeyVersion,
		&u.PublicKey,
		&u.PrivateKey,
		&u.EncryptionVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, selectUser+" WHERE email = $1", email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, selectUser+" WHERE id = $1", id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}
