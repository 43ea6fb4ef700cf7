package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB persists records and consultations. Sensitive columns are sealed with
// the field adapter on the way in and opened on the way out; nothing above
// this package sees ciphertext.
type DB struct {
	conn     pgxConn
	crypt    *fieldcrypt.Adapter
	softFail bool
	ins      instrument.Instrumentation
}

// NewDB builds the repository. With softFail, unreadable legacy ciphertext
// yields an empty value and a warning instead of an error.
func NewDB(conn pgxConn, crypt *fieldcrypt.Adapter, softFail bool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, crypt: crypt, softFail: softFail, ins: ins}
}

func (s *DB) readOptions(field string) []fieldcrypt.ReadOption {
	opts := []fieldcrypt.ReadOption{fieldcrypt.WithField(field)}
	if s.softFail {
		opts = append(opts, fieldcrypt.WithSoftFail())
	}
	return opts
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("record.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
