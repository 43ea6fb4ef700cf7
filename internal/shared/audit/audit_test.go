package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/goroutine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return s.n
}

func TestInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	actor := int64(42)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(int64(7), &actor, ActionLogin, ResourceUser, pgtype.Text{String: "42", Valid: true},
			"10.0.0.1", "curl/8", "success", []byte(`{"method":"password"}`), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = Insert(context.Background(), mock, Entry{
		ID:           7,
		ActorID:      Actor(42),
		Action:       ActionLogin,
		ResourceType: ResourceUser,
		ResourceID:   "42",
		Origin:       Origin{IP: "10.0.0.1", UserAgent: "curl/8"},
		Outcome:      OutcomeSuccess,
		Details:      map[string]any{"method": "password"},
		CreatedAt:    at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NullableColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var noActor *int64
	var noDetails []byte
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(int64(1), noActor, ActionLogin, ResourceUser, pgtype.Text{},
			"", "", "unauthorized", noDetails, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = Insert(context.Background(), mock, Entry{
		ID:           1,
		ActorID:      Actor(0),
		Action:       ActionLogin,
		ResourceType: ResourceUser,
		Outcome:      OutcomeUnauthorized,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_RecordSwallowsFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(int64(1), pgxmock.AnyArg(), ActionLogout, ResourceUser, pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), "success", pgxmock.AnyArg(), at).
		WillReturnError(errors.New("connection reset"))

	gm := goroutine.NewManager(2)
	rec := NewRecorder(mock, gm, &seqID{}, clock.NewFixed(at))

	ctx, cancel := context.WithCancel(context.Background())
	rec.Record(ctx, Entry{Action: ActionLogout, ResourceType: ResourceUser, Outcome: OutcomeSuccess})
	cancel()

	assert.NoError(t, gm.Wait())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_Stamp(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecorder(nil, nil, &seqID{n: 9}, clock.NewFixed(at))

	e := rec.Stamp(Entry{})
	assert.Equal(t, int64(10), e.ID)
	assert.Equal(t, at, e.CreatedAt)

	kept := rec.Stamp(Entry{ID: 3, CreatedAt: at.Add(time.Hour)})
	assert.Equal(t, int64(3), kept.ID)
	assert.Equal(t, at.Add(time.Hour), kept.CreatedAt)
}
