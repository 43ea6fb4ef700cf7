package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/record/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recordColumns       = []string{"id", "patient_id", "doctor_id", "record_type", "title", "content", "encryption_version", "created_at"}
	consultationColumns = []string{"id", "patient_id", "doctor_id", "notes", "attachments", "encryption_version", "created_at"}
	createdAt           = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
)

func newCrypt(t *testing.T) *fieldcrypt.Adapter {
	t.Helper()
	ring, err := cipher.NewKeyring(1, map[int][]byte{1: bytes.Repeat([]byte{3}, 32)})
	require.NoError(t, err)
	return fieldcrypt.New(cipher.NewAESGCM(ring))
}

func newMock(t *testing.T, softFail bool) (pgxmock.PgxPoolIface, *DB, *fieldcrypt.Adapter) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	crypt := newCrypt(t)
	return mock, NewDB(mock, crypt, softFail, instrument.NewNoop()), crypt
}

func TestDB_CreateRecord(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectExec("INSERT INTO medical_records").
		WithArgs(int64(1), int64(10), int64(20), "diagnosis", "Checkup", pgxmock.AnyArg(), 1, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.CreateRecord(context.Background(), entity.MedicalRecord{
		ID:         1,
		PatientID:  10,
		DoctorID:   20,
		RecordType: "diagnosis",
		Title:      "Checkup",
		Content:    map[string]any{"diagnosis": "flu"},
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_CreateRecord_Conflict(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectExec("INSERT INTO medical_records").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := db.CreateRecord(context.Background(), entity.MedicalRecord{ID: 1, Content: map[string]any{"a": 1}})
	assert.ErrorIs(t, err, goerror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetRecordByID_DecryptsContent(t *testing.T) {
	mock, db, crypt := newMock(t, false)

	sealed, err := crypt.EncryptJSON(map[string]any{"diagnosis": "flu"})
	require.NoError(t, err)

	mock.ExpectQuery("FROM medical_records WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(recordColumns).
			AddRow(int64(1), int64(10), int64(20), "diagnosis", "Checkup", sealed, 1, createdAt))

	rec, err := db.GetRecordByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "flu", rec.Content["diagnosis"])
	assert.Equal(t, 1, rec.EncryptionVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetRecordByID_NotFound(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectQuery("FROM medical_records WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err := db.GetRecordByID(context.Background(), 7)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_GetRecordByID_TruncatedCiphertext(t *testing.T) {
	sealed, err := newCrypt(t).EncryptJSON(map[string]any{"diagnosis": "flu"})
	require.NoError(t, err)
	truncated := sealed[:len(sealed)/2]

	t.Run("strict", func(t *testing.T) {
		mock, db, _ := newMock(t, false)
		mock.ExpectQuery("FROM medical_records").
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(recordColumns).
				AddRow(int64(1), int64(10), int64(20), "note", "t", truncated, 1, createdAt))

		_, err := db.GetRecordByID(context.Background(), 1)
		assert.ErrorIs(t, err, cipher.ErrDecryption)
	})

	t.Run("soft fail", func(t *testing.T) {
		mock, db, _ := newMock(t, true)
		mock.ExpectQuery("FROM medical_records").
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(recordColumns).
				AddRow(int64(1), int64(10), int64(20), "note", "t", truncated, 1, createdAt))

		rec, err := db.GetRecordByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Empty(t, rec.Content)
	})
}

func TestDB_ListRecordsByPatient(t *testing.T) {
	mock, db, crypt := newMock(t, false)

	a, err := crypt.EncryptJSON(map[string]any{"n": "a"})
	require.NoError(t, err)
	b, err := crypt.EncryptJSON(map[string]any{"n": "b"})
	require.NoError(t, err)

	mock.ExpectQuery("WHERE patient_id = \\$1").
		WithArgs(int64(10), int64(20)).
		WillReturnRows(pgxmock.NewRows(recordColumns).
			AddRow(int64(2), int64(10), int64(20), "note", "second", b, 1, createdAt.Add(time.Hour)).
			AddRow(int64(1), int64(10), int64(20), "note", "first", a, 1, createdAt))

	records, err := db.ListRecordsByPatient(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Content["n"])
	assert.Equal(t, "a", records[1].Content["n"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_ListRecordsByPatient_QueryError(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectQuery("WHERE patient_id = \\$1").
		WithArgs(int64(10), int64(0)).
		WillReturnError(errors.New("connection reset"))

	_, err := db.ListRecordsByPatient(context.Background(), 10, 0)
	assert.EqualError(t, err, "connection reset")
}

func TestDB_Consultation(t *testing.T) {
	mock, db, crypt := newMock(t, false)

	mock.ExpectExec("INSERT INTO consultations").
		WithArgs(int64(5), int64(10), int64(20), pgxmock.AnyArg(), pgxmock.AnyArg(), 1, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, db.CreateConsultation(context.Background(), entity.Consultation{
		ID:          5,
		PatientID:   10,
		DoctorID:    20,
		Notes:       "rest",
		Attachments: []string{"scan.png"},
		CreatedAt:   createdAt,
	}))

	notes, err := crypt.EncryptString("rest")
	require.NoError(t, err)
	attachments, err := crypt.EncryptJSON(nil)
	require.NoError(t, err)

	mock.ExpectQuery("FROM consultations WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(consultationColumns).
			AddRow(int64(5), int64(10), int64(20), notes, attachments, 1, createdAt))

	c, err := db.GetConsultationByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "rest", c.Notes)
	assert.Equal(t, []string{}, c.Attachments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Ownership(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectQuery("SELECT patient_id, doctor_id FROM medical_records WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"patient_id", "doctor_id"}).AddRow(int64(10), int64(20)))
	mock.ExpectQuery("SELECT patient_id, doctor_id FROM consultations WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)

	o, err := db.GetRecordOwnership(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.Ownership{PatientID: 10, DoctorID: 20}, *o)

	_, err = db.GetConsultationOwnership(context.Background(), 5)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetParty(t *testing.T) {
	mock, db, _ := newMock(t, false)

	mock.ExpectQuery("SELECT id, role FROM users").
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "role"}).AddRow(int64(10), "patient"))
	mock.ExpectQuery("SELECT id, role FROM users").
		WithArgs(int64(11)).
		WillReturnError(pgx.ErrNoRows)

	p, err := db.GetParty(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "patient", p.Role)

	_, err = db.GetParty(context.Background(), 11)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
