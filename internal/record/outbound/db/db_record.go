package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/medicore/internal/record/entity"
)

const selectRecord = `SELECT id, patient_id, doctor_id, record_type, title, content, encryption_version, created_at
	FROM medical_records`

func (s *DB) CreateRecord(ctx context.Context, rec entity.MedicalRecord) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRecord")
	defer func() { s.endSpan(span, err) }()

	content, err := s.crypt.EncryptJSON(rec.Content)
	if err != nil {
		return err
	}

	query := `INSERT INTO medical_records
		(id, patient_id, doctor_id, record_type, title, content, encryption_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.conn.Exec(ctx, query,
		rec.ID,
		rec.PatientID,
		rec.DoctorID,
		rec.RecordType,
		rec.Title,
		content,
		s.crypt.Version(),
		rec.CreatedAt,
	)

	return s.mapError(err)
}

func (s *DB) GetRecordByID(ctx context.Context, id int64) (_ *entity.MedicalRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetRecordByID")
	defer func() { s.endSpan(span, err) }()

	rec, err := s.scanRecord(ctx, s.conn.QueryRow(ctx, selectRecord+" WHERE id = $1", id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}

// ListRecordsByPatient returns the patient's records, newest first. A non-zero
// doctorID keeps only the records that doctor wrote.
func (s *DB) ListRecordsByPatient(ctx context.Context, patientID, doctorID int64) (_ []entity.MedicalRecord, err error) {
	ctx, span := s.startSpan(ctx, "ListRecordsByPatient")
	defer func() { s.endSpan(span, err) }()

	query := selectRecord + ` WHERE patient_id = $1 AND ($2::BIGINT = 0 OR doctor_id = $2)
		ORDER BY created_at DESC, id DESC`

	rows, err := s.conn.Query(ctx, query, patientID, doctorID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	records := make([]entity.MedicalRecord, 0)
	for rows.Next() {
		rec, err := s.scanRecord(ctx, rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

func (s *DB) scanRecord(ctx context.Context, row pgx.Row) (*entity.MedicalRecord, error) {
	var (
		rec     entity.MedicalRecord
		content string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.PatientID,
		&rec.DoctorID,
		&rec.RecordType,
		&rec.Title,
		&content,
		&rec.EncryptionVersion,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := s.crypt.DecryptJSON(ctx, content, rec.EncryptionVersion, &rec.Content, s.readOptions("medical_records.content")...); err != nil {
		return nil, err
	}

	return &rec, nil
}
