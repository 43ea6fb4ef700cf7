package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/medicore/internal/record/entity"
)

func (s *DB) CreateConsultation(ctx context.Context, c entity.Consultation) (err error) {
	ctx, span := s.startSpan(ctx, "CreateConsultation")
	defer func() { s.endSpan(span, err) }()

	notes, err := s.crypt.EncryptString(c.Notes)
	if err != nil {
		return err
	}

	attachments, err := s.crypt.EncryptJSON(c.Attachments)
	if err != nil {
		return err
	}

	query := `INSERT INTO consultations
		(id, patient_id, doctor_id, notes, attachments, encryption_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.conn.Exec(ctx, query,
		c.ID,
		c.PatientID,
		c.DoctorID,
		notes,
		attachments,
		s.crypt.Version(),
		c.CreatedAt,
	)

	return s.mapError(err)
}

func (s *DB) GetConsultationByID(ctx context.Context, id int64) (_ *entity.Consultation, err error) {
	ctx, span := s.startSpan(ctx, "GetConsultationByID")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT id, patient_id, doctor_id, notes, attachments, encryption_version, created_at
		FROM consultations WHERE id = $1`

	c, err := s.scanConsultation(ctx, s.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return c, nil
}

func (s *DB) scanConsultation(ctx context.Context, row pgx.Row) (*entity.Consultation, error) {
	var (
		c           entity.Consultation
		notes       string
		attachments string
	)

	if err := row.Scan(
		&c.ID,
		&c.PatientID,
		&c.DoctorID,
		&notes,
		&attachments,
		&c.EncryptionVersion,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	c.Notes, err = s.crypt.DecryptString(ctx, notes, c.EncryptionVersion, s.readOptions("consultations.notes")...)
	if err != nil {
		return nil, err
	}

	if err := s.crypt.DecryptJSON(ctx, attachments, c.EncryptionVersion, &c.Attachments, s.readOptions("consultations.attachments")...); err != nil {
		return nil, err
	}
	if c.Attachments == nil {
		c.Attachments = []string{}
	}

	return &c, nil
}
