package db

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/record/entity"
)

func (s *DB) GetRecordOwnership(ctx context.Context, id int64) (_ *entity.Ownership, err error) {
	ctx, span := s.startSpan(ctx, "GetRecordOwnership")
	defer func() { s.endSpan(span, err) }()

	return s.ownership(ctx, "SELECT patient_id, doctor_id FROM medical_records WHERE id = $1", id)
}

func (s *DB) GetConsultationOwnership(ctx context.Context, id int64) (_ *entity.Ownership, err error) {
	ctx, span := s.startSpan(ctx, "GetConsultationOwnership")
	defer func() { s.endSpan(span, err) }()

	return s.ownership(ctx, "SELECT patient_id, doctor_id FROM consultations WHERE id = $1", id)
}

func (s *DB) ownership(ctx context.Context, query string, id int64) (*entity.Ownership, error) {
	var o entity.Ownership
	if err := s.conn.QueryRow(ctx, query, id).Scan(&o.PatientID, &o.DoctorID); err != nil {
		return nil, s.mapError(err)
	}

	return &o, nil
}
