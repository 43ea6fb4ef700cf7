package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/record/entity"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type Record struct {
	ID         int64
	PatientID  int64
	DoctorID   int64
	RecordType string
	Title      string
	Content    map[string]any
	CreatedAt  time.Time
}

func toRecord(r entity.MedicalRecord) Record {
	return Record{
		ID:         r.ID,
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		RecordType: r.RecordType,
		Title:      r.Title,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}

type CreateRecordInput struct {
	PatientID  int64          `validate:"required,gt=0"`
	RecordType string         `validate:"required,oneof=diagnosis lab_result prescription imaging note"`
	Title      string         `validate:"required,max=200"`
	Content    map[string]any `validate:"required,min=1"`
	Origin     audit.Origin
}

func (s *Usecase) CreateRecord(ctx context.Context, in CreateRecordInput) (*Record, error) {
	ctx, span := s.startSpan(ctx, "CreateRecord")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.checkPatient(ctx, in.PatientID); err != nil {
		return nil, err
	}

	rec := entity.MedicalRecord{
		ID:         s.uid.Generate(),
		PatientID:  in.PatientID,
		DoctorID:   clm.UserID,
		RecordType: in.RecordType,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repoDB.CreateRecord(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo create record", "patient_id", in.PatientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.recordAccess(ctx, clm, in.Origin, audit.ActionCreate, audit.ResourceRecord, rec.ID, audit.OutcomeSuccess)

	out := toRecord(rec)
	return &out, nil
}

type GetRecordInput struct {
	ID     int64 `validate:"required,gt=0"`
	Origin audit.Origin
}

func (s *Usecase) GetRecord(ctx context.Context, in GetRecordInput) (*Record, error) {
	ctx, span := s.startSpan(ctx, "GetRecord")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	owner, err := s.repoDB.GetRecordOwnership(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "medical record not found", "record_id", in.ID)
		return nil, errRecordNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get record ownership", "record_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !canRead(clm, owner.PatientID, owner.DoctorID) {
		slog.WarnContext(ctx, "medical record access denied", "record_id", in.ID, "user_id", clm.UserID)
		s.recordAccess(ctx, clm, in.Origin, audit.ActionRead, audit.ResourceRecord, in.ID, audit.OutcomeUnauthorized)
		return nil, errForbidden
	}

	rec, err := s.repoDB.GetRecordByID(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "medical record removed during read", "record_id", in.ID)
		return nil, errRecordNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get record", "record_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.recordAccess(ctx, clm, in.Origin, audit.ActionRead, audit.ResourceRecord, rec.ID, audit.OutcomeSuccess)

	out := toRecord(*rec)
	return &out, nil
}

type ListPatientRecordsInput struct {
	PatientID int64 `validate:"required,gt=0"`
	Origin    audit.Origin
}

// ListPatientRecords lists a patient's records. Doctors only get the records
// they wrote themselves.
func (s *Usecase) ListPatientRecords(ctx context.Context, in ListPatientRecordsInput) ([]Record, error) {
	ctx, span := s.startSpan(ctx, "ListPatientRecords")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var doctorFilter int64
	switch clm.Role {
	case rbac.RoleAdmin:
	case rbac.RoleDoctor:
		if in.PatientID != clm.UserID {
			doctorFilter = clm.UserID
		}
	case rbac.RolePatient:
		if in.PatientID != clm.UserID {
			slog.WarnContext(ctx, "patient listed another patient's records", "user_id", clm.UserID, "patient_id", in.PatientID)
			s.recordAccess(ctx, clm, in.Origin, audit.ActionRead, audit.ResourceRecord, 0, audit.OutcomeUnauthorized)
			return nil, errForbidden
		}
	default:
		return nil, errForbidden
	}

	records, err := s.repoDB.ListRecordsByPatient(ctx, in.PatientID, doctorFilter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list records", "patient_id", in.PatientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      audit.Actor(clm.UserID),
		Action:       audit.ActionRead,
		ResourceType: audit.ResourceRecord,
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
		Details: map[string]any{
			"patient_id": in.PatientID,
			"record_ids": lo.Map(records, func(r entity.MedicalRecord, _ int) int64 { return r.ID }),
		},
	})

	return lo.Map(records, func(r entity.MedicalRecord, _ int) Record { return toRecord(r) }), nil
}
