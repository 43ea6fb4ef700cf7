package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/record/entity"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type Attachment struct {
	Key string
	URL string
}

type Consultation struct {
	ID          int64
	PatientID   int64
	DoctorID    int64
	Notes       string
	Attachments []Attachment
	CreatedAt   time.Time
}

type CreateConsultationInput struct {
	PatientID   int64    `validate:"required,gt=0"`
	Notes       string   `validate:"required,max=20000"`
	Attachments []string `validate:"max=20,dive,required,max=512"`
	Origin      audit.Origin
}

// CreateConsultation stores a consultation. Attachments are keys of objects
// already uploaded to the attachments bucket; each must exist.
func (s *Usecase) CreateConsultation(ctx context.Context, in CreateConsultationInput) (*Consultation, error) {
	ctx, span := s.startSpan(ctx, "CreateConsultation")
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

	keys, err := s.checkAttachments(ctx, in.Attachments)
	if err != nil {
		return nil, err
	}

	c := entity.Consultation{
		ID:          s.uid.Generate(),
		PatientID:   in.PatientID,
		DoctorID:    clm.UserID,
		Notes:       in.Notes,
		Attachments: keys,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repoDB.CreateConsultation(ctx, c); err != nil {
		slog.ErrorContext(ctx, "failed to repo create consultation", "patient_id", in.PatientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.recordAccess(ctx, clm, in.Origin, audit.ActionCreate, audit.ResourceConsultation, c.ID, audit.OutcomeSuccess)

	return s.toConsultation(ctx, c)
}

type GetConsultationInput struct {
	ID     int64 `validate:"required,gt=0"`
	Origin audit.Origin
}

func (s *Usecase) GetConsultation(ctx context.Context, in GetConsultationInput) (*Consultation, error) {
	ctx, span := s.startSpan(ctx, "GetConsultation")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	owner, err := s.repoDB.GetConsultationOwnership(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "consultation not found", "consultation_id", in.ID)
		return nil, errConsultationNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get consultation ownership", "consultation_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !canRead(clm, owner.PatientID, owner.DoctorID) {
		slog.WarnContext(ctx, "consultation access denied", "consultation_id", in.ID, "user_id", clm.UserID)
		s.recordAccess(ctx, clm, in.Origin, audit.ActionRead, audit.ResourceConsultation, in.ID, audit.OutcomeUnauthorized)
		return nil, errForbidden
	}

	c, err := s.repoDB.GetConsultationByID(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "consultation removed during read", "consultation_id", in.ID)
		return nil, errConsultationNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get consultation", "consultation_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.recordAccess(ctx, clm, in.Origin, audit.ActionRead, audit.ResourceConsultation, c.ID, audit.OutcomeSuccess)

	return s.toConsultation(ctx, *c)
}

func (s *Usecase) bucket() string {
	return s.cfg.GetString("modules.record.attachments_bucket")
}

func (s *Usecase) checkAttachments(ctx context.Context, raw []string) ([]string, error) {
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		key, err := storage.CleanKey(k)
		if err != nil {
			return nil, goerror.NewInvalidInput(nil, "attachments", "contains an invalid object key")
		}

		_, err = s.storage.StatObject(ctx, s.bucket(), key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, goerror.NewInvalidInput(nil, "attachments", "object "+key+" does not exist")
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to stat attachment", "key", key, "error", err)
			return nil, goerror.NewServer(err)
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (s *Usecase) toConsultation(ctx context.Context, c entity.Consultation) (*Consultation, error) {
	ttl := s.presignTTL()

	attachments := make([]Attachment, 0, len(c.Attachments))
	for _, key := range c.Attachments {
		url, err := s.storage.PresignGet(ctx, s.bucket(), key, ttl)
		if err != nil {
			slog.ErrorContext(ctx, "failed to presign attachment", "consultation_id", c.ID, "key", key, "error", err)
			return nil, goerror.NewServer(err)
		}
		attachments = append(attachments, Attachment{Key: key, URL: url})
	}

	return &Consultation{
		ID:          c.ID,
		PatientID:   c.PatientID,
		DoctorID:    c.DoctorID,
		Notes:       c.Notes,
		Attachments: attachments,
		CreatedAt:   c.CreatedAt,
	}, nil
}
