package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/record/entity"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetParty(ctx context.Context, id int64) (*entity.Party, error)

	CreateRecord(ctx context.Context, rec entity.MedicalRecord) error
	GetRecordOwnership(ctx context.Context, id int64) (*entity.Ownership, error)
	GetRecordByID(ctx context.Context, id int64) (*entity.MedicalRecord, error)
	ListRecordsByPatient(ctx context.Context, patientID, doctorID int64) ([]entity.MedicalRecord, error)

	CreateConsultation(ctx context.Context, c entity.Consultation) error
	GetConsultationOwnership(ctx context.Context, id int64) (*entity.Ownership, error)
	GetConsultationByID(ctx context.Context, id int64) (*entity.Consultation, error)
}

type auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Usecase struct {
	repoDB    repoDB
	audit     auditor
	storage   storage.Storage
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Audit      auditor
	Storage    storage.Storage
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		audit:     dep.Audit,
		storage:   dep.Storage,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("record.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// canRead applies ownership: patients see their own rows, doctors see rows
// they wrote, admins see everything.
func canRead(clm *jwt.Claims, patientID, doctorID int64) bool {
	switch clm.Role {
	case rbac.RoleAdmin:
		return true
	case rbac.RoleDoctor:
		return doctorID == clm.UserID || patientID == clm.UserID
	case rbac.RolePatient:
		return patientID == clm.UserID
	default:
		return false
	}
}

func (s *Usecase) recordAccess(ctx context.Context, clm *jwt.Claims, origin audit.Origin, action, resource string, id int64, outcome audit.Outcome) {
	entry := audit.Entry{
		ActorID:      audit.Actor(clm.UserID),
		Action:       action,
		ResourceType: resource,
		Origin:       origin,
		Outcome:      outcome,
	}
	if id != 0 {
		entry.ResourceID = strconv.FormatInt(id, 10)
	}
	s.audit.Record(ctx, entry)
}

// checkPatient checks that id names an existing patient account.
func (s *Usecase) checkPatient(ctx context.Context, id int64) error {
	party, err := s.repoDB.GetParty(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "patient not found", "patient_id", id)
		return goerror.NewBusiness("Patient not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get patient", "patient_id", id, "error", err)
		return goerror.NewServer(err)
	}
	if party.Role != rbac.RolePatient {
		return goerror.NewInvalidInput(nil, "patient_id", "must reference a patient account")
	}
	return nil
}

var (
	errForbidden            = goerror.NewBusiness("Access denied", goerror.CodeForbidden)
	errRecordNotFound       = goerror.NewBusiness("Medical record not found", goerror.CodeNotFound)
	errConsultationNotFound = goerror.NewBusiness("Consultation not found", goerror.CodeNotFound)
)

func (s *Usecase) presignTTL() time.Duration {
	if ttl := s.cfg.GetMinute("storage.presign_ttl"); ttl > 0 {
		return ttl
	}
	return 15 * time.Minute
}
