package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/medicore/internal/auditlog/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	ListLogs(ctx context.Context, f entity.LogFilter) ([]entity.Log, int64, error)
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	cfg       config.Config
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		cfg:       dep.Config,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auditlog.usecase").Start(ctx, name)
}

type ListLogsInput struct {
	ActorID  int64  `validate:"gte=0"`
	Action   string `validate:"max=64"`
	Outcome  string `validate:"omitempty,oneof=success failure unauthorized"`
	DateFrom time.Time
	DateTo   time.Time
	Page     int32
	Size     int32
}

type ListLogsOutput struct {
	Page  int32
	Size  int32
	Total int64
	Logs  []entity.Log
}

// ListLogs pages through the audit trail. Route guards restrict it to admins.
func (s *Usecase) ListLogs(ctx context.Context, in ListLogsInput) (*ListLogsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer span.End()

	if jwt.GetAuth(ctx) == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.DateFrom.IsZero() && !in.DateTo.IsZero() && in.DateFrom.After(in.DateTo) {
		return nil, goerror.NewInvalidInput(nil, "dateFrom", "must be before dateTo")
	}

	maxSize := int32(s.cfg.GetInt("modules.audit.max_page_size"))
	if in.Size <= 0 || in.Size > maxSize {
		in.Size = int32(s.cfg.GetInt("modules.audit.page_size"))
	}
	in.Page = max(in.Page, 1)

	logs, total, err := s.repoDB.ListLogs(ctx, entity.LogFilter{
		ActorID:  in.ActorID,
		Action:   in.Action,
		Outcome:  in.Outcome,
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Limit:    in.Size,
		Offset:   (in.Page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit logs", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListLogsOutput{
		Page:  in.Page,
		Size:  in.Size,
		Total: total,
		Logs:  logs,
	}, nil
}
