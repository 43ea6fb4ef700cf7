package auditlog

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/medicore/internal/auditlog/inbound"
	"github.com/shandysiswandi/medicore/internal/auditlog/outbound/db"
	"github.com/shandysiswandi/medicore/internal/auditlog/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Enforcer   router.Enforcer            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Enforcer)

	return nil
}
