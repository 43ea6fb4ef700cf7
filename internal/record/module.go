package record

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goroutine"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/record/inbound"
	"github.com/shandysiswandi/medicore/internal/record/outbound/db"
	"github.com/shandysiswandi/medicore/internal/record/usecase"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Enforcer   router.Enforcer            `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	FieldCrypt *fieldcrypt.Adapter        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	softFail := dep.Config.GetBool("modules.record.decrypt_soft_fail")

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.FieldCrypt, softFail, dep.Instrument),
		Audit:      audit.NewRecorder(dep.DBConn, dep.Goroutine, dep.UID, dep.Clock),
		Storage:    dep.Storage,
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Enforcer)

	return nil
}
