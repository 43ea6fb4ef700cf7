package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/medicore/internal/auth/inbound"
	"github.com/shandysiswandi/medicore/internal/auth/outbound/cache"
	"github.com/shandysiswandi/medicore/internal/auth/outbound/db"
	"github.com/shandysiswandi/medicore/internal/auth/outbound/mq"
	"github.com/shandysiswandi/medicore/internal/auth/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goroutine"
	"github.com/shandysiswandi/medicore/internal/pkg/hash"
	"github.com/shandysiswandi/medicore/internal/pkg/idempotency"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/shandysiswandi/medicore/internal/pkg/otp"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   redis.UniversalClient      `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        *hash.HMACSHA256           `validate:"required"`
	Password    *hash.Password             `validate:"required"`
	Cipher      cipher.Cipher              `validate:"required"`
	FieldCrypt  *fieldcrypt.Adapter        `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Totp        otp.OTP                    `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Audit:         audit.NewRecorder(dep.DBConn, dep.Goroutine, dep.UID, dep.Clock),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Password,
		HMAC:          dep.HMAC,
		FieldCrypt:    dep.FieldCrypt,
		Cipher:        dep.Cipher,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	limit := router.RateLimit(dep.Config.GetFloat64("ratelimit.auth.rps"), dep.Config.GetInt("ratelimit.auth.burst"))
	inbound.RegisterHTTPEndpoint(dep.Router, uc, limit)

	return nil
}

// NewRevocationList returns the token denylist the router checks on every
// authenticated request.
func NewRevocationList(client redis.UniversalClient, ins instrument.Instrumentation) router.RevocationChecker {
	return cache.NewCache(client, ins)
}
