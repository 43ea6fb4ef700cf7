package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goroutine"
	"github.com/shandysiswandi/medicore/internal/pkg/hash"
	"github.com/shandysiswandi/medicore/internal/pkg/idempotency"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/mail"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/shandysiswandi/medicore/internal/pkg/otp"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns every long-lived dependency of the service. Fields are filled by
// the init steps in New and released by Stop.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	uid        uid.NumberID
	uuid       uid.StringID
	hmac       *hash.HMACSHA256
	password   *hash.Password
	totp       otp.OTP
	jwt        jwt.JWT
	cipher     cipher.Cipher
	fieldCrypt *fieldcrypt.Adapter
	enforcer   *casbin.Enforcer

	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	storage   storage.Storage
	messaging messaging.Messaging

	router     *router.Router
	httpServer *http.Server
	closers    []closer
}

// New builds the App from the file named by CONFIG_PATH. Any failing step
// logs and exits; there is nothing useful to serve half-wired.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	for _, step := range []func(){
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initCipher,
		a.initJWT,
		a.initDatabase,
		a.initCache,
		a.initMail,
		a.initStorage,
		a.initMessaging,
		a.initEnforcer,
		a.initHTTPServer,
		a.initModules,
		a.initClosers,
	} {
		step()
	}

	return a
}
