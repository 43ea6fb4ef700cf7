package app

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/medicore/internal/auth"
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
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	cfg.OnChange(func() {
		instrument.SetLogLevel(cfg.GetString("log.level"))
		slog.Info("config reloaded", "maintenance", cfg.GetBool("app.maintenance"))
	})

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("telemetry.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("telemetry.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("telemetry.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("telemetry.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("telemetry.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("telemetry.metric_interval"),
		MaskFields:       a.config.GetArray("log.mask_fields"),
		LogLevel:         a.config.GetString("log.level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("goroutine.max"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac_secret"))

	password, err := hash.NewPassword(
		a.config.GetString("hash.algorithm"),
		a.config.GetInt("hash.bcrypt_cost"),
		a.config.GetString("hash.pepper"),
	)
	if err != nil {
		slog.Error("failed to init password hasher", "error", err)
		os.Exit(1)
	}
	a.password = password

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("snowflake.node"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("totp.issuer"),
		a.config.GetUint("totp.period"),
		a.config.GetUint("totp.skew"),
		libOTP.DigitsSix,
	)
}

// initCipher builds the keyring from cipher.key (current) and
// cipher.retired_keys ("version:base64,..."). All keys are 32 byte AES keys.
func (a *App) initCipher() {
	current := a.config.GetInt("cipher.key_version")
	keys := map[int][]byte{current: a.config.GetBinary("cipher.key")}

	for v, raw := range a.config.GetMap("cipher.retired_keys") {
		version, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid retired cipher key version", "version", v, "error", err)
			os.Exit(1)
		}
		if version == current {
			continue
		}
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			slog.Error("failed to decode retired cipher key", "version", version, "error", err)
			os.Exit(1)
		}
		keys[version] = key
	}

	keyring, err := cipher.NewKeyring(current, keys)
	if err != nil {
		slog.Error("failed to init cipher keyring", "error", err)
		os.Exit(1)
	}

	var opts []cipher.Option
	if bits := a.config.GetInt("cipher.rsa_bits"); bits > 0 {
		opts = append(opts, cipher.WithRSABits(bits))
	}

	a.cipher = cipher.NewAESGCM(keyring, opts...)
	a.fieldCrypt = fieldcrypt.New(a.cipher)
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		AccessSecret:  a.config.GetBinary("jwt.access_secret"),
		RefreshSecret: a.config.GetBinary("jwt.refresh_secret"),
		PurposeSecret: a.config.GetBinary("jwt.purpose_secret"),
		Issuer:        a.config.GetString("jwt.issuer"),
		Audiences:     a.config.GetArray("jwt.audiences"),
		AccessTTL:     a.config.GetMinute("jwt.access_ttl"),
		RefreshTTL:    a.config.GetDay("jwt.refresh_ttl"),
		Clock:         a.clock,
		UUID:          a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

// startupBackoff covers dependencies that are still booting next to us.
func startupBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxDuration(15*time.Second, b)
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if v := a.config.GetInt("database.pool.max_conns"); v > 0 {
		config.MaxConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetInt("database.pool.min_conns"); v > 0 {
		config.MinConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime"); v > 0 {
		config.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle"); v > 0 {
		config.MaxConnIdleTime = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := retry.Do(a.ctx, startupBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := retry.Do(a.ctx, startupBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initMail() {
	var next mail.Mail = mail.Log{}

	if host := strings.TrimSpace(a.config.GetString("mail.host")); host != "" {
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     host,
			Port:     a.config.GetInt("mail.port"),
			Username: a.config.GetString("mail.username"),
			Password: a.config.GetString("mail.password"),
			From:     a.config.GetString("modules.notification.mail_from"),
		})
		if err != nil {
			slog.Error("failed to init mail", "error", err)
			os.Exit(1)
		}
		next = smtp
	} else {
		slog.Warn("mail.host is empty, e-mails are written to the log")
	}

	a.mail = mail.NewBreaker(next, mail.BreakerConfig{
		Failures: uint32(a.config.GetUint("mail.breaker.failures")), //nolint:gosec // bounded by config
		Timeout:  a.config.GetSecond("mail.breaker.timeout"),
	})
}

//nolint:gocognit // it's fine
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		gcsOptions := []option.ClientOption{}
		if a.config.GetBool("storage.gcs.without_auth") {
			gcsOptions = append(gcsOptions, option.WithoutAuthentication())
		}
		if v := a.config.GetBinary("storage.gcs.credentials_json"); len(v) > 0 {
			creds, err := google.CredentialsFromJSON(a.ctx, v, gcs.ScopeFullControl)
			if err != nil {
				slog.Error("failed to parse gcs credentials json", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
			gcsOptions = append(gcsOptions, option.WithEndpoint(v))
		}
		if len(gcsOptions) > 0 {
			client, err := gcs.NewClient(a.ctx, gcsOptions...)
			if err != nil {
				slog.Error("failed to init gcs client", "error", err)
				os.Exit(1)
			}
			gcsClient = client
		}
	}

	stg, err := storage.Open(a.ctx, storage.Options{
		Driver: driver,
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client:         gcsClient,
			GoogleAccessID: strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))

	var pubsubOptions []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubsubOptions = append(pubsubOptions, option.WithEndpoint(v), option.WithoutAuthentication())
	}

	client, err := messaging.Open(a.ctx, messaging.Options{
		Driver: driver,
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:  a.config.GetArray("messaging.kafka.brokers"),
			ClientID: a.config.GetString("app.name"),
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("app.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initEnforcer() {
	e, err := rbac.NewEnforcer(rbac.DefaultPolicies)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	a.enforcer = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Revocation: auth.NewRevocationList(a.cacheConn, a.ins),
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("server.cors.origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", router.HeaderCorrelationID, router.HeaderRequestID},
		ExposedHeaders:   []string{router.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.read_timeout"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.config.GetSecond("server.write_timeout"),
		IdleTimeout:       60 * time.Second,
	}
}

func (a *App) initClosers() {
	ignoreCtx := func(fn func() error) func(context.Context) error {
		return func(context.Context) error { return fn() }
	}

	a.closers = []closer{
		{"messaging", ignoreCtx(a.messaging.Close)},
		{"storage", ignoreCtx(a.storage.Close)},
		{"mail", ignoreCtx(a.mail.Close)},
		{"redis", ignoreCtx(a.cacheConn.Close)},
		{"postgres", func(context.Context) error { a.dbConn.Close(); return nil }},
		{"instrument", a.ins.Shutdown},
		{"config", ignoreCtx(a.config.Close)},
	}
}
