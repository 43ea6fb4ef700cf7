package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/idempotency"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/otp"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"github.com/shandysiswandi/medicore/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)

	CreateUser(ctx context.Context, u entity.NewUser, entry audit.Entry) error
	ResetPassword(ctx context.Context, userID int64, oldHash, newHash string, entry audit.Entry) error

	UpdatePasswordHash(ctx context.Context, userID int64, oldHash, newHash string) error
	EnableTwoFactor(ctx context.Context, userID int64, secret string, keyVersion int, at time.Time) error
	DisableTwoFactor(ctx context.Context, userID int64, at time.Time) error
}

type repoCache interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg event.UserRegisteredMessage) error
	PublishPasswordResetRequested(ctx context.Context, msg event.PasswordResetRequestedMessage) error
}

type auditor interface {
	Stamp(e audit.Entry) audit.Entry
	Record(ctx context.Context, e audit.Entry)
}

type passwordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) (bool, error)
	NeedsRehash(hashed string) bool
}

type fingerprinter interface {
	Sum(value string) string
	Equal(fingerprint, value string) bool
}

type fieldCrypter interface {
	Version() int
	EncryptString(s string) (string, error)
	DecryptString(ctx context.Context, text string, version int, opts ...fieldcrypt.ReadOption) (string, error)
}

type detacher interface {
	Detached(ctx context.Context, name string, f func(ctx context.Context) error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	audit         auditor
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	password      passwordHasher
	hmac          fingerprinter
	fieldcrypt    fieldCrypter
	cipher        cipher.Cipher
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     detacher

	dummyOnce sync.Once
	dummyHash string
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Audit         auditor
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Password      passwordHasher
	HMAC          fingerprinter
	FieldCrypt    fieldCrypter
	Cipher        cipher.Cipher
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     detacher
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		audit:         dep.Audit,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		hmac:          dep.HMAC,
		fieldcrypt:    dep.FieldCrypt,
		cipher:        dep.Cipher,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

// User is the public view of an account.
type User struct {
	ID               int64
	Email            string
	FirstName        string
	LastName         string
	Role             string
	TwoFactorEnabled bool
	PublicKey        string
	CreatedAt        time.Time
}

// Session is an issued token pair together with its owner.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func toUser(u *entity.User) User {
	return User{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		PublicKey:        u.PublicKey,
		CreatedAt:        u.CreatedAt,
	}
}

func subjectOf(u *entity.User) jwt.Subject {
	return jwt.Subject{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, u *entity.User) error {
	switch u.Status.Ensure() {
	case entity.UserStatusActive:
		return nil
	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", u.ID)
		return goerror.NewBusiness("Account is banned", goerror.CodeForbidden)
	default:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", u.ID)
		return goerror.NewBusiness("Account status is unrecognized", goerror.CodeForbidden)
	}
}

func (s *Usecase) issueSession(ctx context.Context, u *entity.User) (*Session, error) {
	access, err := s.jwt.IssueAccessToken(subjectOf(u))
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue access token", "user_id", u.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refresh, err := s.jwt.IssueRefreshToken(subjectOf(u))
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue refresh token", "user_id", u.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Session{User: toUser(u), AccessToken: access, RefreshToken: refresh}, nil
}

// verifyPurposeToken maps token failures to the messages clients see.
func (s *Usecase) verifyPurposeToken(ctx context.Context, token, purpose string) (jwt.Claims, error) {
	clm, err := s.jwt.VerifySinglePurposeToken(token, purpose)
	if errors.Is(err, jwt.ErrTokenExpired) {
		slog.WarnContext(ctx, "single purpose token expired", "purpose", purpose)
		return jwt.Claims{}, goerror.NewBusiness("Token expired", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.WarnContext(ctx, "single purpose token invalid", "purpose", purpose, "error", err)
		return jwt.Claims{}, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}

	return clm, nil
}

func (s *Usecase) isRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.repoCache.IsRevoked(ctx, jti)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check token revocation", "jti", jti, "error", err)
		return false, goerror.NewServer(err)
	}
	return revoked, nil
}

// revoke denylists a token for what is left of its lifetime. It reports false
// when the token had already been revoked.
func (s *Usecase) revoke(ctx context.Context, clm jwt.Claims) (bool, error) {
	ok, err := s.repoCache.Revoke(ctx, clm.ID, clm.Remaining(s.clock.Now()))
	if err != nil {
		slog.ErrorContext(ctx, "failed to revoke token", "jti", clm.ID, "user_id", clm.UserID, "error", err)
		return false, goerror.NewServer(err)
	}
	return ok, nil
}

// dummyVerify spends the same work as a real password check so unknown
// accounts cannot be told apart by latency.
func (s *Usecase) dummyVerify(plaintext string) {
	s.dummyOnce.Do(func() {
		h, err := s.password.Hash("medicore-timing-equalizer")
		if err == nil {
			s.dummyHash = string(h)
		}
	})
	if s.dummyHash != "" {
		_, _ = s.password.Verify(s.dummyHash, plaintext)
	}
}

// rehashInBackground upgrades a stored hash written with old parameters.
func (s *Usecase) rehashInBackground(ctx context.Context, u *entity.User, plaintext string) {
	if !s.password.NeedsRehash(u.PasswordHash) {
		return
	}

	s.goroutine.Detached(ctx, "auth.rehash", func(ctx context.Context) error {
		h, err := s.password.Hash(plaintext)
		if err != nil {
			slog.ErrorContext(ctx, "failed to rehash password", "user_id", u.ID, "error", err)
			return nil
		}
		if err := s.repoDB.UpdatePasswordHash(ctx, u.ID, u.PasswordHash, string(h)); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to store rehashed password", "user_id", u.ID, "error", err)
		}
		return nil
	})
}

// checkCode validates a TOTP code against an encrypted secret.
func (s *Usecase) checkCode(ctx context.Context, code, encSecret string, keyVersion int) (bool, error) {
	secret, err := s.fieldcrypt.DecryptString(ctx, encSecret, keyVersion, fieldcrypt.WithField("two_factor_secret"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt two factor secret", "error", err)
		return false, goerror.NewServer(err)
	}

	return s.totp.Validate(code, secret, s.clock.Now()), nil
}
