package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pqotp "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/fieldcrypt"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/hash"
	"github.com/shandysiswandi/medicore/internal/pkg/idempotency"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/otp"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"github.com/shandysiswandi/medicore/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu        sync.Mutex
	users     map[int64]*entity.User
	createErr error
	entries   []audit.Entry
	// beforeReset runs ahead of ResetPassword to stand in for a concurrent writer.
	beforeReset func()
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: map[int64]*entity.User{}}
}

func (f *fakeDB) put(u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeDB) get(id int64) entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) CreateUser(_ context.Context, u entity.NewUser, entry audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return goerror.ErrConflict
		}
	}
	f.users[u.ID] = &entity.User{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Status:            entity.UserStatusActive,
		PasswordHash:      u.PasswordHash,
		PublicKey:         u.PublicKey,
		PrivateKey:        u.PrivateKey,
		EncryptionVersion: u.EncryptionVersion,
		CreatedAt:         u.CreatedAt,
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeDB) ResetPassword(_ context.Context, userID int64, oldHash, newHash string, entry audit.Entry) error {
	if f.beforeReset != nil {
		f.beforeReset()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.PasswordHash != oldHash {
		return goerror.ErrNotFound
	}
	u.PasswordHash = newHash
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeDB) UpdatePasswordHash(_ context.Context, userID int64, oldHash, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.PasswordHash != oldHash {
		return goerror.ErrNotFound
	}
	u.PasswordHash = newHash
	return nil
}

func (f *fakeDB) EnableTwoFactor(_ context.Context, userID int64, secret string, keyVersion int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.TwoFactorEnabled {
		return goerror.ErrConflict
	}
	u.TwoFactorEnabled = true
	u.TwoFactorSecret = secret
	u.TwoFactorKeyVersion = keyVersion
	return nil
}

func (f *fakeDB) DisableTwoFactor(_ context.Context, userID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || !u.TwoFactorEnabled {
		return goerror.ErrNotFound
	}
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = ""
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (f *fakeCache) Revoke(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.revoked[jti]; ok {
		return false, nil
	}
	f.revoked[jti] = ttl
	return true, nil
}

func (f *fakeCache) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

type fakeMQ struct {
	mu         sync.Mutex
	registered []event.UserRegisteredMessage
	resets     []event.PasswordResetRequestedMessage
}

func (f *fakeMQ) PublishUserRegistered(_ context.Context, msg event.UserRegisteredMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, msg)
	return nil
}

func (f *fakeMQ) PublishPasswordResetRequested(_ context.Context, msg event.PasswordResetRequestedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, msg)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	next    int64
	clock   clock.Clocker
	entries []audit.Entry
}

func (f *fakeAudit) Stamp(e audit.Entry) audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	if e.ID == 0 {
		e.ID = f.next
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = f.clock.Now()
	}
	return e
}

func (f *fakeAudit) Record(_ context.Context, e audit.Entry) {
	e = f.Stamp(e)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeAudit) last() audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

type inlineRunner struct{}

func (inlineRunner) Detached(ctx context.Context, _ string, f func(ctx context.Context) error) {
	_ = f(ctx)
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 1000 + s.n
}

type harness struct {
	uc    *Usecase
	db    *fakeDB
	cache *fakeCache
	mq    *fakeMQ
	audit *fakeAudit
	clock *clock.Fixed
	jwt   *jwt.Symmetric
	totp  *otp.TOTP
	crypt *fieldcrypt.Adapter
	pw    *hash.Password
}

const testConfig = `
modules:
  auth:
    keypair:
      enabled: false
    two_factor:
      pending_ttl: 5
      setup_ttl: 10
    password_reset:
      ttl: 60
      throttle: 60
`

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := clock.NewFixed(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	pw, err := hash.NewPassword(hash.AlgorithmBcrypt, 4, "")
	require.NoError(t, err)

	ring, err := cipher.NewKeyring(1, map[int][]byte{1: bytes.Repeat([]byte{3}, 32)})
	require.NoError(t, err)
	aes := cipher.NewAESGCM(ring)

	issuer, err := jwt.NewHS512(jwt.Config{
		AccessSecret:  bytes.Repeat([]byte("a"), 64),
		RefreshSecret: bytes.Repeat([]byte("r"), 64),
		PurposeSecret: bytes.Repeat([]byte("p"), 64),
		Issuer:        "medicore",
		Audiences:     []string{"medicore-api"},
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Clock:         clk,
		UUID:          uid.NewUUID(),
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{
		db:    newFakeDB(),
		cache: &fakeCache{revoked: map[string]time.Duration{}},
		mq:    &fakeMQ{},
		audit: &fakeAudit{clock: clk},
		clock: clk,
		jwt:   issuer,
		totp:  otp.NewTOTP("MediCore", 30, 1, pqotp.DigitsSix),
		crypt: fieldcrypt.New(aes),
		pw:    pw,
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoCache:     h.cache,
		RepoMessaging: h.mq,
		Audit:         h.audit,
		Idempotency:   idempotency.New(rdb),
		Validator:     v,
		Config:        cfg,
		Password:      pw,
		HMAC:          hash.NewHMACSHA256("fingerprint-secret"),
		FieldCrypt:    h.crypt,
		Cipher:        aes,
		UID:           &seqID{},
		Totp:          h.totp,
		Clock:         clk,
		JWT:           issuer,
		Instrument:    instrument.NewNoop(),
		Goroutine:     inlineRunner{},
	})

	return h
}

// seedUser stores an active patient with password "Secret123!".
func (h *harness) seedUser(t *testing.T, id int64, email string) *entity.User {
	t.Helper()

	pwHash, err := h.pw.Hash("Secret123!")
	require.NoError(t, err)

	u := &entity.User{
		ID:           id,
		Email:        email,
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         "patient",
		Status:       entity.UserStatusActive,
		PasswordHash: string(pwHash),
		CreatedAt:    h.clock.Now(),
	}
	h.db.put(u)
	return u
}

// enable2FA turns on 2FA for u and returns the plain secret.
func (h *harness) enable2FA(t *testing.T, u *entity.User) string {
	t.Helper()

	secret, _, err := h.totp.Generate(u.Email)
	require.NoError(t, err)
	enc, err := h.crypt.EncryptString(secret)
	require.NoError(t, err)

	u.TwoFactorEnabled = true
	u.TwoFactorSecret = enc
	u.TwoFactorKeyVersion = h.crypt.Version()
	h.db.put(u)
	return secret
}

func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()
	c, err := h.totp.GenerateCode(secret, h.clock.Now())
	require.NoError(t, err)
	return c
}

func (h *harness) authCtx(t *testing.T, accessToken string) context.Context {
	t.Helper()
	clm, err := h.jwt.Verify(accessToken, jwt.KindAccess)
	require.NoError(t, err)
	return jwt.SetAuth(context.Background(), clm)
}

func assertBusiness(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()
	gerr, ok := goerror.As(err)
	require.True(t, ok, "expected *goerror.Error, got %v", err)
	assert.Equal(t, code, gerr.Code())
	if msg != "" {
		assert.Equal(t, msg, gerr.Msg())
	}
}

var origin = audit.Origin{IP: "203.0.113.9", UserAgent: "test"}
