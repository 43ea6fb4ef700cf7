package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when an HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrSigningKeyReused is returned when two token kinds share a secret.
	ErrSigningKeyReused = errors.New("access, refresh and purpose secrets must be distinct")

	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when the token is malformed, badly signed or of the wrong kind.
	ErrTokenInvalid = errors.New("invalid token")
)

// Kind tells which secret and claim shape a token uses.
type Kind string

const (
	// KindAccess authorizes API calls.
	KindAccess Kind = "access"
	// KindRefresh can only mint a new token pair.
	KindRefresh Kind = "refresh"
	// KindPurpose is a single-purpose token.
	KindPurpose Kind = "purpose"
)

// Purposes of single-purpose tokens.
const (
	PurposePasswordReset = "password_reset"
	Purpose2FAPending    = "2fa_pending"
	Purpose2FASetup      = "2fa_setup"
)

// JWT issues and verifies every token kind used by the API.
type JWT interface {
	// IssueAccessToken signs a short-lived access token.
	IssueAccessToken(sub Subject) (string, error)
	// IssueRefreshToken signs a long-lived refresh token.
	IssueRefreshToken(sub Subject) (string, error)
	// Verify validates an access or refresh token.
	Verify(token string, kind Kind) (Claims, error)
	// IssueSinglePurposeToken signs a token usable only for purpose.
	IssueSinglePurposeToken(sub Subject, purpose string, ttl time.Duration, data map[string]string) (string, error)
	// VerifySinglePurposeToken validates a token and its purpose.
	VerifySinglePurposeToken(token, purpose string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// AccessSecret signs access tokens.
	AccessSecret []byte
	// RefreshSecret signs refresh tokens.
	RefreshSecret []byte
	// PurposeSecret signs single-purpose tokens.
	PurposeSecret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Subject identifies who a token is issued to.
type Subject struct {
	ID    int64
	Email string
	Role  string
}

// Claims is the decoded payload of every token kind.
type Claims struct {
	// RegisteredClaims holds the standard JWT claims.
	jwt.RegisteredClaims
	// UserID is the subject identifier.
	UserID int64 `json:"user_id,string"`
	// Email is set on access tokens.
	Email string `json:"email,omitempty"`
	// Role is set on access tokens.
	Role string `json:"role,omitempty"`
	// TokenType is the Kind the token was issued as.
	TokenType Kind `json:"token_type"`
	// Purpose is set on single-purpose tokens.
	Purpose string `json:"purpose,omitempty"`
	// Data carries purpose-specific values.
	Data map[string]string `json:"data,omitempty"`
}

// Remaining returns how long the token stays valid after now.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
