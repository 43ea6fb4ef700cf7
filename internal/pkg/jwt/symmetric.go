package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT using HS512 with one secret per token kind.
type Symmetric struct {
	secrets    map[Kind][]byte
	issuer     string
	audiences  []string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clocker
	uuid       generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	secrets := map[Kind][]byte{
		KindAccess:  cfg.AccessSecret,
		KindRefresh: cfg.RefreshSecret,
		KindPurpose: cfg.PurposeSecret,
	}
	for _, s := range secrets {
		if len(s) < 64 {
			return nil, ErrSigningKeyTooShort
		}
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) ||
		bytes.Equal(cfg.AccessSecret, cfg.PurposeSecret) ||
		bytes.Equal(cfg.RefreshSecret, cfg.PurposeSecret) {
		return nil, ErrSigningKeyReused
	}

	return &Symmetric{
		secrets:    secrets,
		issuer:     cfg.Issuer,
		audiences:  cfg.Audiences,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      cfg.Clock,
		uuid:       cfg.UUID,
	}, nil
}

// IssueAccessToken signs an access token carrying the subject's role.
func (s *Symmetric) IssueAccessToken(sub Subject) (string, error) {
	return s.sign(KindAccess, s.accessTTL, Claims{
		UserID: sub.ID,
		Email:  sub.Email,
		Role:   sub.Role,
	})
}

// IssueRefreshToken signs a refresh token carrying only the subject ID.
func (s *Symmetric) IssueRefreshToken(sub Subject) (string, error) {
	return s.sign(KindRefresh, s.refreshTTL, Claims{UserID: sub.ID})
}

// IssueSinglePurposeToken signs a token bound to purpose.
func (s *Symmetric) IssueSinglePurposeToken(sub Subject, purpose string, ttl time.Duration, data map[string]string) (string, error) {
	if purpose == "" {
		return "", fmt.Errorf("%w: empty purpose", ErrTokenInvalid)
	}
	return s.sign(KindPurpose, ttl, Claims{
		UserID:  sub.ID,
		Email:   sub.Email,
		Purpose: purpose,
		Data:    data,
	})
}

// Verify parses an access or refresh token.
func (s *Symmetric) Verify(tokenStr string, kind Kind) (Claims, error) {
	if kind != KindAccess && kind != KindRefresh {
		return Claims{}, fmt.Errorf("%w: unsupported kind %q", ErrTokenInvalid, kind)
	}
	return s.parse(kind, tokenStr)
}

// VerifySinglePurposeToken parses a single-purpose token and checks its purpose.
func (s *Symmetric) VerifySinglePurposeToken(tokenStr, purpose string) (Claims, error) {
	claims, err := s.parse(KindPurpose, tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if claims.Purpose == "" || claims.Purpose != purpose {
		return Claims{}, fmt.Errorf("%w: purpose mismatch", ErrTokenInvalid)
	}
	return claims, nil
}

func (s *Symmetric) sign(kind Kind, ttl time.Duration, claims Claims) (string, error) {
	now := s.clock.Now()

	claims.TokenType = kind
	claims.RegisteredClaims = libJWT.RegisteredClaims{
		ID:        s.uuid.Generate(),
		Subject:   strconv.FormatInt(claims.UserID, 10),
		Issuer:    s.issuer,
		Audience:  s.audiences,
		IssuedAt:  libJWT.NewNumericDate(now),
		NotBefore: libJWT.NewNumericDate(now),
		ExpiresAt: libJWT.NewNumericDate(now.Add(ttl)),
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secrets[kind])
}

func (s *Symmetric) parse(kind Kind, tokenStr string) (Claims, error) {
	var claims Claims

	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secrets[kind], nil
		},
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.TokenType != kind || claims.UserID <= 0 {
		return Claims{}, ErrTokenInvalid
	}

	return claims, nil
}
