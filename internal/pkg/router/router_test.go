package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revokedSet map[string]bool

func (s revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s[jti], nil
}

type roleEnforcer map[string]bool

func (e roleEnforcer) Enforce(rvals ...any) (bool, error) {
	role, _ := rvals[0].(string)
	return e[role], nil
}

type created struct {
	ID int64 `json:"id"`
}

func (created) Message() string { return "Created" }
func (created) StatusCode() int { return http.StatusCreated }

type fixture struct {
	router  *router.Router
	issuer  *jwt.Symmetric
	clock   *clock.Fixed
	revoked revokedSet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFixed(time.Now())
	issuer, err := jwt.NewHS512(jwt.Config{
		AccessSecret:  bytes.Repeat([]byte("a"), 64),
		RefreshSecret: bytes.Repeat([]byte("r"), 64),
		PurposeSecret: bytes.Repeat([]byte("p"), 64),
		Issuer:        "medicore",
		Audiences:     []string{"medicore-api"},
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Clock:         clk,
		UUID:          uid.NewUUID(),
	})
	require.NoError(t, err)

	revoked := revokedSet{}
	r := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		JWT:        issuer,
		Revocation: revoked,
		Instrument: instrument.NewNoop(),
	})

	r.POST("/auth/login", func(*router.Request) (any, error) {
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	}, router.RateLimit(1, 2))
	r.POST("/auth/register", func(req *router.Request) (any, error) {
		var body struct {
			Email string `json:"email"`
		}
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		return created{ID: 7}, nil
	})
	r.GET("/records/:id", func(req *router.Request) (any, error) {
		id, err := req.GetParamInt64("id")
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id, "user": jwt.GetAuth(req.Context()).UserID}, nil
	})
	r.GET("/audit-logs", func(*router.Request) (any, error) {
		return map[string]any{}, nil
	}, router.Authorize(roleEnforcer{"admin": true}, "audit_logs", "read"))
	r.GET("/boom", func(*router.Request) (any, error) {
		return nil, errors.New("db down")
	})
	r.GET("/panic", func(*router.Request) (any, error) {
		panic("unexpected")
	})

	return &fixture{router: r, issuer: issuer, clock: clk, revoked: revoked}
}

func (f *fixture) do(t *testing.T, method, path, token string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.RemoteAddr = "10.0.0.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (f *fixture) token(t *testing.T, role string) (string, jwt.Claims) {
	t.Helper()

	tok, err := f.issuer.IssueAccessToken(jwt.Subject{ID: 9, Email: "x@y.z", Role: role})
	require.NoError(t, err)
	clm, err := f.issuer.Verify(tok, jwt.KindAccess)
	require.NoError(t, err)
	return tok, clm
}

func TestRouter_Envelope(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodPost, "/auth/register", "", `{"email":"a@b.c"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Created", out["message"])
	assert.Equal(t, map[string]any{"id": float64(7)}, out["data"])
	assert.NotEmpty(t, rec.Header().Get(router.HeaderCorrelationID))

	rec, out = f.do(t, http.MethodPost, "/auth/register", "", `{"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	rec, out = f.do(t, http.MethodPost, "/auth/login", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", out["message"])
	assert.Equal(t, "AUTHENTICATION_ERROR", out["code"])

	rec, out = f.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", out["code"])
}

func TestRouter_ServerErrorsAreOpaque(t *testing.T) {
	f := newFixture(t)
	tok, _ := f.token(t, "patient")

	rec, out := f.do(t, http.MethodGet, "/boom", tok, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", out["message"])
	assert.Equal(t, "INTERNAL_ERROR", out["code"])
	assert.NotContains(t, rec.Body.String(), "db down")

	rec, out = f.do(t, http.MethodGet, "/panic", tok, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", out["code"])
}

func TestRouter_Authentication(t *testing.T) {
	f := newFixture(t)
	tok, clm := f.token(t, "patient")

	refresh, err := f.issuer.IssueRefreshToken(jwt.Subject{ID: 9})
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		prepare func()
		status  int
		message string
	}{
		{name: "Missing", token: "", status: http.StatusUnauthorized, message: "Authentication required"},
		{name: "Garbage", token: "abc.def.ghi", status: http.StatusUnauthorized, message: "Invalid token"},
		{name: "RefreshNotAccepted", token: refresh, status: http.StatusUnauthorized, message: "Invalid token"},
		{name: "Valid", token: tok, status: http.StatusOK},
		{
			name:    "Revoked",
			token:   tok,
			prepare: func() { f.revoked[clm.ID] = true },
			status:  http.StatusUnauthorized,
			message: "Token revoked",
		},
		{
			name:    "Expired",
			token:   tok,
			prepare: func() { delete(f.revoked, clm.ID); f.clock.Advance(2 * time.Minute) },
			status:  http.StatusUnauthorized,
			message: "Token expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}

			rec, out := f.do(t, http.MethodGet, "/records/5", tt.token, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, out["message"])
				assert.Equal(t, "AUTHENTICATION_ERROR", out["code"])
			} else {
				assert.Equal(t, map[string]any{"id": float64(5), "user": float64(9)}, out["data"])
			}
		})
	}
}

func TestRouter_Authorize(t *testing.T) {
	f := newFixture(t)

	patient, _ := f.token(t, "patient")
	rec, out := f.do(t, http.MethodGet, "/audit-logs", patient, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AUTHORIZATION_ERROR", out["code"])

	admin, _ := f.token(t, "admin")
	rec, _ = f.do(t, http.MethodGet, "/audit-logs", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	f := newFixture(t)

	for range 2 {
		rec, _ := f.do(t, http.MethodPost, "/auth/login", "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, out := f.do(t, http.MethodPost, "/auth/login", "", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", out["code"])
}
