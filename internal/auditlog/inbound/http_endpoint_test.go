package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/auditlog/entity"
	"github.com/shandysiswandi/medicore/internal/auditlog/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	got *usecase.ListLogsInput
}

func (s *stubUC) ListLogs(_ context.Context, in usecase.ListLogsInput) (*usecase.ListLogsOutput, error) {
	s.got = &in
	actor := int64(7)
	return &usecase.ListLogsOutput{
		Page:  1,
		Size:  20,
		Total: 1,
		Logs:  []entity.Log{{ID: 3, ActorID: &actor, Action: "login", Outcome: "failure"}},
	}, nil
}

type noRevocation struct{}

func (noRevocation) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func TestListLogs(t *testing.T) {
	issuer, err := jwt.NewHS512(jwt.Config{
		AccessSecret:  bytes.Repeat([]byte("a"), 64),
		RefreshSecret: bytes.Repeat([]byte("r"), 64),
		PurposeSecret: bytes.Repeat([]byte("p"), 64),
		Issuer:        "medicore",
		Audiences:     []string{"medicore-api"},
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Clock:         clock.New(),
		UUID:          uid.NewUUID(),
	})
	require.NoError(t, err)
	enforcer, err := rbac.NewEnforcer(rbac.DefaultPolicies)
	require.NoError(t, err)

	stub := &stubUC{}
	srv := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		JWT:        issuer,
		Revocation: noRevocation{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(srv, stub, enforcer)

	call := func(role, query string) (int, map[string]any) {
		token, err := issuer.IssueAccessToken(jwt.Subject{ID: 1, Email: "x@example.com", Role: role})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/audit-logs"+query, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	code, _ := call(rbac.RoleDoctor, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Nil(t, stub.got)

	code, _ = call(rbac.RoleAdmin, "?actorId=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := call(rbac.RoleAdmin, "?actorId=7&action=login&outcome=failure&page=1&size=20")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, stub.got)
	assert.Equal(t, int64(7), stub.got.ActorID)
	assert.Equal(t, "login", stub.got.Action)

	logs := body["data"].(map[string]any)["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "7", logs[0].(map[string]any)["actorId"])
	assert.InDelta(t, 1, body["meta"].(map[string]any)["total"], 0)
}
