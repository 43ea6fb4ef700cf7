package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/record/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	uc

	created  *usecase.CreateRecordInput
	getErr   error
	listedBy int64
}

func (s *stubUC) CreateRecord(_ context.Context, in usecase.CreateRecordInput) (*usecase.Record, error) {
	s.created = &in
	return &usecase.Record{ID: 77, PatientID: in.PatientID, DoctorID: 5, RecordType: in.RecordType, Title: in.Title, Content: in.Content}, nil
}

func (s *stubUC) GetRecord(_ context.Context, in usecase.GetRecordInput) (*usecase.Record, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &usecase.Record{ID: in.ID}, nil
}

func (s *stubUC) ListPatientRecords(ctx context.Context, in usecase.ListPatientRecordsInput) ([]usecase.Record, error) {
	s.listedBy = jwt.GetAuth(ctx).UserID
	return []usecase.Record{{ID: 1, PatientID: in.PatientID}, {ID: 2, PatientID: in.PatientID}}, nil
}

func (s *stubUC) GetConsultation(_ context.Context, in usecase.GetConsultationInput) (*usecase.Consultation, error) {
	return &usecase.Consultation{
		ID:          in.ID,
		Attachments: []usecase.Attachment{{Key: "scan.png", URL: "http://files.local/scan.png?expires=1"}},
	}, nil
}

type noRevocation struct{}

func (noRevocation) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func newServer(t *testing.T, stub *stubUC) (*router.Router, *jwt.Symmetric) {
	t.Helper()

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

	r := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		JWT:        issuer,
		Revocation: noRevocation{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, stub, enforcer)

	return r, issuer
}

func tokenFor(t *testing.T, issuer *jwt.Symmetric, id int64, role string) string {
	t.Helper()
	token, err := issuer.IssueAccessToken(jwt.Subject{ID: id, Email: role + "@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestCreateRecord(t *testing.T) {
	stub := &stubUC{}
	srv, issuer := newServer(t, stub)
	body := `{"patientId":"10","recordType":"diagnosis","title":"Checkup","content":{"diagnosis":"flu"}}`

	code, _ := do(t, srv, http.MethodPost, "/records", body, tokenFor(t, issuer, 3, rbac.RolePatient))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Nil(t, stub.created)

	code, resp := do(t, srv, http.MethodPost, "/records", body, tokenFor(t, issuer, 5, rbac.RoleDoctor))
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, stub.created)
	assert.Equal(t, int64(10), stub.created.PatientID)

	rec := resp["data"].(map[string]any)["record"].(map[string]any)
	assert.Equal(t, "77", rec["id"])
	assert.Equal(t, "10", rec["patientId"])
	assert.Equal(t, "flu", rec["content"].(map[string]any)["diagnosis"])
}

func TestGetRecord(t *testing.T) {
	stub := &stubUC{}
	srv, issuer := newServer(t, stub)
	token := tokenFor(t, issuer, 3, rbac.RolePatient)

	code, _ := do(t, srv, http.MethodGet, "/records/42", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, srv, http.MethodGet, "/records/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := do(t, srv, http.MethodGet, "/records/42", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "42", resp["data"].(map[string]any)["record"].(map[string]any)["id"])

	stub.getErr = goerror.NewBusiness("Access denied", goerror.CodeForbidden)
	code, resp = do(t, srv, http.MethodGet, "/records/42", "", token)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTHORIZATION_ERROR", resp["code"])
}

func TestListPatientRecords(t *testing.T) {
	stub := &stubUC{}
	srv, issuer := newServer(t, stub)

	code, resp := do(t, srv, http.MethodGet, "/patients/10/records", "", tokenFor(t, issuer, 10, rbac.RolePatient))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(10), stub.listedBy)
	assert.Len(t, resp["data"].(map[string]any)["records"], 2)
	assert.InDelta(t, 2, resp["meta"].(map[string]any)["total"], 0)
}

func TestGetConsultation(t *testing.T) {
	srv, issuer := newServer(t, &stubUC{})

	code, resp := do(t, srv, http.MethodGet, "/consultations/9", "", tokenFor(t, issuer, 1, rbac.RoleAdmin))
	require.Equal(t, http.StatusOK, code)

	c := resp["data"].(map[string]any)["consultation"].(map[string]any)
	attachments := c["attachments"].([]any)
	require.Len(t, attachments, 1)
	assert.Equal(t, "http://files.local/scan.png?expires=1", attachments[0].(map[string]any)["url"])
}

func TestCreateConsultation_PatientForbidden(t *testing.T) {
	srv, issuer := newServer(t, &stubUC{})

	code, resp := do(t, srv, http.MethodPost, "/consultations", `{"patientId":"10","notes":"x"}`, tokenFor(t, issuer, 10, rbac.RolePatient))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Insufficient permissions", resp["message"])
}
