//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type envelope struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func startApp(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("medicore"),
		postgres.WithUsername("medicore"),
		postgres.WithPassword("medicore"),
		postgres.WithInitScripts(filepath.Join("..", "..", "db", "schema.sql")),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rc, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, rc)
	require.NoError(t, err)

	redisURL, err := rc.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := fmt.Sprintf(`
app:
  name: medicore-it
log:
  level: warn
database:
  url: %q
redis:
  url: %q
hash:
  bcrypt_cost: 4
  hmac_secret: it-hmac
cipher:
  key_version: 1
  key: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
jwt:
  access_secret: "HhzufH7EgLSPtKosHPEDw3lkdqpCQdMRlosASRVHuPd8fQC0RtUeYmBYi/eMGApzzkS/hSRswQ4eI/S+fkboJQ=="
  refresh_secret: "j/OLev1pcFmIlU6SYoZ+EZFnRHuVFHiOTxGIxlFfkLSZMQd9iDDq0xcrxLvTruwblG3qRSupmLZK8Klyq9ohXA=="
  purpose_secret: "xkKN2urXjQ44ohavvcC08KD7ZqdsQhjgMMrRR4a0TAbhczEeB1QcDFsAGHkpToEm/8CjSURslp+n51Mfy1eKZw=="
messaging:
  driver: memory
storage:
  driver: memory
modules:
  notification:
    enabled: true
`, dsn, redisURL)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	t.Setenv("CONFIG_PATH", path)

	a := New()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a.Serve(l)

	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Stop(stopCtx)
	})

	return "http://" + l.Addr().String()
}

func call(t *testing.T, base, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, base+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func register(t *testing.T, base, email, role string) (string, string) {
	t.Helper()

	status, env := call(t, base, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     email,
		"password":  "Sup3rSecret!",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.User.ID, out.AccessToken
}

func TestApp_RecordLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("integration")
	}

	base := startApp(t)

	doctorID, doctorToken := register(t, base, "doctor@clinic.local", "doctor")
	patientID, patientToken := register(t, base, "patient@clinic.local", "patient")
	_, otherToken := register(t, base, "other@clinic.local", "patient")

	status, env := call(t, base, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "doctor@clinic.local", "password": "Sup3rSecret!", "firstName": "Ada", "lastName": "L", "role": "doctor",
	})
	assert.Equal(t, http.StatusConflict, status, env.Message)

	status, env = call(t, base, http.MethodPost, "/records", doctorToken, map[string]any{
		"patientId":  patientID,
		"recordType": "diagnosis",
		"title":      "Seasonal flu",
		"content":    map[string]any{"icd10": "J11.1", "notes": "rest and fluids"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var created struct {
		Record struct {
			ID       string `json:"id"`
			DoctorID string `json:"doctorId"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, doctorID, created.Record.DoctorID)

	status, env = call(t, base, http.MethodPost, "/records", patientToken, map[string]any{
		"patientId": patientID, "recordType": "note", "title": "x", "content": map[string]any{},
	})
	assert.Equal(t, http.StatusForbidden, status, env.Message)

	status, env = call(t, base, http.MethodGet, "/records/"+created.Record.ID, patientToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var got struct {
		Record struct {
			Title   string         `json:"title"`
			Content map[string]any `json:"content"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Seasonal flu", got.Record.Title)
	assert.Equal(t, "J11.1", got.Record.Content["icd10"])

	status, env = call(t, base, http.MethodGet, "/records/"+created.Record.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status, env.Message)

	status, env = call(t, base, http.MethodGet, "/patients/"+patientID+"/records", doctorToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.EqualValues(t, 1, env.Meta["total"])

	status, env = call(t, base, http.MethodPost, "/auth/logout", patientToken, map[string]any{})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = call(t, base, http.MethodGet, "/records/"+created.Record.ID, patientToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
