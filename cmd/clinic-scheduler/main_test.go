package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clinic-scheduler/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		HTTPPort:          0,
		Storage:           config.StorageMemory,
		ClinicLocation:    time.UTC,
		LogLevel:          slog.LevelInfo,
		ShutdownTimeout:   time.Second,
		RateLimit:         120,
		RateLimitFailOpen: true,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *app {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC) }
	a, err := newApp(context.Background(), cfg, logger, now)
	require.NoError(t, err)
	t.Cleanup(func() { a.close(logger) })
	return a
}

func serve(a *app, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestNewApp_MemoryStorageServesAPI(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig())

	rec := serve(a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodGet, "/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"content":[],"page":0,"size":10,"total_elements":0,"total_pages":0}`, rec.Body.String())

	rec = serve(a, http.MethodPost, "/appointments", `{"patient_id":1,"scheduled_at":"2024-01-03T10:00:00Z"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "PATIENT_NOT_FOUND_OR_INACTIVE")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(a, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinic_scheduling_rejections_total{kind="patient_not_found_or_inactive",operation="schedule"} 1`)
}

func TestNewApp_RateLimitsWithRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()
	cfg.RateLimit = 1
	a := newTestApp(t, cfg)

	rec := serve(a, http.MethodGet, "/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodGet, "/appointments", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Health endpoints bypass the limiter and report redis readiness.
	rec = serve(a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMigrateCommand_CreatesSQLiteSchema(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "clinic.db")
	t.Setenv("SCHEDULER_STORAGE", "sqlite")
	t.Setenv("SCHEDULER_SQLITE_DSN", dsn)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "migrations applied")

	// Migrations are idempotent.
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())
}

func TestOpenStore_PostgresRequiresReachableDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Storage = config.StoragePostgres
	cfg.DatabaseURL = "://not-a-url"

	_, err := openStore(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
