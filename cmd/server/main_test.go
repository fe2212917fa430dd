package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/bizlens/internal/backend/mock"
	"github.com/kiranshivaraju/bizlens/internal/cache"
	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── router wiring ───────────────────────────────────────────────────────────

func testComponents() components {
	return components{
		cfg: &config.Config{
			Server: config.ServerConfig{CORSOrigins: []string{"*"}},
			Auth:   config.AuthConfig{RateLimitPerMin: 100},
		},
		cache:   cache.NewMemoryCache(),
		backend: mock.NewMockClient(),
	}
}

func TestNewRouter_HealthReportsOptionalDeps(t *testing.T) {
	router := newRouter(testComponents())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	checks := body["data"].(map[string]any)["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["cache"])
	assert.Equal(t, "disabled", checks["database"])
	assert.Equal(t, "disabled", checks["agent"])
}

func TestNewRouter_SubmitWithoutAuthConfigured(t *testing.T) {
	router := newRouter(testComponents())

	body, _ := json.Marshal(map[string]any{
		"company_name": "Acme",
		"industry":     "Retail",
		"fields":       map[string]any{"strengths": "brand"},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/analyses/swot", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}

func TestNewRouter_AgentRouteWithoutSocket(t *testing.T) {
	router := newRouter(testComponents())

	body, _ := json.Marshal(map[string]any{"company_name": "Acme", "industry": "Retail", "query": "Why?"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/agent/messages", bytes.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewRouter_ArchiveFallsBackToBackend(t *testing.T) {
	router := newRouter(testComponents())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/reports", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// ─── run() startup failures ──────────────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_BACKEND", "redis")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "not-a-valid-url")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

func TestRun_FailsOnUnreachableRedis(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:1")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping cache")
}

func TestRun_FailsOnIncompleteMinioConfig(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}

// ─── helper: clear env ──────────────────────────────────────────────────────

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "CACHE_BACKEND", "AGENT_SOCKET_URL",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}
