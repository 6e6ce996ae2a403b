package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aptracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SERVER_MODE", "test")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "changeme")
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	return cfg
}

func TestRulesFromConfig(t *testing.T) {
	cfg := memoryConfig(t)
	rules, err := Rules(cfg.Rules)
	require.NoError(t, err)

	assert.Equal(t, "IDR", rules.Normalizer.ReportingCurrency())
	assert.Equal(t, []string{"IDR", "USD", "SGD"}, rules.Currencies)
	assert.Equal(t, 25, rules.DueDate.CutoffDay)
	assert.Equal(t, "FINANCE_MANAGER", rules.Policy.ApproverRole)
	assert.Equal(t, 14, rules.DashboardHorizon)
}

func TestMemoryAppServesRoutes(t *testing.T) {
	cfg := memoryConfig(t)
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Bootstrap(context.Background()))
	require.NoError(t, a.Bootstrap(context.Background()), "bootstrap is idempotent")

	router := a.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "memory", health["storage"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	users, total, err := a.Users.ListUsers(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "ADMIN", users[0].Role)
}
