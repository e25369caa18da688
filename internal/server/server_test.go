package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recordwise/aigate/internal/server"
	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/guard"
	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/recordwise/aigate/pkg/model"
	"github.com/recordwise/aigate/pkg/pricing"
	"github.com/recordwise/aigate/pkg/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *server.Server {
	t.Helper()
	store, err := kvstore.NewMemory(256)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := pricing.Default()

	g := guard.New(store, table, guard.Limits{GlobalDailyUSD: 100, UserDailyUSD: 10}, nil, logger)
	c := cache.NewService(store, logger)
	sel := selector.New(selector.DefaultCatalog(), table)

	// Seed some spend and cache traffic.
	ctx := context.Background()
	require.NoError(t, g.RecordCost(ctx, 2.5, "openai", "gpt-4o-mini", "user-1"))
	_, err = c.GetOrGenerate(ctx, "classify", "acme", time.Minute, func(context.Context) ([]byte, error) {
		return []byte(`"seed"`), nil
	})
	require.NoError(t, err)

	return server.NewServer(g, c, sel, logger)
}

func TestServer_Health(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_Costs(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/costs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var summary model.DailyCostSummary
	err := json.NewDecoder(w.Body).Decode(&summary)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeGlobal, summary.Scope)
	assert.InDelta(t, 2.5, summary.TotalCostUSD, 0.0001)
}

func TestServer_Costs_UserScope(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/costs?user=user-1", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var summary model.DailyCostSummary
	err := json.NewDecoder(w.Body).Decode(&summary)
	require.NoError(t, err)
	assert.Equal(t, "user-1", summary.Scope)
	assert.InDelta(t, 2.5, summary.TotalCostUSD, 0.0001)
}

func TestServer_Status(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status model.GuardStatus
	err := json.NewDecoder(w.Body).Decode(&status)
	require.NoError(t, err)
	assert.Equal(t, model.StateHealthy, status.State)
	assert.True(t, status.StoreOK)
}

func TestServer_CacheMetrics(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/cache/metrics?namespace=classify", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var metrics map[string]model.CacheMetrics
	err := json.NewDecoder(w.Body).Decode(&metrics)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics["classify"].Misses)
}

func TestServer_ModelSelect(t *testing.T) {
	srv := setupServer(t)

	body := `{"task_type": "classification", "quality_level": "basic", "prioritize_cost": true}`
	req := httptest.NewRequest("POST", "/api/v1/models/select", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var selection selector.Selection
	err := json.NewDecoder(w.Body).Decode(&selection)
	require.NoError(t, err)
	assert.NotEmpty(t, selection.Model)
	assert.NotEmpty(t, selection.Reasoning)
}

func TestServer_ModelSelect_MissingTask(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("POST", "/api/v1/models/select", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
