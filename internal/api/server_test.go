package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/gravity-arena/internal/network"
	"github.com/annel0/gravity-arena/internal/storage"
)

type fakeStats struct{ stats network.HubStats }

func (f fakeStats) Stats() network.HubStats { return f.stats }

func newTestServer(t *testing.T) (*Server, *storage.MemoryScoreRepo) {
	t.Helper()
	repo := storage.NewMemoryScoreRepo()
	reg := prometheus.NewRegistry()
	s := NewServer(Config{
		Hub:        fakeStats{network.HubStats{Players: 3, Objects: 40}},
		Scores:     repo,
		Registerer: reg,
		Gatherer:   reg,
	})
	return s, repo
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Data.Players)
	assert.Equal(t, 40, resp.Data.Objects)
	assert.Greater(t, resp.Data.MemoryMB, 0.0)
	assert.NotEmpty(t, resp.Data.Uptime)
}

func TestLeaderboard(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		_, err := repo.Record(ctx, storage.ScoreEntry{PlayerID: id, Score: (i + 1) * 100})
		require.NoError(t, err)
	}

	rec := get(t, s, "/api/leaderboard?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []storage.ScoreEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "c", resp.Data[0].PlayerID)
	assert.Equal(t, 300, resp.Data[0].Score)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/leaderboard?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/leaderboard?limit=-1").Code)
}

func TestMetricsEndpointAndCORS(t *testing.T) {
	s, _ := newTestServer(t)
	get(t, s, "/health")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rest_api_http_request_duration_seconds"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
