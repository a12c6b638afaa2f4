// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package impact

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianImpact/services/impact/orchestrator"
	"github.com/AleutianAI/AleutianImpact/services/impact/store"
)

// newTestRouter builds a router over a service with an in-memory graph
// store. Pass nil store for the store-less configuration.
func newTestRouter(t *testing.T, graphs store.GraphStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	svc := NewService(DefaultServiceConfig(), graphs, logger)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(svc))
	return router
}

func newMemoryStore(t *testing.T) store.GraphStore {
	t.Helper()
	s, err := store.OpenBadger("", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// scanFixture posts a small parse-result set and returns the response.
func scanFixture(t *testing.T, router *gin.Engine) ScanResponse {
	t.Helper()
	body := map[string]any{
		"repo_id": "myrepo",
		"branch":  "main",
		"parse_results": map[string]any{
			"services/auth/login.py": map[string]any{
				"imports":   []map[string]any{{"name": "services.db.models"}},
				"functions": []map[string]any{{"name": "login", "line": 3}},
			},
			"services/db/models.py": map[string]any{
				"classes": []map[string]any{{"name": "User", "line": 1}},
			},
		},
	}
	w := doJSON(router, http.MethodPost, "/v1/impact/scan", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleScan(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	resp := scanFixture(t, router)

	assert.NotEmpty(t, resp.GraphID)
	assert.Equal(t, "myrepo", resp.RepoID)
	assert.Equal(t, "main", resp.Branch)
	// 2 files + 2 symbols.
	assert.Equal(t, 4, resp.NodesCount)
	assert.Equal(t, 1, resp.EdgesCount)
	assert.True(t, resp.Persisted)
	assert.Empty(t, resp.Warning)
}

func TestHandleScan_WithoutStore(t *testing.T) {
	router := newTestRouter(t, nil)
	resp := scanFixture(t, router)
	assert.False(t, resp.Persisted)
}

func TestHandleScan_Invalid(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))

	// Missing input source.
	w := doJSON(router, http.MethodPost, "/v1/impact/scan", map[string]any{"repo_id": "myrepo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInputInvalid, errResp.Code)

	// Missing repo id fails binding.
	w = doJSON(router, http.MethodPost, "/v1/impact/scan", map[string]any{"path": "/tmp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnalyze_AgainstStoredGraph(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	scanFixture(t, router)

	w := doJSON(router, http.MethodPost, "/v1/impact/analyze", map[string]any{
		"repo_id":            "myrepo",
		"change_description": "refactor login",
		"affected_files":     []string{"services/db/models.py"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report orchestrator.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, orchestrator.StatusCompleted, report.Status)
	require.NotNil(t, report.ImpactAnalysis)
	// models.py is imported by login.py, which drags in its symbols.
	assert.Contains(t, report.ImpactAnalysis.Impacted, "services/auth/login.py")
	assert.ElementsMatch(t, []string{"auth", "db"}, report.ImpactAnalysis.AffectedServices)
	assert.NotNil(t, report.TestPlan)
}

func TestHandleAnalyze_NoGraphDegrades(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))

	w := doJSON(router, http.MethodPost, "/v1/impact/analyze", map[string]any{
		"repo_id":            "unscanned",
		"change_description": "touch a file",
		"affected_files":     []string{"x.py"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report orchestrator.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, orchestrator.StatusCompleted, report.Status)
	assert.Equal(t, []string{"x.py"}, report.ImpactAnalysis.Impacted)
	assert.Equal(t, "LOW", string(report.ImpactAnalysis.RiskLevel))
}

func TestHandleAnalyze_InlineGraph(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/v1/impact/analyze", map[string]any{
		"repo_id":            "myrepo",
		"change_description": "inline graph analysis",
		"affected_files":     []string{"a.py"},
		"dependency_graph": map[string]any{
			"directed":   true,
			"multigraph": false,
			"graph":      map[string]any{},
			"nodes": []map[string]any{
				{"id": "a.py", "type": "file"},
				{"id": "b.py", "type": "file"},
			},
			"links": []map[string]any{
				{"source": "a.py", "target": "b.py"},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report orchestrator.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.ElementsMatch(t, []string{"a.py", "b.py"}, report.ImpactAnalysis.Impacted)
}

func TestHandleAnalyze_Validation(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []map[string]any{
		{"repo_id": "myrepo"},                                     // no description
		{"change_description": "x"},                               // no repo id
		{"repo_id": "bad repo", "change_description": "x"},        // bad repo id
		{"repo_id": "r", "change_description": "x", "affected_files": []string{"../up.py"}},
	}
	for _, body := range cases {
		w := doJSON(router, http.MethodPost, "/v1/impact/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %v", body)
		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, CodeInputInvalid, errResp.Code)
	}
}

func TestHandleCriticality(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	scanFixture(t, router)

	w := doJSON(router, http.MethodPost, "/v1/impact/criticality", map[string]any{
		"repo_id": "myrepo",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CriticalityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "main", resp.Branch)
	assert.Len(t, resp.Scores, 4)
	for id, score := range resp.Scores {
		assert.GreaterOrEqual(t, score, 0.0, id)
		assert.LessOrEqual(t, score, 1.0, id)
	}
}

func TestHandleCriticality_NoGraph(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	w := doJSON(router, http.MethodPost, "/v1/impact/criticality", map[string]any{
		"repo_id": "unscanned",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeGraphAbsent, errResp.Code)
}

func TestHandlePathAnalyze(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	scanFixture(t, router)

	w := doJSON(router, http.MethodPost, "/v1/impact/path", map[string]any{
		"repo_id": "myrepo",
		"source":  "services/auth/login.py",
		"target":  "services/db/models.py",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.PathCount)
	assert.Equal(t, []string{"services/auth/login.py", "services/db/models.py"}, resp.ShortestPath)
}

func TestHandleGraphStats(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))
	scanned := scanFixture(t, router)

	req := httptest.NewRequest(http.MethodGet, "/v1/impact/graph/stats?repo_id=myrepo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp GraphStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, scanned.GraphID, resp.GraphID)
	assert.Equal(t, 4, resp.Metrics.NumberOfNodes)
	assert.NotEmpty(t, resp.TopNodes)
}

func TestHandleNodeReport(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))

	// Flat file ids keep the node id a single path segment.
	w := doJSON(router, http.MethodPost, "/v1/impact/scan", map[string]any{
		"repo_id": "flat",
		"parse_results": map[string]any{
			"login.py":  map[string]any{"imports": []map[string]any{{"name": "models"}}},
			"models.py": map[string]any{},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/v1/impact/node/models.py/report?repo_id=flat", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "models.py", report["id"])
	assert.Equal(t, []any{"login.py"}, report["direct_dependents"])
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/impact/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/impact/ready", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
