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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers holds the HTTP handlers for the impact service.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set for a service.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleAnalyze handles POST /v1/impact/analyze.
//
// Description:
//
//	Validates the request, resolves the dependency graph (inline document,
//	stored graph, or none), and runs one full analysis. The response is
//	idempotent up to analysis_id and timestamps.
//
// Response:
//
//	200 OK: orchestrator.Report
//	400 Bad Request: validation failure
//	500 Internal Server Error: graph decode or pipeline failure
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}
	if err := ValidateAnalyzeRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}

	report, err := h.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		logger.Error("analysis failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
		return
	}

	logger.Info("analysis served",
		slog.String("analysis_id", report.AnalysisID),
		slog.String("status", string(report.Status)))
	c.JSON(http.StatusOK, report)
}

// HandleScan handles POST /v1/impact/scan.
//
// Description:
//
//	Builds a dependency graph from a directory scan or posted parse
//	results and persists the encoded document as the latest for the
//	(repo_id, branch).
//
// Response:
//
//	200 OK: ScanResponse
//	400 Bad Request: validation failure or missing input source
//	500 Internal Server Error: build failure
func (h *Handlers) HandleScan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleScan")

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}
	if err := ValidateRepoBranch(req.RepoID, &req.Branch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}
	if req.Path == "" && len(req.ParseResults) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "either path or parse_results is required",
			Code:  CodeInputInvalid,
		})
		return
	}

	resp, err := h.service.Scan(c.Request.Context(), &req)
	if err != nil {
		logger.Error("scan failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
		return
	}

	logger.Info("scan served",
		slog.String("graph_id", resp.GraphID),
		slog.Int("nodes", resp.NodesCount),
		slog.Int("edges", resp.EdgesCount))
	c.JSON(http.StatusOK, resp)
}

// HandleCriticality handles POST /v1/impact/criticality. Scores every node
// of the resolved graph.
func (h *Handlers) HandleCriticality(c *gin.Context) {
	var req CriticalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}
	if err := ValidateRepoBranch(req.RepoID, &req.Branch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}

	scores, err := h.service.Criticality(c.Request.Context(), &req)
	if err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusOK, CriticalityResponse{
		RepoID: req.RepoID,
		Branch: req.Branch,
		Scores: scores,
	})
}

// HandlePathAnalyze handles POST /v1/impact/path. Finds simple paths and a
// shortest path between two nodes of the stored graph.
func (h *Handlers) HandlePathAnalyze(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}
	if err := ValidateRepoBranch(req.RepoID, &req.Branch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}

	resp, err := h.service.PathAnalyze(c.Request.Context(), &req)
	if err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGraphStats handles GET /v1/impact/graph/stats.
//
// Query Parameters:
//
//	repo_id: Repository identifier (required)
//	branch: Branch name, default "main"
func (h *Handlers) HandleGraphStats(c *gin.Context) {
	repoID := c.Query("repo_id")
	branch := c.DefaultQuery("branch", "main")
	if err := ValidateRepoBranch(repoID, &branch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}

	resp, err := h.service.GraphStats(c.Request.Context(), repoID, branch)
	if err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleNodeReport handles GET /v1/impact/node/:id/report. The node id is
// passed URL-encoded in the path.
func (h *Handlers) HandleNodeReport(c *gin.Context) {
	nodeID := c.Param("id")
	repoID := c.Query("repo_id")
	branch := c.DefaultQuery("branch", "main")
	if err := ValidateRepoBranch(repoID, &branch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInputInvalid})
		return
	}

	report, err := h.service.NodeReport(c.Request.Context(), repoID, branch, nodeID)
	if err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// HandleHealth handles GET /v1/impact/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/impact/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.service.Ready(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "graph store unavailable",
			Code:  CodeCollaboratorUnavailable,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// writeGraphError maps graph-resolution failures onto the wire taxonomy.
func (h *Handlers) writeGraphError(c *gin.Context, err error) {
	if errors.Is(err, ErrNoGraph) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no dependency graph for this repository and branch",
			Code:  CodeGraphAbsent,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
}
