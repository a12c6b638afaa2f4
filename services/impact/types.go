// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package impact exposes the change-impact analysis service over HTTP:
// request validation, graph resolution, and the handlers that front the
// orchestrator and graph packages.
package impact

import (
	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

// Error codes returned on the wire. These mirror the error taxonomy used
// across the analysis pipeline.
const (
	CodeInputInvalid            = "InputInvalid"
	CodeGraphAbsent             = "GraphAbsent"
	CodeCollaboratorUnavailable = "CollaboratorUnavailable"
	CodeInternal                = "Internal"
)

// ErrorResponse is the JSON error body for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AnalyzeRequest is the body of POST /impact/analyze.
type AnalyzeRequest struct {
	ChangeDescription string   `json:"change_description" binding:"required,min=1,max=1000"`
	AffectedFiles     []string `json:"affected_files" binding:"max=100"`
	RepoID            string   `json:"repo_id" binding:"required"`
	Branch            string   `json:"branch"`

	// DependencyGraph optionally carries the graph inline as a node-link
	// document. When absent the stored graph for (repo_id, branch) is
	// used; when neither exists the analysis degrades to the changed set.
	DependencyGraph *graph.NodeLinkDocument `json:"dependency_graph,omitempty"`
}

// ScanRequest is the body of POST /impact/scan. Exactly one of Path or
// ParseResults supplies the input artifacts.
type ScanRequest struct {
	RepoID string `json:"repo_id" binding:"required"`
	Branch string `json:"branch"`

	// Path is a directory to scan with the built-in parser.
	Path string `json:"path,omitempty"`

	// ParseResults are pre-parsed artifacts keyed by relative path.
	ParseResults map[string]*artifact.ParseResult `json:"parse_results,omitempty"`
}

// ScanResponse summarizes a completed scan.
type ScanResponse struct {
	GraphID    string         `json:"graph_id"`
	RepoID     string         `json:"repo_id"`
	Branch     string         `json:"branch"`
	NodesCount int            `json:"nodes_count"`
	EdgesCount int            `json:"edges_count"`
	NodeTypes  map[string]int `json:"node_types"`
	Metrics    graph.Metrics  `json:"metrics"`
	Persisted  bool           `json:"persisted"`
	Warning    string         `json:"warning,omitempty"`
}

// CriticalityRequest is the body of POST /impact/criticality.
type CriticalityRequest struct {
	RepoID          string                  `json:"repo_id" binding:"required"`
	Branch          string                  `json:"branch"`
	DependencyGraph *graph.NodeLinkDocument `json:"dependency_graph,omitempty"`
}

// CriticalityResponse carries scores for every node of the graph.
type CriticalityResponse struct {
	RepoID string             `json:"repo_id"`
	Branch string             `json:"branch"`
	Scores map[string]float64 `json:"criticality_scores"`
}

// PathRequest is the body of POST /impact/path.
type PathRequest struct {
	RepoID   string `json:"repo_id" binding:"required"`
	Branch   string `json:"branch"`
	Source   string `json:"source" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Cutoff   int    `json:"cutoff,omitempty"`
	MaxPaths int    `json:"max_paths,omitempty"`
}

// PathResponse carries the discovered paths between two nodes.
type PathResponse struct {
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	ShortestPath []string   `json:"shortest_path,omitempty"`
	SimplePaths  [][]string `json:"simple_paths"`
	PathCount    int        `json:"path_count"`
}

// GraphStatsResponse is the body of GET /impact/graph/stats.
type GraphStatsResponse struct {
	RepoID    string              `json:"repo_id"`
	Branch    string              `json:"branch"`
	GraphID   string              `json:"graph_id"`
	CreatedAt string              `json:"created_at"`
	NodeTypes map[string]int      `json:"node_types"`
	Metrics   graph.Metrics       `json:"metrics"`
	TopNodes  []graph.CentralNode `json:"top_central_nodes"`
}
