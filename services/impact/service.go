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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianImpact/services/impact/analysis"
	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
	"github.com/AleutianAI/AleutianImpact/services/impact/orchestrator"
	"github.com/AleutianAI/AleutianImpact/services/impact/planner"
	"github.com/AleutianAI/AleutianImpact/services/impact/rag"
	"github.com/AleutianAI/AleutianImpact/services/impact/store"
)

// ErrNoGraph is returned when neither the request nor the store supplies a
// dependency graph.
var ErrNoGraph = errors.New("no dependency graph available")

// Service wires the analysis pipeline to its collaborators.
//
// Thread Safety: Safe for concurrent use. Graphs are frozen before they
// are shared; the store serializes its own access.
type Service struct {
	config  ServiceConfig
	graphs  store.GraphStore
	orch    *orchestrator.Orchestrator
	parser  *artifact.Parser
	builder *graph.Builder
	logger  *slog.Logger
}

// NewService assembles a Service from configuration.
//
// Description:
//
//	Builds the retriever and planner selected by the config. A retriever
//	or planner that fails to initialize degrades to its absent form with
//	a warning; the service always starts.
func NewService(cfg ServiceConfig, graphs store.GraphStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "impact")

	var retriever rag.Retriever
	switch cfg.RetrievalBackend {
	case "weaviate":
		w, err := rag.NewWeaviateRetriever(cfg.Weaviate, logger)
		if err != nil {
			logger.Warn("weaviate retriever unavailable, retrieval disabled", slog.String("error", err.Error()))
		} else {
			retriever = w
		}
	case "http":
		retriever = rag.NewHTTPRetriever(cfg.RetrievalURL, 0)
	}

	var plan planner.Planner
	if cfg.PlannerEnabled {
		p, err := planner.NewLLMPlanner(cfg.Planner, logger)
		if err != nil {
			logger.Warn("llm planner unavailable, using heuristic planner", slog.String("error", err.Error()))
		} else {
			plan = p
		}
	}

	orch := orchestrator.New(
		orchestrator.WithRetriever(retriever),
		orchestrator.WithPlanner(plan),
		orchestrator.WithRetrieveK(cfg.RetrieveK),
		orchestrator.WithLogger(logger),
	)

	return &Service{
		config:  cfg,
		graphs:  graphs,
		orch:    orch,
		parser:  artifact.NewParser(artifact.WithParserLogger(logger)),
		builder: graph.NewBuilder(graph.WithBuilderLogger(logger)),
		logger:  logger,
	}
}

// Analyze resolves the request's graph and runs one analysis.
//
// Description:
//
//	The graph comes from the inline node-link document when present,
//	otherwise from the store. When neither exists the orchestrator runs
//	without a graph and the analysis degrades to the changed-file set.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*orchestrator.Report, error) {
	g, err := s.resolveGraph(ctx, req.RepoID, req.Branch, req.DependencyGraph)
	if err != nil && !errors.Is(err, ErrNoGraph) {
		return nil, err
	}
	if errors.Is(err, ErrNoGraph) {
		s.logger.Info("analyzing without dependency graph",
			slog.String("repo_id", req.RepoID),
			slog.String("branch", req.Branch))
	}

	report := s.orch.Analyze(ctx, orchestrator.Request{
		AnalysisID:        uuid.NewString(),
		RepoID:            req.RepoID,
		Branch:            req.Branch,
		ChangeDescription: req.ChangeDescription,
		ChangedFiles:      req.AffectedFiles,
	}, g)
	return report, nil
}

// Scan builds a graph from the request's artifacts and persists it.
//
// Description:
//
//	Artifacts come from the posted parse results or a directory scan with
//	the built-in parser. The encoded document is stored as the latest for
//	(repo_id, branch); a store failure degrades to an unpersisted result
//	with a warning rather than failing the scan.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	var (
		results artifact.Set
		err     error
	)
	switch {
	case len(req.ParseResults) > 0:
		results = req.ParseResults
	case req.Path != "":
		results, err = s.parser.ParseDirectory(ctx, req.Path)
		if err != nil {
			return nil, fmt.Errorf("scanning directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("either path or parse_results is required")
	}

	g, _, err := s.builder.Build(ctx, req.RepoID, req.Branch, results)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	doc := graph.Encode(g)
	resp := &ScanResponse{
		GraphID:    doc.GraphID,
		RepoID:     doc.RepoID,
		Branch:     doc.Branch,
		NodesCount: doc.NodesCount,
		EdgesCount: doc.EdgesCount,
		NodeTypes:  doc.NodeTypes,
		Metrics:    doc.Metrics,
		Persisted:  true,
	}
	if s.graphs == nil {
		resp.Persisted = false
		return resp, nil
	}
	if err := s.graphs.Put(ctx, doc); err != nil {
		s.logger.Warn("graph persistence failed, returning unpersisted result",
			slog.String("repo_id", req.RepoID),
			slog.String("error", err.Error()))
		resp.Persisted = false
		resp.Warning = "graph store unavailable"
	}
	return resp, nil
}

// Criticality scores every node of the resolved graph.
func (s *Service) Criticality(ctx context.Context, req *CriticalityRequest) (map[string]float64, error) {
	g, err := s.resolveGraph(ctx, req.RepoID, req.Branch, req.DependencyGraph)
	if err != nil {
		return nil, err
	}
	return analysis.ScoreAll(g), nil
}

// PathAnalyze finds paths between two nodes of the stored graph.
func (s *Service) PathAnalyze(ctx context.Context, req *PathRequest) (*PathResponse, error) {
	g, err := s.resolveGraph(ctx, req.RepoID, req.Branch, nil)
	if err != nil {
		return nil, err
	}

	cutoff := req.Cutoff
	if cutoff <= 0 {
		cutoff = s.config.PathCutoff
	}
	maxPaths := req.MaxPaths
	if maxPaths <= 0 {
		maxPaths = s.config.MaxSimplePaths
	}

	simple := graph.AllSimplePaths(g, req.Source, req.Target, cutoff, maxPaths)
	if simple == nil {
		simple = [][]string{}
	}
	return &PathResponse{
		Source:       req.Source,
		Target:       req.Target,
		ShortestPath: graph.ShortestPath(g, req.Source, req.Target),
		SimplePaths:  simple,
		PathCount:    len(simple),
	}, nil
}

// GraphStats summarizes the stored graph for (repoID, branch).
func (s *Service) GraphStats(ctx context.Context, repoID, branch string) (*GraphStatsResponse, error) {
	doc, err := s.loadDocument(ctx, repoID, branch)
	if err != nil {
		return nil, err
	}
	g, err := graph.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding stored graph: %w", err)
	}
	return &GraphStatsResponse{
		RepoID:    repoID,
		Branch:    branch,
		GraphID:   doc.GraphID,
		CreatedAt: doc.CreatedAt,
		NodeTypes: doc.NodeTypes,
		Metrics:   graph.ComputeMetrics(g),
		TopNodes:  graph.TopCentralNodes(g, 10),
	}, nil
}

// NodeReport summarizes one node's dependency position in the stored graph.
func (s *Service) NodeReport(ctx context.Context, repoID, branch, nodeID string) (*analysis.NodeReport, error) {
	g, err := s.resolveGraph(ctx, repoID, branch, nil)
	if err != nil {
		return nil, err
	}
	report, ok := analysis.ReportNode(g, nodeID)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", nodeID, graph.ErrNodeNotFound)
	}
	return report, nil
}

// Ready reports whether the graph store is reachable.
func (s *Service) Ready(ctx context.Context) bool {
	if s.graphs == nil {
		return true
	}
	_, err := s.graphs.Get(ctx, "readiness-probe", "main")
	return err == nil || errors.Is(err, store.ErrNotFound)
}

// resolveGraph returns the inline graph when supplied, else the stored
// graph, else ErrNoGraph.
func (s *Service) resolveGraph(ctx context.Context, repoID, branch string, inline *graph.NodeLinkDocument) (*graph.Graph, error) {
	if inline != nil {
		g, err := graph.DecodeNodeLink(inline, repoID, branch)
		if err != nil {
			return nil, fmt.Errorf("decoding node-link document: %w", err)
		}
		return g, nil
	}
	doc, err := s.loadDocument(ctx, repoID, branch)
	if err != nil {
		return nil, err
	}
	g, err := graph.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding stored graph: %w", err)
	}
	return g, nil
}

func (s *Service) loadDocument(ctx context.Context, repoID, branch string) (*graph.Document, error) {
	if s.graphs == nil {
		return nil, ErrNoGraph
	}
	doc, err := s.graphs.Get(ctx, repoID, branch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoGraph
	}
	if err != nil {
		return nil, fmt.Errorf("loading stored graph: %w", err)
	}
	return doc, nil
}
