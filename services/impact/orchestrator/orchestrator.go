// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator sequences one impact analysis: optional planner
// annotation, fork-join of dependency analysis and context retrieval,
// criticality scoring, risk classification, and report assembly.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianImpact/services/impact/analysis"
	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
	"github.com/AleutianAI/AleutianImpact/services/impact/planner"
	"github.com/AleutianAI/AleutianImpact/services/impact/rag"
)

var orchestratorTracer = otel.Tracer("aleutian.impact.orchestrator")

// Phase names the stages of one analysis. Progression is strictly ordered;
// analyzing and retrieving run concurrently between the same two barriers.
type Phase string

const (
	PhasePlanning      Phase = "planning"
	PhaseAnalyzing     Phase = "analyzing"
	PhaseRetrieving    Phase = "retrieving"
	PhaseScoring       Phase = "scoring"
	PhasePlanningTests Phase = "planning_tests"
	PhaseReporting     Phase = "reporting"
)

// Status is the terminal state of an analysis.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusProcessing Status = "processing"
)

// Request is one analysis task, already validated by the HTTP layer.
type Request struct {
	AnalysisID        string
	RepoID            string
	Branch            string
	ChangeDescription string
	ChangedFiles      []string
}

// Report is the assembled analysis output.
type Report struct {
	AnalysisID        string             `json:"analysis_id"`
	Status            Status             `json:"status"`
	Timestamp         string             `json:"timestamp"`
	RepoID            string             `json:"repo_id"`
	Branch            string             `json:"branch"`
	ChangeDescription string             `json:"change_description"`
	PlannerNotes      string             `json:"planner_notes,omitempty"`
	ImpactAnalysis    *analysis.Result   `json:"impact_analysis,omitempty"`
	CriticalityScores map[string]float64 `json:"criticality_scores"`
	RetrievedContext  []rag.Document     `json:"retrieved_context,omitempty"`
	TestPlan          *TestPlan          `json:"test_plan,omitempty"`
	FinalReport       string             `json:"final_report,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// Options configures an Orchestrator.
type Options struct {
	// Retriever supplies narrative context. Nil means no retrieval.
	Retriever rag.Retriever

	// Planner annotates requests. Nil means the heuristic planner.
	Planner planner.Planner

	// RetrieveK is how many context documents to request. Zero means 5.
	RetrieveK int

	// Logger receives per-analysis progress. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the standard orchestrator configuration.
func DefaultOptions() Options {
	return Options{RetrieveK: 5}
}

// Option mutates Options.
type Option func(*Options)

// WithRetriever sets the retrieval collaborator.
func WithRetriever(r rag.Retriever) Option {
	return func(o *Options) { o.Retriever = r }
}

// WithPlanner sets the planner collaborator.
func WithPlanner(p planner.Planner) Option {
	return func(o *Options) { o.Planner = p }
}

// WithRetrieveK sets the context document count.
func WithRetrieveK(k int) Option {
	return func(o *Options) { o.RetrieveK = k }
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Orchestrator runs analyses. The numeric pipeline (impact, scores, risk)
// is a pure function of the graph and the changed set; collaborator output
// only ever lands in narrative fields.
//
// Thread Safety: Safe for concurrent use; per-analysis state is local to
// each Analyze call.
type Orchestrator struct {
	engine    *analysis.Engine
	retriever rag.Retriever
	planner   planner.Planner
	retrieveK int
	logger    *slog.Logger
}

// New creates an Orchestrator with the given options applied over defaults.
func New(opts ...Option) *Orchestrator {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "orchestrator")

	p := o.Planner
	if p == nil {
		p = planner.HeuristicPlanner{}
	}
	k := o.RetrieveK
	if k <= 0 {
		k = 5
	}
	return &Orchestrator{
		engine:    analysis.NewEngine(logger),
		retriever: o.Retriever,
		planner:   p,
		retrieveK: k,
		logger:    logger,
	}
}

// Analyze runs one analysis to completion or cancellation.
//
// Description:
//
//	g may be nil when no dependency graph exists for the request; the
//	analysis then degrades to impacted = changed files with empty scores
//	and LOW risk. Collaborator failures degrade to their empty
//	contributions and are recorded on the report's error field with the
//	status left completed. Cancellation between stages produces a partial
//	failed report.
//
// Outputs:
//
//	*Report - Never nil.
func (o *Orchestrator) Analyze(ctx context.Context, req Request, g *graph.Graph) *Report {
	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("analysis_id", req.AnalysisID),
		attribute.String("repo_id", req.RepoID),
		attribute.Int("changed_files", len(req.ChangedFiles)),
	)

	start := time.Now()
	logger := o.logger.With(
		slog.String("analysis_id", req.AnalysisID),
		slog.String("repo_id", req.RepoID))

	report := &Report{
		AnalysisID:        req.AnalysisID,
		Status:            StatusProcessing,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		RepoID:            req.RepoID,
		Branch:            req.Branch,
		ChangeDescription: req.ChangeDescription,
		CriticalityScores: map[string]float64{},
	}
	var warnings []string

	// planning
	logger.Debug("phase transition", slog.String("phase", string(PhasePlanning)))
	notes, err := o.planner.Invoke(ctx, planner.BuildAnalysisPrompt(req.ChangeDescription, req.ChangedFiles, nil))
	if err != nil {
		logger.Warn("planner unavailable, using heuristic notes", slog.String("error", err.Error()))
		warnings = append(warnings, "planner unavailable")
		notes, _ = planner.HeuristicPlanner{}.Invoke(ctx, req.ChangeDescription)
	}
	report.PlannerNotes = notes

	if o.cancelled(ctx, report, logger) {
		recordAnalysis(string(StatusFailed), time.Since(start))
		return report
	}

	// analyzing + retrieving, fork-join
	var (
		seed     []string
		impacted []string
		context_ []rag.Document
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Debug("phase transition", slog.String("phase", string(PhaseAnalyzing)))
		if g == nil {
			seed = append([]string(nil), req.ChangedFiles...)
			impacted = append([]string(nil), req.ChangedFiles...)
			return nil
		}
		seed, impacted = o.engine.Impacted(egCtx, g, req.ChangedFiles)
		return nil
	})
	eg.Go(func() error {
		logger.Debug("phase transition", slog.String("phase", string(PhaseRetrieving)))
		if o.retriever == nil {
			return nil
		}
		docs, rerr := o.retriever.Retrieve(egCtx, req.ChangeDescription, o.retrieveK)
		if rerr != nil {
			logger.Warn("retrieval unavailable, proceeding with empty context", slog.String("error", rerr.Error()))
			return errRetrievalUnavailable
		}
		context_ = docs
		return nil
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, errRetrievalUnavailable) {
			warnings = append(warnings, "retrieval unavailable")
		} else {
			report.Status = StatusFailed
			report.Error = err.Error()
			recordAnalysis(string(StatusFailed), time.Since(start))
			return report
		}
	}
	report.RetrievedContext = context_

	if o.cancelled(ctx, report, logger) {
		recordAnalysis(string(StatusFailed), time.Since(start))
		return report
	}

	// scoring
	logger.Debug("phase transition", slog.String("phase", string(PhaseScoring)))
	scores := map[string]float64{}
	if g != nil {
		scores = analysis.ScoreImpacted(g, impacted, seed)
	} else if len(req.ChangedFiles) > 0 {
		warnings = append(warnings, "no dependency graph available")
	}
	level, highRisk, maxScore := analysis.Classify(scores)

	result := &analysis.Result{
		ChangedFiles:      seed,
		Impacted:          impacted,
		CriticalityScores: scores,
		HighRiskAreas:     highRisk,
		MaxScore:          maxScore,
		RiskLevel:         level,
		AffectedServices:  analysis.AffectedServices(impacted),
		Recommendations:   analysis.Recommendations(level, len(impacted), len(highRisk), req.ChangedFiles),
	}
	report.ImpactAnalysis = result
	report.CriticalityScores = scores

	if o.cancelled(ctx, report, logger) {
		recordAnalysis(string(StatusFailed), time.Since(start))
		return report
	}

	// planning_tests
	logger.Debug("phase transition", slog.String("phase", string(PhasePlanningTests)))
	report.TestPlan = BuildTestPlan(impacted)

	// reporting
	logger.Debug("phase transition", slog.String("phase", string(PhaseReporting)))
	report.FinalReport = renderFinalReport(result, report.PlannerNotes)
	report.Status = StatusCompleted
	if len(warnings) > 0 {
		report.Error = strings.Join(warnings, "; ")
	}

	recordAnalysis(string(StatusCompleted), time.Since(start))
	logger.Info("analysis complete",
		slog.String("risk_level", string(level)),
		slog.Int("impacted", len(impacted)),
		slog.Int("high_risk", len(highRisk)),
		slog.Duration("duration", time.Since(start)))
	return report
}

var errRetrievalUnavailable = errors.New("retrieval unavailable")

// cancelled finalizes the report as a partial failure when ctx is done.
func (o *Orchestrator) cancelled(ctx context.Context, report *Report, logger *slog.Logger) bool {
	if ctx.Err() == nil {
		return false
	}
	logger.Warn("analysis cancelled", slog.String("error", ctx.Err().Error()))
	report.Status = StatusFailed
	report.Error = "cancelled"
	return true
}

// renderFinalReport produces the human-readable summary paragraph.
func renderFinalReport(result *analysis.Result, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk level %s: %d components impacted", result.RiskLevel, len(result.Impacted))
	if len(result.HighRiskAreas) > 0 {
		fmt.Fprintf(&b, ", %d high-risk", len(result.HighRiskAreas))
	}
	b.WriteString(".")
	if len(result.AffectedServices) > 0 {
		b.WriteString(" Affected services: ")
		b.WriteString(strings.Join(result.AffectedServices, ", "))
		b.WriteString(".")
	}
	if notes != "" {
		b.WriteString("\n\n")
		b.WriteString(notes)
	}
	return b.String()
}
