// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
)

var builderTracer = otel.Tracer("aleutian.impact.graph")

// cancelCheckInterval is how many files are processed between context
// checks inside a phase.
const cancelCheckInterval = 256

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// BuilderOptions configures graph construction.
type BuilderOptions struct {
	// Graph carries capacity options for the graph being built.
	Graph GraphOptions

	// SkipCentrality disables centrality computation. Used by the codec
	// decode path, which restores stored values instead.
	SkipCentrality bool

	// Logger receives build progress and warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultBuilderOptions returns the standard build configuration.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{Graph: DefaultGraphOptions()}
}

// BuilderOption mutates BuilderOptions.
type BuilderOption func(*BuilderOptions)

// WithGraphOptions sets capacity options for the built graph.
func WithGraphOptions(opts GraphOptions) BuilderOption {
	return func(o *BuilderOptions) { o.Graph = opts }
}

// WithSkipCentrality disables centrality computation.
func WithSkipCentrality() BuilderOption {
	return func(o *BuilderOptions) { o.SkipCentrality = true }
}

// WithBuilderLogger sets the build logger.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) { o.Logger = l }
}

// BuildStats summarizes one build for logging and metrics.
type BuildStats struct {
	FilesTotal             int           `json:"files_total"`
	FilesSkipped           int           `json:"files_skipped"`
	NodesAdded             int           `json:"nodes_added"`
	EdgesAdded             int           `json:"edges_added"`
	UnresolvedImports      int           `json:"unresolved_imports"`
	DegenerateCentralities int           `json:"degenerate_centralities"`
	Duration               time.Duration `json:"-"`
}

// Builder constructs frozen dependency graphs from parse-result sets.
//
// Description:
//
//	Construction is two passes over the input. The node pass adds a file
//	node per parseable file and a symbol node per function, class, and
//	async function. The edge pass resolves each import to a file path and
//	adds import edges. Centralities are then computed on the final
//	topology and the graph is frozen.
//
//	Iteration is over lexicographically sorted paths in both passes, so
//	the resulting node set, edge set, and centralities are a pure function
//	of the input set regardless of map ordering.
//
// Thread Safety: Builder is stateless between calls; one Build call uses
// one goroutine.
type Builder struct {
	opts   BuilderOptions
	logger *slog.Logger
}

// NewBuilder creates a Builder with the given options applied over defaults.
func NewBuilder(opts ...BuilderOption) *Builder {
	o := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: o, logger: logger.With("component", "graph.Builder")}
}

// buildState carries the per-build working set between phases.
type buildState struct {
	graph *Graph

	// sortedPaths is the lexicographically sorted list of parseable file
	// paths. It is both the iteration order of the two passes and the
	// candidate order for import resolution.
	sortedPaths []string

	stats BuildStats
}

// Build constructs a frozen graph from a parse-result set.
//
// Description:
//
//	Files whose ParseResult carries an error are excluded entirely: no
//	node, no symbols, no edges touching them. A bad file is never fatal.
//	The only failure modes are context cancellation and internal capacity
//	exhaustion.
//
// Inputs:
//
//	ctx - Cancellation. Checked between phases and periodically within them.
//	repoID, branch - Identity stamped on the graph.
//	results - Parse results keyed by relative path.
//
// Outputs:
//
//	*Graph - The frozen graph. Nil only when error is non-nil.
//	*BuildStats - Counts for the completed build. Non-nil with the graph.
//	error - Cancellation or capacity errors.
func (b *Builder) Build(ctx context.Context, repoID, branch string, results artifact.Set) (*Graph, *BuildStats, error) {
	ctx, span := builderTracer.Start(ctx, "graph.Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("repo_id", repoID),
		attribute.String("branch", branch),
		attribute.Int("files", len(results)),
	)

	start := time.Now()
	st := &buildState{
		graph: NewGraph(repoID, branch, func(o *GraphOptions) { *o = b.opts.Graph }),
	}
	st.stats.FilesTotal = len(results)

	for path, result := range results {
		if result == nil || result.Error != "" {
			st.stats.FilesSkipped++
			if result != nil {
				b.logger.Warn("skipping unparseable file",
					slog.String("path", path),
					slog.String("error", result.Error))
			}
			continue
		}
		st.sortedPaths = append(st.sortedPaths, path)
	}
	sort.Strings(st.sortedPaths)

	if err := b.collectNodes(ctx, st, results); err != nil {
		recordBuild("error", time.Since(start))
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		recordBuild("cancelled", time.Since(start))
		return nil, nil, err
	}
	if err := b.extractEdges(ctx, st, results); err != nil {
		recordBuild("error", time.Since(start))
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		recordBuild("cancelled", time.Since(start))
		return nil, nil, err
	}

	if !b.opts.SkipCentrality {
		st.stats.DegenerateCentralities = st.graph.computeCentralities(b.logger)
		centralityDegeneracies.Add(float64(st.stats.DegenerateCentralities))
	}

	st.graph.Freeze()
	st.stats.Duration = time.Since(start)
	recordBuild("ok", st.stats.Duration)
	unresolvedImports.Add(float64(st.stats.UnresolvedImports))

	b.logger.Info("graph build complete",
		slog.String("repo_id", repoID),
		slog.String("branch", branch),
		slog.Int("nodes", st.stats.NodesAdded),
		slog.Int("edges", st.stats.EdgesAdded),
		slog.Int("skipped_files", st.stats.FilesSkipped),
		slog.Int("unresolved_imports", st.stats.UnresolvedImports),
		slog.Duration("duration", st.stats.Duration))

	stats := st.stats
	return st.graph, &stats, nil
}

// collectNodes is the node pass: one file node per path, one symbol node
// per definition. Symbol ids are "path::name". When the same name appears
// under more than one kind the later kind wins; the pass visits functions,
// then classes, then async functions, so the precedence is fixed.
func (b *Builder) collectNodes(ctx context.Context, st *buildState, results artifact.Set) error {
	for i, path := range st.sortedPaths {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		result := results[path]

		if _, err := st.graph.AddNode(path, NodeFile, ""); err != nil {
			return fmt.Errorf("adding file node %s: %w", path, err)
		}
		st.stats.NodesAdded++

		addSymbol := func(name string, kind NodeKind) error {
			id := path + "::" + name
			if _, ok := st.graph.GetNode(id); !ok {
				st.stats.NodesAdded++
			}
			if _, err := st.graph.AddNode(id, kind, path); err != nil {
				return fmt.Errorf("adding symbol node %s: %w", id, err)
			}
			return nil
		}

		for _, f := range result.Functions {
			if err := addSymbol(f.Name, NodeFunction); err != nil {
				return err
			}
		}
		for _, c := range result.Classes {
			if err := addSymbol(c.Name, NodeClass); err != nil {
				return err
			}
		}
		for _, f := range result.AsyncFunctions {
			if err := addSymbol(f.Name, NodeAsyncFunction); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractEdges is the edge pass: resolve each import to a file path and add
// an import edge. Imports that resolve to the importing file itself are
// dropped. Duplicate (from, to) pairs collapse in AddEdge with the first
// payload retained.
func (b *Builder) extractEdges(ctx context.Context, st *buildState, results artifact.Set) error {
	for i, path := range st.sortedPaths {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		result := results[path]

		for idx := range result.Imports {
			imp := &result.Imports[idx]
			target, ok := resolveImport(imp.Name, st.sortedPaths)
			if !ok {
				st.stats.UnresolvedImports++
				continue
			}
			if target == path {
				continue
			}
			before := st.graph.EdgeCount()
			if _, err := st.graph.AddEdge(path, target, EdgeImport, imp); err != nil {
				return fmt.Errorf("adding edge %s -> %s: %w", path, target, err)
			}
			if st.graph.EdgeCount() > before {
				st.stats.EdgesAdded++
			}
		}
	}
	return nil
}

// resolveImport maps an import name to a file path.
//
// Description:
//
//	Scans candidates in lexicographic order and returns the first path
//	that either contains the import name as a substring or whose dotted
//	form (slashes replaced by dots) starts with the import name. First
//	match wins, which together with the sorted candidate order makes
//	resolution deterministic even when several files could satisfy the
//	import.
func resolveImport(name string, sortedPaths []string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, q := range sortedPaths {
		if strings.Contains(q, name) {
			return q, true
		}
		if strings.HasPrefix(strings.ReplaceAll(q, "/", "."), name) {
			return q, true
		}
	}
	return "", false
}
