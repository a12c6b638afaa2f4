// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis computes change impact over a frozen dependency graph:
// reachability from a changed-file set, per-node criticality scoring, and
// risk classification with recommendations.
package analysis

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

var analysisTracer = otel.Tracer("aleutian.impact.analysis")

// Engine computes impacted sets by directed reachability.
//
// Description:
//
//	For a changed-file set, the impacted set is the seed plus everything
//	reachable forward (descendants, what the changes depend on) and
//	backward (ancestors, what depends on the changes). Reachability is
//	plain BFS over the frozen adjacency, linear in nodes plus edges.
//
// Thread Safety: Engine is stateless; safe for concurrent use on frozen
// graphs.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an impact engine. A nil logger means slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With("component", "analysis.Engine")}
}

// Impacted computes the impacted node set for a changed-file set.
//
// Description:
//
//	Changed files absent from the graph are dropped from the seed and
//	contribute nothing. The returned slices are sorted; seed membership is
//	preserved inside impacted.
//
// Outputs:
//
//	seed - Changed files present in the graph, sorted.
//	impacted - seed ∪ descendants(seed) ∪ ancestors(seed), sorted.
//
// Complexity: O(V + E).
func (e *Engine) Impacted(ctx context.Context, g *graph.Graph, changedFiles []string) (seed, impacted []string) {
	_, span := analysisTracer.Start(ctx, "analysis.Impacted")
	defer span.End()

	n := g.NodeCount()
	inSet := make([]bool, n)
	forward := make([]bool, n)
	backward := make([]bool, n)

	var seedNodes []*graph.Node
	for _, path := range changedFiles {
		node, ok := g.GetNode(path)
		if !ok {
			e.logger.Debug("changed file not in graph, dropped from seed",
				slog.String("path", path))
			continue
		}
		if inSet[node.Index] {
			continue
		}
		inSet[node.Index] = true
		seedNodes = append(seedNodes, node)
		seed = append(seed, node.ID)
	}

	queue := make([]*graph.Node, 0, len(seedNodes))

	// Forward: descendants over outgoing edges.
	for _, s := range seedNodes {
		forward[s.Index] = true
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range cur.Outgoing {
			next, _ := g.GetNode(edge.ToID)
			if !forward[next.Index] {
				forward[next.Index] = true
				inSet[next.Index] = true
				queue = append(queue, next)
			}
		}
	}

	// Backward: ancestors over incoming edges.
	queue = queue[:0]
	for _, s := range seedNodes {
		backward[s.Index] = true
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range cur.Incoming {
			prev, _ := g.GetNode(edge.FromID)
			if !backward[prev.Index] {
				backward[prev.Index] = true
				inSet[prev.Index] = true
				queue = append(queue, prev)
			}
		}
	}

	for _, node := range g.Nodes() {
		if inSet[node.Index] {
			impacted = append(impacted, node.ID)
		}
	}
	sort.Strings(seed)
	sort.Strings(impacted)

	span.SetAttributes(
		attribute.Int("seed", len(seed)),
		attribute.Int("impacted", len(impacted)),
	)
	return seed, impacted
}

// Descendants returns all nodes reachable from id over outgoing edges,
// excluding id itself, sorted.
func Descendants(g *graph.Graph, id string) []string {
	return reach(g, id, false)
}

// Ancestors returns all nodes that reach id over outgoing edges, excluding
// id itself, sorted.
func Ancestors(g *graph.Graph, id string) []string {
	return reach(g, id, true)
}

func reach(g *graph.Graph, id string, reverse bool) []string {
	start, ok := g.GetNode(id)
	if !ok {
		return nil
	}
	seen := make([]bool, g.NodeCount())
	seen[start.Index] = true
	queue := []*graph.Node{start}

	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		edges := cur.Outgoing
		if reverse {
			edges = cur.Incoming
		}
		for _, edge := range edges {
			nextID := edge.ToID
			if reverse {
				nextID = edge.FromID
			}
			next, _ := g.GetNode(nextID)
			if !seen[next.Index] {
				seen[next.Index] = true
				out = append(out, next.ID)
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(out)
	return out
}

// NodeReport is a per-node dependency summary for the node report endpoint.
type NodeReport struct {
	ID                   string           `json:"id"`
	Type                 string           `json:"type"`
	DirectDependencies   []string         `json:"direct_dependencies"`
	DirectDependents     []string         `json:"direct_dependents"`
	TransitiveDependents int              `json:"transitive_dependents"`
	TransitiveDeps       int              `json:"transitive_dependencies"`
	Centrality           graph.Centrality `json:"centrality"`
}

// ReportNode summarizes one node's dependency position, or returns false
// when the node does not exist.
func ReportNode(g *graph.Graph, id string) (*NodeReport, bool) {
	node, ok := g.GetNode(id)
	if !ok {
		return nil, false
	}
	report := &NodeReport{
		ID:         node.ID,
		Type:       node.Kind.String(),
		Centrality: node.Centrality,
	}
	for _, e := range node.Outgoing {
		report.DirectDependencies = append(report.DirectDependencies, e.ToID)
	}
	for _, e := range node.Incoming {
		report.DirectDependents = append(report.DirectDependents, e.FromID)
	}
	sort.Strings(report.DirectDependencies)
	sort.Strings(report.DirectDependents)
	report.TransitiveDeps = len(Descendants(g, id))
	report.TransitiveDependents = len(Ancestors(g, id))
	return report, true
}
