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
	"log/slog"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// gonumDirected materializes the graph as a gonum directed graph using the
// dense node indexes as vertex ids. Built once per computation; the gonum
// structure is discarded afterwards.
func (g *Graph) gonumDirected() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, n := range g.order {
		dg.AddNode(simple.Node(n.Index))
	}
	for _, e := range g.edges {
		from := g.nodes[e.FromID]
		to := g.nodes[e.ToID]
		dg.SetEdge(simple.Edge{F: simple.Node(from.Index), T: simple.Node(to.Index)})
	}
	return dg
}

// computeCentralities attaches degree, betweenness, and closeness values to
// every node.
//
// Description:
//
//	Degree centrality is deg(v)/(|V|-1). Betweenness is Brandes betweenness
//	over the directed graph, normalized by (|V|-1)(|V|-2) so a node on
//	every shortest path scores 1. Closeness is directed closeness over
//	incoming distances with the reachable-fraction correction, so values
//	stay comparable across components. All results land in [0,1].
//
//	Graphs with fewer than 2 nodes get all zeros. Any per-node numerical
//	degeneracy (NaN, Inf, out-of-range) zeroes that node's value and is
//	counted, never propagated.
//
// Outputs:
//
//	int - Number of node-metric values that were zeroed as degenerate.
//
// Complexity: O(V*E) for betweenness, O(V*(V+E)) for closeness.
func (g *Graph) computeCentralities(logger *slog.Logger) int {
	n := len(g.order)
	if n < 2 {
		for _, node := range g.order {
			node.Centrality = Centrality{}
		}
		return 0
	}

	degenerate := 0
	clamp := func(v float64) (float64, bool) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		if v < 0 {
			return 0, true
		}
		if v > 1 {
			return 1, true
		}
		return v, true
	}

	// Degree.
	for _, node := range g.order {
		d := float64(len(node.Outgoing)+len(node.Incoming)) / float64(n-1)
		v, ok := clamp(d)
		if !ok {
			degenerate++
		}
		node.Centrality.Degree = v
	}

	// Betweenness.
	between := network.Betweenness(g.gonumDirected())
	norm := float64(n-1) * float64(n-2)
	for _, node := range g.order {
		raw := between[node.Index]
		if norm > 0 {
			raw /= norm
		}
		v, ok := clamp(raw)
		if !ok {
			degenerate++
		}
		node.Centrality.Betweenness = v
	}

	// Closeness over incoming distances.
	dist := make([]int, n)
	queue := make([]int, 0, n)
	for _, node := range g.order {
		for i := range dist {
			dist[i] = -1
		}
		start := int(node.Index)
		queue = queue[:0]
		queue = append(queue, start)
		dist[start] = 0

		sum := 0
		reached := 0
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, e := range g.order[cur].Incoming {
				pred := int(g.nodes[e.FromID].Index)
				if dist[pred] != -1 {
					continue
				}
				dist[pred] = dist[cur] + 1
				sum += dist[pred]
				reached++
				queue = append(queue, pred)
			}
		}

		var c float64
		if sum > 0 {
			r := float64(reached)
			c = (r / float64(sum)) * (r / float64(n-1))
		}
		v, ok := clamp(c)
		if !ok {
			degenerate++
		}
		node.Centrality.Closeness = v
	}

	if degenerate > 0 && logger != nil {
		logger.Warn("centrality degeneracy, affected values zeroed",
			slog.Int("count", degenerate))
	}
	return degenerate
}
