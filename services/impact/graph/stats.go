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
	"sort"

	"gonum.org/v1/gonum/graph/topo"
)

// Metrics are whole-graph structural measurements included in the
// persisted document and the stats endpoint.
//
// Diameter is present only when the graph is weakly connected;
// NumberOfComponents only when it is not. Both are nil for empty graphs.
type Metrics struct {
	Density            float64 `json:"density"`
	IsDAG              bool    `json:"is_dag"`
	NumberOfNodes      int     `json:"number_of_nodes"`
	NumberOfEdges      int     `json:"number_of_edges"`
	AverageDegree      float64 `json:"average_degree"`
	IsConnected        bool    `json:"is_connected"`
	Diameter           *int    `json:"diameter,omitempty"`
	NumberOfComponents *int    `json:"number_of_components,omitempty"`
}

// ComputeMetrics measures a frozen graph.
//
// Description:
//
//	Density is E/(V*(V-1)). Average degree counts both directions, so it
//	is 2E/V. Connectivity is weak connectivity (edge direction ignored).
//	DAG-ness comes from a topological sort attempt on the directed
//	topology.
//
// Complexity: O(V*(V+E)) when connected (diameter), O(V+E) otherwise.
func ComputeMetrics(g *Graph) Metrics {
	n := g.NodeCount()
	e := g.EdgeCount()

	m := Metrics{
		NumberOfNodes: n,
		NumberOfEdges: e,
		IsDAG:         true,
	}
	if n == 0 {
		return m
	}
	if n > 1 {
		m.Density = float64(e) / float64(n*(n-1))
	}
	m.AverageDegree = 2 * float64(e) / float64(n)

	if _, err := topo.Sort(g.gonumDirected()); err != nil {
		m.IsDAG = false
	}

	components := weakComponents(g)
	m.IsConnected = components == 1
	if m.IsConnected {
		d := undirectedDiameter(g)
		m.Diameter = &d
	} else {
		m.NumberOfComponents = &components
	}
	return m
}

// weakComponents counts weakly connected components by BFS over the
// combined adjacency.
func weakComponents(g *Graph) int {
	n := g.NodeCount()
	seen := make([]bool, n)
	queue := make([]int, 0, n)
	components := 0

	for _, start := range g.Nodes() {
		if seen[start.Index] {
			continue
		}
		components++
		seen[start.Index] = true
		queue = append(queue[:0], int(start.Index))
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range undirectedNeighbors(g, g.Nodes()[cur]) {
				if !seen[nb] {
					seen[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}
	return components
}

// undirectedNeighbors returns the indexes adjacent to n in either
// direction.
func undirectedNeighbors(g *Graph, n *Node) []int {
	out := make([]int, 0, len(n.Outgoing)+len(n.Incoming))
	for _, e := range n.Outgoing {
		out = append(out, int(g.nodes[e.ToID].Index))
	}
	for _, e := range n.Incoming {
		out = append(out, int(g.nodes[e.FromID].Index))
	}
	return out
}

// undirectedDiameter is the maximum BFS eccentricity over the undirected
// view. Callers guarantee the graph is weakly connected and non-empty.
func undirectedDiameter(g *Graph) int {
	n := g.NodeCount()
	dist := make([]int, n)
	queue := make([]int, 0, n)
	diameter := 0

	for _, start := range g.Nodes() {
		for i := range dist {
			dist[i] = -1
		}
		dist[start.Index] = 0
		queue = append(queue[:0], int(start.Index))
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range undirectedNeighbors(g, g.Nodes()[cur]) {
				if dist[nb] == -1 {
					dist[nb] = dist[cur] + 1
					if dist[nb] > diameter {
						diameter = dist[nb]
					}
					queue = append(queue, nb)
				}
			}
		}
	}
	return diameter
}

// CentralNode pairs a node id with its degree centrality for ranking.
type CentralNode struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	DegreeCentrality float64 `json:"degree_centrality"`
}

// TopCentralNodes returns the k nodes with the highest degree centrality,
// ties broken by id for stable output.
func TopCentralNodes(g *Graph, k int) []CentralNode {
	all := make([]CentralNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		all = append(all, CentralNode{
			ID:               n.ID,
			Type:             n.Kind.String(),
			DegreeCentrality: n.Centrality.Degree,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DegreeCentrality != all[j].DegreeCentrality {
			return all[i].DegreeCentrality > all[j].DegreeCentrality
		}
		return all[i].ID < all[j].ID
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}
