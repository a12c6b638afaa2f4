// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

// Criticality weights. In-degree dominates: a component many others import
// is the riskiest thing to break.
const (
	weightInDegree    = 0.4
	weightOutDegree   = 0.2
	weightBetweenness = 0.3
	weightCloseness   = 0.1
)

// defaultScore is returned when a node cannot be scored.
const defaultScore = 0.5

// highRiskThreshold separates high-risk components in classification.
const highRiskThreshold = 0.7

// maxDegree returns the largest total degree in the graph, clamped to at
// least 1 so normalization never divides by zero.
func maxDegree(g *graph.Graph) float64 {
	max := 1
	for _, n := range g.Nodes() {
		if d := len(n.Outgoing) + len(n.Incoming); d > max {
			max = d
		}
	}
	return float64(max)
}

// Score computes the criticality of one node.
//
// Description:
//
//	Blends normalized in-degree and out-degree with the precomputed
//	betweenness and closeness centralities:
//
//	  0.4*in + 0.2*out + 0.3*betweenness + 0.1*closeness
//
//	clamped to [0,1]. A node absent from the graph scores the neutral
//	default 0.5.
func Score(g *graph.Graph, nodeID string) float64 {
	node, ok := g.GetNode(nodeID)
	if !ok {
		return defaultScore
	}
	return scoreNode(node, maxDegree(g))
}

func scoreNode(n *graph.Node, maxDeg float64) float64 {
	inNorm := float64(len(n.Incoming)) / maxDeg
	outNorm := float64(len(n.Outgoing)) / maxDeg

	score := weightInDegree*inNorm +
		weightOutDegree*outNorm +
		weightBetweenness*n.Centrality.Betweenness +
		weightCloseness*n.Centrality.Closeness

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ScoreImpacted scores every impacted node except the changed files
// themselves. The changed files are the cause of the impact, not subject
// to it, so they carry no score.
func ScoreImpacted(g *graph.Graph, impacted, changedFiles []string) map[string]float64 {
	changed := make(map[string]bool, len(changedFiles))
	for _, c := range changedFiles {
		changed[c] = true
	}

	maxDeg := maxDegree(g)
	scores := make(map[string]float64, len(impacted))
	for _, id := range impacted {
		if changed[id] {
			continue
		}
		node, ok := g.GetNode(id)
		if !ok {
			scores[id] = defaultScore
			continue
		}
		scores[id] = scoreNode(node, maxDeg)
	}
	return scores
}

// ScoreAll scores every node in the graph.
func ScoreAll(g *graph.Graph) map[string]float64 {
	maxDeg := maxDegree(g)
	scores := make(map[string]float64, g.NodeCount())
	for _, n := range g.Nodes() {
		scores[n.ID] = scoreNode(n, maxDeg)
	}
	return scores
}
