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
	"math"
	"testing"

	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

func TestScore_MissingNodeDefault(t *testing.T) {
	g := buildGraph(t, [][2]string{{"a.py", "b.py"}})
	if got := Score(g, "missing.py"); got != 0.5 {
		t.Errorf("missing node score = %v, want the neutral 0.5", got)
	}
}

func TestScore_Weighting(t *testing.T) {
	// Hub with in-degree 3, out-degree 1; centralities left at zero so the
	// degree terms are isolated.
	g := buildGraph(t, [][2]string{
		{"a.py", "hub.py"}, {"b.py", "hub.py"}, {"c.py", "hub.py"},
		{"hub.py", "d.py"},
	})

	// maxDegree = hub's 4. Expected: 0.4*(3/4) + 0.2*(1/4) = 0.35.
	if got := Score(g, "hub.py"); math.Abs(got-0.35) > 1e-9 {
		t.Errorf("hub score = %v, want 0.35", got)
	}
	// Leaf a: out 1, in 0: 0.2*(1/4) = 0.05.
	if got := Score(g, "a.py"); math.Abs(got-0.05) > 1e-9 {
		t.Errorf("leaf score = %v, want 0.05", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"a.py", "hub.py"}, {"b.py", "hub.py"}, {"hub.py", "c.py"},
	})
	// Fabricate saturated centralities to force the clamp.
	hub, _ := g.GetNode("hub.py")
	hub.Centrality = graph.Centrality{Betweenness: 1, Closeness: 1}

	got := Score(g, "hub.py")
	if got < 0 || got > 1 {
		t.Errorf("score %v out of [0,1]", got)
	}
}

func TestScoreImpacted_SkipsChangedFiles(t *testing.T) {
	g := buildGraph(t, [][2]string{{"a.py", "b.py"}, {"b.py", "c.py"}})

	scores := ScoreImpacted(g, []string{"a.py", "b.py", "c.py"}, []string{"a.py"})
	if _, ok := scores["a.py"]; ok {
		t.Error("changed file must not be scored")
	}
	if _, ok := scores["b.py"]; !ok {
		t.Error("impacted non-changed file must be scored")
	}
	if len(scores) != 2 {
		t.Errorf("expected 2 scores, got %d", len(scores))
	}
}

func TestScoreAll(t *testing.T) {
	g := buildGraph(t, [][2]string{{"a.py", "b.py"}, {"b.py", "c.py"}})
	scores := ScoreAll(g)
	if len(scores) != g.NodeCount() {
		t.Fatalf("expected a score per node, got %d", len(scores))
	}
	for id, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("score for %s out of range: %v", id, s)
		}
	}
}
