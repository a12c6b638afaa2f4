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
	"reflect"
	"testing"
)

// diamondGraph builds a -> {b, c} -> d plus a direct a -> d edge.
func diamondGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("repo", "main")
	for _, id := range []string{"a.py", "b.py", "c.py", "d.py"} {
		if _, err := g.AddNode(id, NodeFile, ""); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge("a.py", "b.py", EdgeImport, nil)
	g.AddEdge("a.py", "c.py", EdgeImport, nil)
	g.AddEdge("b.py", "d.py", EdgeImport, nil)
	g.AddEdge("c.py", "d.py", EdgeImport, nil)
	g.AddEdge("a.py", "d.py", EdgeImport, nil)
	g.Freeze()
	return g
}

func TestAllSimplePaths_Diamond(t *testing.T) {
	g := diamondGraph(t)
	paths := AllSimplePaths(g, "a.py", "d.py", 0, 0)
	if len(paths) != 3 {
		t.Fatalf("expected 3 simple paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if p[0] != "a.py" || p[len(p)-1] != "d.py" {
			t.Errorf("path endpoints wrong: %v", p)
		}
	}
}

func TestAllSimplePaths_CutoffAndLimit(t *testing.T) {
	g := diamondGraph(t)

	// Cutoff 1 admits only the direct edge.
	short := AllSimplePaths(g, "a.py", "d.py", 1, 0)
	if len(short) != 1 || len(short[0]) != 2 {
		t.Errorf("cutoff=1 should keep only the direct path, got %v", short)
	}

	limited := AllSimplePaths(g, "a.py", "d.py", 0, 2)
	if len(limited) != 2 {
		t.Errorf("maxPaths=2 should stop at 2 paths, got %d", len(limited))
	}
}

func TestAllSimplePaths_MissingEndpoints(t *testing.T) {
	g := diamondGraph(t)
	if got := AllSimplePaths(g, "missing.py", "d.py", 0, 0); got != nil {
		t.Errorf("expected nil for missing source, got %v", got)
	}
	if got := AllSimplePaths(g, "a.py", "missing.py", 0, 0); got != nil {
		t.Errorf("expected nil for missing target, got %v", got)
	}
}

func TestAllSimplePaths_NoPath(t *testing.T) {
	g := diamondGraph(t)
	// Edges are directed; nothing reaches back to a.
	if got := AllSimplePaths(g, "d.py", "a.py", 0, 0); len(got) != 0 {
		t.Errorf("expected no paths, got %v", got)
	}
}

func TestShortestPath(t *testing.T) {
	g := diamondGraph(t)

	if got := ShortestPath(g, "a.py", "d.py"); !reflect.DeepEqual(got, []string{"a.py", "d.py"}) {
		t.Errorf("shortest a->d = %v, want the direct edge", got)
	}
	if got := ShortestPath(g, "b.py", "d.py"); !reflect.DeepEqual(got, []string{"b.py", "d.py"}) {
		t.Errorf("shortest b->d = %v", got)
	}
	if got := ShortestPath(g, "a.py", "a.py"); !reflect.DeepEqual(got, []string{"a.py"}) {
		t.Errorf("shortest a->a = %v, want single-node path", got)
	}
	if got := ShortestPath(g, "d.py", "a.py"); got != nil {
		t.Errorf("expected nil for unreachable target, got %v", got)
	}
	if got := ShortestPath(g, "missing.py", "a.py"); got != nil {
		t.Errorf("expected nil for missing source, got %v", got)
	}
}
