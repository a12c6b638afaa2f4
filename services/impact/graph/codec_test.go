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
	"testing"
	"time"

	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
)

func buildCodecTestGraph(t *testing.T) *Graph {
	t.Helper()
	results := artifact.Set{
		"services/auth/login.py": testResult([]string{"services.db.models"},
			[]string{"login"}, nil, []string{"refresh"}),
		"services/db/models.py": testResult(nil, nil, []string{"User"}, nil),
	}
	g, _, err := NewBuilder().Build(context.Background(), "myrepo", "main", results)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func TestEncode_DocumentShape(t *testing.T) {
	g := buildCodecTestGraph(t)
	doc := Encode(g)

	if doc.GraphID == "" {
		t.Error("expected a graph_id")
	}
	if doc.RepoID != "myrepo" || doc.Branch != "main" {
		t.Errorf("identity mismatch: %s/%s", doc.RepoID, doc.Branch)
	}
	if _, err := time.Parse(time.RFC3339, doc.CreatedAt); err != nil {
		t.Errorf("created_at is not RFC3339: %q", doc.CreatedAt)
	}
	if doc.NodesCount != g.NodeCount() || len(doc.Nodes) != g.NodeCount() {
		t.Errorf("node counts inconsistent: %d/%d/%d",
			doc.NodesCount, len(doc.Nodes), g.NodeCount())
	}
	if doc.EdgesCount != g.EdgeCount() || len(doc.Edges) != g.EdgeCount() {
		t.Errorf("edge counts inconsistent: %d/%d/%d",
			doc.EdgesCount, len(doc.Edges), g.EdgeCount())
	}
	if doc.NodeTypes["file"] != 2 {
		t.Errorf("expected 2 file nodes in node_types, got %v", doc.NodeTypes)
	}

	// Sorted output.
	for i := 1; i < len(doc.Nodes); i++ {
		if doc.Nodes[i-1].ID >= doc.Nodes[i].ID {
			t.Fatalf("nodes not sorted at %d: %q >= %q", i, doc.Nodes[i-1].ID, doc.Nodes[i].ID)
		}
	}
	for _, e := range doc.Edges {
		if e.Weight != 1 {
			t.Errorf("builder edge weight should be 1, got %v", e.Weight)
		}
		if e.Type != "import" {
			t.Errorf("expected edge type import, got %q", e.Type)
		}
	}
}

func TestEncode_FreshGraphIDPerCall(t *testing.T) {
	g := buildCodecTestGraph(t)
	if Encode(g).GraphID == Encode(g).GraphID {
		t.Error("each encode must assign a fresh graph_id")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	g := buildCodecTestGraph(t)
	doc := Encode(g)

	restored, err := Decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !restored.IsFrozen() {
		t.Error("decoded graph must be frozen")
	}
	if restored.NodeCount() != g.NodeCount() || restored.EdgeCount() != g.EdgeCount() {
		t.Fatalf("size mismatch after round trip: %d/%d vs %d/%d",
			restored.NodeCount(), restored.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}

	for _, orig := range g.Nodes() {
		n, ok := restored.GetNode(orig.ID)
		if !ok {
			t.Fatalf("missing node %s after round trip", orig.ID)
		}
		if n.Kind != orig.Kind {
			t.Errorf("node %s: kind %s, want %s", orig.ID, n.Kind, orig.Kind)
		}
		if n.ParentFile != orig.ParentFile {
			t.Errorf("node %s: parent %q, want %q", orig.ID, n.ParentFile, orig.ParentFile)
		}
		if n.Centrality != orig.Centrality {
			t.Errorf("node %s: centrality %+v, want %+v", orig.ID, n.Centrality, orig.Centrality)
		}
	}
	for _, e := range g.Edges() {
		if !restored.HasEdge(e.FromID, e.ToID) {
			t.Errorf("missing edge %s -> %s after round trip", e.FromID, e.ToID)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Error("expected error for nil document")
	}
	if _, err := Decode(&Document{
		Edges: []DocumentEdge{{Source: "a.py", Target: "b.py", Type: "import"}},
	}); err == nil {
		t.Error("expected error for edge with missing endpoints")
	}
}

func TestEncodeNodeLink_Shape(t *testing.T) {
	g := buildCodecTestGraph(t)
	doc := EncodeNodeLink(g)

	if !doc.Directed || doc.Multigraph {
		t.Error("expected directed=true multigraph=false")
	}
	if doc.Graph == nil || len(doc.Graph) != 0 {
		t.Error("graph attribute must be an empty object")
	}
	if len(doc.Nodes) != g.NodeCount() || len(doc.Links) != g.EdgeCount() {
		t.Errorf("counts mismatch: %d/%d vs %d/%d",
			len(doc.Nodes), len(doc.Links), g.NodeCount(), g.EdgeCount())
	}
	for _, l := range doc.Links {
		if l.Weight == nil || *l.Weight != 1 {
			t.Errorf("link %s -> %s: expected weight 1", l.Source, l.Target)
		}
	}
}

func TestDecodeNodeLink_Defaults(t *testing.T) {
	// Sparse document: no node list entries for link endpoints, no types,
	// no weights.
	doc := &NodeLinkDocument{
		Directed:   true,
		Multigraph: false,
		Graph:      map[string]any{},
		Links: []NodeLinkLink{
			{Source: "a.py", Target: "b.py"},
		},
	}
	g, err := DecodeNodeLink(doc, "repo", "main")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("expected link endpoints created as nodes, got %d", g.NodeCount())
	}
	a, _ := g.GetNode("a.py")
	if a.Kind != NodeFile {
		t.Errorf("absent type should read as file, got %s", a.Kind)
	}
	if a.Centrality != (Centrality{}) {
		t.Errorf("absent centralities should read as 0, got %+v", a.Centrality)
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0].Weight != 1 {
		t.Errorf("absent weight should default to 1, got %+v", edges)
	}
}

func TestDecodeNodeLink_DropsSelfLoopsAndDuplicates(t *testing.T) {
	w2 := 2.0
	doc := &NodeLinkDocument{
		Directed: true,
		Graph:    map[string]any{},
		Nodes: []NodeLinkNode{
			{ID: "a.py", Type: "file"},
			{ID: "b.py", Type: "file"},
		},
		Links: []NodeLinkLink{
			{Source: "a.py", Target: "a.py"},
			{Source: "a.py", Target: "b.py"},
			{Source: "a.py", Target: "b.py", Weight: &w2},
		},
	}
	g, err := DecodeNodeLink(doc, "repo", "main")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge after dropping self-loop and duplicate, got %d", g.EdgeCount())
	}
	// First link wins; the duplicate's weight is not applied.
	if g.Edges()[0].Weight != 1 {
		t.Errorf("expected first-link weight 1, got %v", g.Edges()[0].Weight)
	}
}

func TestDecodeNodeLink_Errors(t *testing.T) {
	if _, err := DecodeNodeLink(nil, "repo", "main"); err == nil {
		t.Error("expected error for nil document")
	}
	if _, err := DecodeNodeLink(&NodeLinkDocument{
		Links: []NodeLinkLink{{Source: "", Target: "b.py"}},
	}, "repo", "main"); err == nil {
		t.Error("expected error for empty link endpoint")
	}
}

func TestParentFileOf(t *testing.T) {
	if got := parentFileOf("a/b.py::func"); got != "a/b.py" {
		t.Errorf("parentFileOf symbol = %q, want a/b.py", got)
	}
	if got := parentFileOf("a/b.py"); got != "" {
		t.Errorf("parentFileOf file = %q, want empty", got)
	}
}
