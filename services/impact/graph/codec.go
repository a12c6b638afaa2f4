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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is the persisted representation of a graph.
//
// Description:
//
//	Carries everything needed to reconstruct the topology and per-node
//	centralities, plus whole-graph metrics for reporting. Parse-level
//	payloads (the originating imports) are intentionally not preserved:
//	the codec is lossless for structure and centralities, lossy for
//	ParseResult payloads.
//
// Thread Safety: Document is a value type; treat as immutable once encoded.
type Document struct {
	GraphID    string         `json:"graph_id"`
	RepoID     string         `json:"repo_id"`
	Branch     string         `json:"branch"`
	CreatedAt  string         `json:"created_at"`
	NodesCount int            `json:"nodes_count"`
	EdgesCount int            `json:"edges_count"`
	NodeTypes  map[string]int `json:"node_types"`
	Nodes      []DocumentNode `json:"nodes"`
	Edges      []DocumentEdge `json:"edges"`
	Metrics    Metrics        `json:"metrics"`
}

// DocumentNode is one node in the persisted representation.
type DocumentNode struct {
	ID                    string  `json:"id"`
	Type                  string  `json:"type"`
	DegreeCentrality      float64 `json:"degree_centrality"`
	BetweennessCentrality float64 `json:"betweenness_centrality"`
	ClosenessCentrality   float64 `json:"closeness_centrality"`
}

// DocumentEdge is one edge in the persisted representation.
type DocumentEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Encode converts a frozen graph to its persisted document.
//
// Description:
//
//	Nodes are sorted by id and edges by (source, target) so two encodes of
//	the same graph differ only in graph_id and created_at. A fresh UUID is
//	assigned on every call; old documents for the same (repo_id, branch)
//	are superseded, never mutated.
//
// Complexity: O(V log V + E log E).
func Encode(g *Graph) *Document {
	nodes := make([]DocumentNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, DocumentNode{
			ID:                    n.ID,
			Type:                  n.Kind.String(),
			DegreeCentrality:      n.Centrality.Degree,
			BetweennessCentrality: n.Centrality.Betweenness,
			ClosenessCentrality:   n.Centrality.Closeness,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]DocumentEdge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		edges = append(edges, DocumentEdge{
			Source: e.FromID,
			Target: e.ToID,
			Type:   e.Type.String(),
			Weight: e.Weight,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return &Document{
		GraphID:    uuid.NewString(),
		RepoID:     g.RepoID,
		Branch:     g.Branch,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		NodesCount: len(nodes),
		EdgesCount: len(edges),
		NodeTypes:  g.NodeTypeCounts(),
		Nodes:      nodes,
		Edges:      edges,
		Metrics:    ComputeMetrics(g),
	}
}

// Decode reconstructs a frozen graph from a persisted document.
//
// Description:
//
//	Rebuilds nodes, edges, and stored centralities through the normal
//	construction path so all indexes are consistent, then freezes. Stored
//	centralities are restored verbatim rather than recomputed.
//
// Errors:
//
//	Non-nil if the document is nil or an edge references a missing node.
func Decode(doc *Document) (*Graph, error) {
	if doc == nil {
		return nil, fmt.Errorf("document must not be nil")
	}

	g := NewGraph(doc.RepoID, doc.Branch)
	for i, dn := range doc.Nodes {
		if dn.ID == "" {
			return nil, fmt.Errorf("node at index %d has empty id", i)
		}
		n, err := g.AddNode(dn.ID, NodeKindFromString(dn.Type), parentFileOf(dn.ID))
		if err != nil {
			return nil, fmt.Errorf("adding node %s: %w", dn.ID, err)
		}
		n.Centrality = Centrality{
			Degree:      dn.DegreeCentrality,
			Betweenness: dn.BetweennessCentrality,
			Closeness:   dn.ClosenessCentrality,
		}
	}
	for i, de := range doc.Edges {
		e, err := g.AddEdge(de.Source, de.Target, EdgeTypeFromString(de.Type), nil)
		if err != nil {
			return nil, fmt.Errorf("adding edge %d (%s -> %s): %w", i, de.Source, de.Target, err)
		}
		if de.Weight != 0 {
			e.Weight = de.Weight
		}
	}
	g.Freeze()
	return g, nil
}

// parentFileOf derives the defining file of a symbol id. File ids have no
// separator and get an empty parent.
func parentFileOf(id string) string {
	if idx := strings.Index(id, "::"); idx > 0 {
		return id[:idx]
	}
	return ""
}

// NodeLinkDocument is the wire-level node-link representation exchanged
// with callers. Field layout is bit-stable: directed is always true,
// multigraph always false, graph always an empty object.
type NodeLinkDocument struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []NodeLinkNode `json:"nodes"`
	Links      []NodeLinkLink `json:"links"`
}

// NodeLinkNode is one node on the wire. All fields except id are optional
// on input; absent centralities read as 0 and an absent type as "unknown".
type NodeLinkNode struct {
	ID                    string  `json:"id"`
	Type                  string  `json:"type,omitempty"`
	DegreeCentrality      float64 `json:"degree_centrality"`
	BetweennessCentrality float64 `json:"betweenness_centrality"`
	ClosenessCentrality   float64 `json:"closeness_centrality"`
}

// NodeLinkLink is one edge on the wire. Weight defaults to 1 when absent,
// hence the pointer.
type NodeLinkLink struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   string   `json:"type,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// EncodeNodeLink converts a frozen graph to the wire node-link document
// with nodes and links in sorted order.
func EncodeNodeLink(g *Graph) *NodeLinkDocument {
	nodes := make([]NodeLinkNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, NodeLinkNode{
			ID:                    n.ID,
			Type:                  n.Kind.String(),
			DegreeCentrality:      n.Centrality.Degree,
			BetweennessCentrality: n.Centrality.Betweenness,
			ClosenessCentrality:   n.Centrality.Closeness,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	links := make([]NodeLinkLink, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		w := e.Weight
		links = append(links, NodeLinkLink{
			Source: e.FromID,
			Target: e.ToID,
			Type:   e.Type.String(),
			Weight: &w,
		})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})

	return &NodeLinkDocument{
		Directed:   true,
		Multigraph: false,
		Graph:      map[string]any{},
		Nodes:      nodes,
		Links:      links,
	}
}

// DecodeNodeLink reconstructs a frozen graph from a wire document.
//
// Description:
//
//	Tolerant of sparse input: nodes referenced only by links are created
//	as file nodes, absent types read as files, absent weights as 1.
//	Self-loops and duplicate links are dropped silently, matching the
//	builder's invariants.
//
// Errors:
//
//	Non-nil only for a nil document or a link with an empty endpoint.
func DecodeNodeLink(doc *NodeLinkDocument, repoID, branch string) (*Graph, error) {
	if doc == nil {
		return nil, fmt.Errorf("node-link document must not be nil")
	}

	g := NewGraph(repoID, branch)
	for i, dn := range doc.Nodes {
		if dn.ID == "" {
			return nil, fmt.Errorf("node at index %d has empty id", i)
		}
		n, err := g.AddNode(dn.ID, NodeKindFromString(dn.Type), parentFileOf(dn.ID))
		if err != nil {
			return nil, fmt.Errorf("adding node %s: %w", dn.ID, err)
		}
		n.Centrality = Centrality{
			Degree:      dn.DegreeCentrality,
			Betweenness: dn.BetweennessCentrality,
			Closeness:   dn.ClosenessCentrality,
		}
	}

	for i, link := range doc.Links {
		if link.Source == "" || link.Target == "" {
			return nil, fmt.Errorf("link at index %d has an empty endpoint", i)
		}
		for _, id := range []string{link.Source, link.Target} {
			if _, ok := g.GetNode(id); !ok {
				if _, err := g.AddNode(id, NodeFile, parentFileOf(id)); err != nil {
					return nil, fmt.Errorf("adding link endpoint %s: %w", id, err)
				}
			}
		}
		if link.Source == link.Target || g.HasEdge(link.Source, link.Target) {
			continue
		}
		e, err := g.AddEdge(link.Source, link.Target, EdgeTypeFromString(link.Type), nil)
		if err != nil {
			return nil, fmt.Errorf("adding link %d (%s -> %s): %w", i, link.Source, link.Target, err)
		}
		if link.Weight != nil {
			e.Weight = *link.Weight
		}
	}
	g.Freeze()
	return g, nil
}
