// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph implements the dependency graph: node and edge model,
// two-phase construction from parse results, centrality precomputation,
// structural metrics, and the storage/wire codecs.
package graph

import (
	"errors"
	"sync/atomic"

	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
)

// GraphState represents the lifecycle state of a Graph.
type GraphState int32

const (
	// StateBuilding allows AddNode and AddEdge calls.
	StateBuilding GraphState = iota

	// StateFrozen is read-only. All mutations fail with ErrGraphFrozen.
	StateFrozen
)

// NodeKind identifies what a node represents.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeFunction
	NodeClass
	NodeAsyncFunction

	// NumNodeKinds is the number of valid node kinds.
	NumNodeKinds
)

// nodeKindNames maps NodeKind values to their wire strings.
var nodeKindNames = map[NodeKind]string{
	NodeFile:          "file",
	NodeFunction:      "function",
	NodeClass:         "class",
	NodeAsyncFunction: "async_function",
}

// String returns the wire string for the kind ("unknown" for out-of-range
// values).
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// NodeKindFromString parses a wire string into a NodeKind. Unrecognized
// strings map to NodeFile, the least surprising default for path-shaped ids.
func NodeKindFromString(s string) NodeKind {
	for kind, name := range nodeKindNames {
		if name == s {
			return kind
		}
	}
	return NodeFile
}

// EdgeType identifies the relationship an edge represents. The dependency
// graph currently carries a single relationship, file-level imports; the
// enum exists so downstream indexes and the codec stay stable if more are
// added.
type EdgeType int

const (
	EdgeImport EdgeType = iota

	// NumEdgeTypes is the number of valid edge types.
	NumEdgeTypes
)

var edgeTypeNames = map[EdgeType]string{
	EdgeImport: "import",
}

// String returns the wire string for the edge type.
func (t EdgeType) String() string {
	if name, ok := edgeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// EdgeTypeFromString parses a wire string into an EdgeType. Unrecognized
// strings map to EdgeImport.
func EdgeTypeFromString(s string) EdgeType {
	for t, name := range edgeTypeNames {
		if name == s {
			return t
		}
	}
	return EdgeImport
}

// Centrality holds the three precomputed per-node centrality metrics.
// All values are in [0,1]; they are computed once on the frozen topology
// and never per query.
type Centrality struct {
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	// FromID and ToID are node ids. Both nodes exist in the graph.
	FromID string
	ToID   string

	// Type is the relationship kind.
	Type EdgeType

	// Weight is 1 for builder-produced edges; the wire format may carry
	// other values.
	Weight float64

	// Payload is the originating import, when the edge came from one.
	// Retained from the first import that produced the edge.
	Payload *artifact.ImportRef
}

// Node is a single vertex: a file or a symbol defined in a file.
type Node struct {
	// ID is the relative file path, or "path::name" for symbols.
	ID string

	// Kind distinguishes files from the symbol node kinds.
	Kind NodeKind

	// ParentFile is the defining file's path for symbol nodes, empty for
	// file nodes.
	ParentFile string

	// Index is the node's dense integer index, assigned at AddNode time.
	// Stable for the life of the graph; used for linear-time traversal
	// bookkeeping and as the gonum vertex id.
	Index int64

	// Centrality holds the precomputed metrics. Zero until the builder
	// attaches them.
	Centrality Centrality

	// Outgoing and Incoming are the adjacency lists.
	Outgoing []*Edge
	Incoming []*Edge
}

// Sentinel errors for graph mutation.
var (
	ErrGraphFrozen      = errors.New("graph is frozen")
	ErrInvalidNode      = errors.New("invalid node")
	ErrNodeNotFound     = errors.New("node not found")
	ErrSelfLoop         = errors.New("self-loop edge rejected")
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")
)

// GraphOptions configures capacity limits for a Graph.
type GraphOptions struct {
	// MaxNodes caps the node count. Zero means DefaultMaxNodes.
	MaxNodes int

	// MaxEdges caps the edge count. Zero means DefaultMaxEdges.
	MaxEdges int
}

const (
	DefaultMaxNodes = 500_000
	DefaultMaxEdges = 2_000_000
)

// DefaultGraphOptions returns the standard capacity limits.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{MaxNodes: DefaultMaxNodes, MaxEdges: DefaultMaxEdges}
}

// GraphOption mutates GraphOptions.
type GraphOption func(*GraphOptions)

// WithMaxNodes overrides the node capacity limit.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) { o.MaxNodes = n }
}

// WithMaxEdges overrides the edge capacity limit.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) { o.MaxEdges = n }
}

// Graph is a directed dependency graph over file and symbol nodes.
//
// Description:
//
//	Built in a single-goroutine building phase via AddNode/AddEdge, then
//	frozen. A frozen graph is immutable and safe for unlimited concurrent
//	readers with no locking; every analysis component operates on frozen
//	graphs only.
//
// Thread Safety:
//
//	NOT safe for concurrent mutation while building. Safe for concurrent
//	reads after Freeze().
type Graph struct {
	// RepoID and Branch identify the source the graph was built from.
	RepoID string
	Branch string

	// BuiltAtMilli is the Unix timestamp in milliseconds set by Freeze().
	BuiltAtMilli int64

	state atomic.Int32

	opts GraphOptions

	nodes map[string]*Node
	order []*Node // insertion order; order[i].Index == int64(i)
	edges []*Edge

	nodesByKind map[NodeKind][]*Node

	// edgeIndex deduplicates edges: fromID -> toID -> existing edge.
	edgeIndex map[string]map[string]*Edge
}

// NewGraph creates an empty graph in building state.
func NewGraph(repoID, branch string, opts ...GraphOption) *Graph {
	o := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.MaxEdges <= 0 {
		o.MaxEdges = DefaultMaxEdges
	}
	return &Graph{
		RepoID:      repoID,
		Branch:      branch,
		opts:        o,
		nodes:       make(map[string]*Node),
		nodesByKind: make(map[NodeKind][]*Node),
		edgeIndex:   make(map[string]map[string]*Edge),
	}
}

// State returns the current lifecycle state.
func (g *Graph) State() GraphState {
	return GraphState(g.state.Load())
}

// IsFrozen reports whether the graph is read-only.
func (g *Graph) IsFrozen() bool {
	return g.State() == StateFrozen
}

// AddNode inserts or updates a node.
//
// Description:
//
//	Inserts a node with the given id and kind. If the id already exists
//	the node's kind and parent file are overwritten in place (last writer
//	wins) and the existing node is returned; its index and edges are
//	preserved. This is how same-name symbol collisions across kinds
//	resolve deterministically.
//
// Errors:
//
//	ErrGraphFrozen if the graph is frozen, ErrInvalidNode for an empty id,
//	ErrMaxNodesExceeded at capacity.
func (g *Graph) AddNode(id string, kind NodeKind, parentFile string) (*Node, error) {
	if g.IsFrozen() {
		return nil, ErrGraphFrozen
	}
	if id == "" {
		return nil, ErrInvalidNode
	}

	if existing, ok := g.nodes[id]; ok {
		g.removeFromKindIndex(existing)
		existing.Kind = kind
		existing.ParentFile = parentFile
		g.nodesByKind[kind] = append(g.nodesByKind[kind], existing)
		return existing, nil
	}

	if len(g.nodes) >= g.opts.MaxNodes {
		return nil, ErrMaxNodesExceeded
	}

	n := &Node{
		ID:         id,
		Kind:       kind,
		ParentFile: parentFile,
		Index:      int64(len(g.order)),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
	g.nodesByKind[kind] = append(g.nodesByKind[kind], n)
	return n, nil
}

func (g *Graph) removeFromKindIndex(n *Node) {
	bucket := g.nodesByKind[n.Kind]
	for i, other := range bucket {
		if other == n {
			g.nodesByKind[n.Kind] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// AddEdge inserts a directed edge between two existing nodes.
//
// Description:
//
//	Adds from -> to with the given type and payload. Duplicate (from, to)
//	pairs collapse onto the existing edge; the first payload is retained
//	and the existing edge is returned. Self-loops are rejected.
//
// Errors:
//
//	ErrGraphFrozen, ErrNodeNotFound if either endpoint is absent,
//	ErrSelfLoop if from == to, ErrMaxEdgesExceeded at capacity.
func (g *Graph) AddEdge(fromID, toID string, t EdgeType, payload *artifact.ImportRef) (*Edge, error) {
	if g.IsFrozen() {
		return nil, ErrGraphFrozen
	}
	if fromID == toID {
		return nil, ErrSelfLoop
	}
	from, ok := g.nodes[fromID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	to, ok := g.nodes[toID]
	if !ok {
		return nil, ErrNodeNotFound
	}

	if existing, ok := g.edgeIndex[fromID][toID]; ok {
		return existing, nil
	}

	if len(g.edges) >= g.opts.MaxEdges {
		return nil, ErrMaxEdgesExceeded
	}

	e := &Edge{FromID: fromID, ToID: toID, Type: t, Weight: 1, Payload: payload}
	g.edges = append(g.edges, e)
	from.Outgoing = append(from.Outgoing, e)
	to.Incoming = append(to.Incoming, e)

	if g.edgeIndex[fromID] == nil {
		g.edgeIndex[fromID] = make(map[string]*Edge)
	}
	g.edgeIndex[fromID][toID] = e
	return e, nil
}

// Freeze transitions the graph to the read-only state and stamps
// BuiltAtMilli. Idempotent.
func (g *Graph) Freeze() {
	if g.state.CompareAndSwap(int32(StateBuilding), int32(StateFrozen)) {
		g.BuiltAtMilli = nowMilli()
	}
}

// GetNode returns the node with the given id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasEdge reports whether a from -> to edge exists.
func (g *Graph) HasEdge(fromID, toID string) bool {
	_, ok := g.edgeIndex[fromID][toID]
	return ok
}

// Nodes returns all nodes in insertion order. Callers must not mutate the
// returned slice.
func (g *Graph) Nodes() []*Node {
	return g.order
}

// Edges returns all edges in insertion order. Callers must not mutate the
// returned slice.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodesByKind returns all nodes of one kind.
func (g *Graph) NodesByKind(kind NodeKind) []*Node {
	return g.nodesByKind[kind]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// NodeTypeCounts returns a kind-string -> count map for the store document.
func (g *Graph) NodeTypeCounts() map[string]int {
	counts := make(map[string]int, NumNodeKinds)
	for kind, bucket := range g.nodesByKind {
		if len(bucket) > 0 {
			counts[kind.String()] = len(bucket)
		}
	}
	return counts
}
