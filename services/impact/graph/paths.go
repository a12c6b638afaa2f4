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

// DefaultPathCutoff bounds simple-path depth when callers pass no cutoff.
const DefaultPathCutoff = 10

// AllSimplePaths enumerates directed simple paths from source to target.
//
// Description:
//
//	Depth-first enumeration of loop-free paths with at most cutoff edges,
//	stopping after maxPaths results. Neighbors are visited in adjacency
//	(insertion) order, which is deterministic for a given graph.
//
// Outputs:
//
//	[][]string - Each path as a node-id sequence including both endpoints.
//	Empty when either endpoint is missing or no path exists.
func AllSimplePaths(g *Graph, source, target string, cutoff, maxPaths int) [][]string {
	src, ok := g.GetNode(source)
	if !ok {
		return nil
	}
	if _, ok := g.GetNode(target); !ok {
		return nil
	}
	if cutoff <= 0 {
		cutoff = DefaultPathCutoff
	}
	if maxPaths <= 0 {
		maxPaths = 100
	}

	var paths [][]string
	onPath := make(map[string]bool, cutoff+1)
	stack := []string{src.ID}
	onPath[src.ID] = true

	var walk func(cur *Node)
	walk = func(cur *Node) {
		if len(paths) >= maxPaths {
			return
		}
		if cur.ID == target {
			paths = append(paths, append([]string(nil), stack...))
			return
		}
		if len(stack) > cutoff {
			return
		}
		for _, e := range cur.Outgoing {
			if onPath[e.ToID] {
				continue
			}
			next, _ := g.GetNode(e.ToID)
			stack = append(stack, next.ID)
			onPath[next.ID] = true
			walk(next)
			onPath[next.ID] = false
			stack = stack[:len(stack)-1]
		}
	}
	walk(src)
	return paths
}

// ShortestPath returns one shortest directed path from source to target by
// BFS, or nil when no path exists.
func ShortestPath(g *Graph, source, target string) []string {
	src, ok := g.GetNode(source)
	if !ok {
		return nil
	}
	dst, ok := g.GetNode(target)
	if !ok {
		return nil
	}
	if src == dst {
		return []string{src.ID}
	}

	prev := make(map[string]string, g.NodeCount())
	queue := []*Node{src}
	prev[src.ID] = src.ID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range cur.Outgoing {
			if _, seen := prev[e.ToID]; seen {
				continue
			}
			prev[e.ToID] = cur.ID
			if e.ToID == dst.ID {
				path := []string{dst.ID}
				for at := cur.ID; ; at = prev[at] {
					path = append(path, at)
					if at == src.ID {
						break
					}
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			next, _ := g.GetNode(e.ToID)
			queue = append(queue, next)
		}
	}
	return nil
}
