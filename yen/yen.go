// SPDX-License-Identifier: MIT

// Package yen enumerates the k cheapest loopless paths between two vertices
// of a core.Graph (Yen, 1971).
//
// Spur searches never mutate the graph. Removed edges and root vertices are
// expressed as dijkstra filters, so a KShortest call can run concurrently with
// other readers of the same graph.
//
// When fewer than k loopless paths exist the result carries every path found
// and reports the difference as Shortfall.
package yen

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/dijkstra"
)

// Sentinel errors.
var (
	// ErrBadK indicates k < 1.
	ErrBadK = errors.New("yen: k must be >= 1")

	// ErrNilGraph indicates a nil graph.
	ErrNilGraph = errors.New("yen: graph is nil")
)

// Path is one loopless path with its total weight.
type Path struct {
	Nodes []core.NodeID
	Cost  float64
}

// Result is the outcome of a KShortest call.
type Result struct {
	// Paths are ordered by non-decreasing cost; ties keep discovery order.
	Paths []Path
	// Requested is the k that was asked for.
	Requested int
	// Shortfall is Requested − len(Paths), never negative.
	Shortfall int
}

// KShortest returns up to k loopless src→dst paths in cost order.
//
// Steps:
//  1. Find the shortest path. If none exists, return an empty Result.
//  2. For each accepted path and each spur index i:
//     a) root = path[:i+1]; hide edges (path[i], path[i+1]) of every
//     accepted path sharing this root; hide root vertices except the spur.
//     b) spur = ShortestPath(spur, dst) on the filtered view.
//     c) push root+spur as a candidate unless already seen.
//  3. Accept the cheapest candidate; repeat until k paths or no candidates.
//
// Errors: ErrBadK, ErrNilGraph, dijkstra validation errors, ctx errors.
// Complexity: O(k·V·(V+E) log V).
func KShortest(ctx context.Context, g *core.Graph, src, dst core.NodeID, k int) (*Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBadK, k)
	}
	if g == nil {
		return nil, ErrNilGraph
	}

	res := &Result{Requested: k}

	// 1) Shortest path
	first, c, err := dijkstra.ShortestPath(ctx, g, src, dst)
	if errors.Is(err, dijkstra.ErrNoPath) {
		res.Shortfall = k
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Paths = append(res.Paths, Path{Nodes: first, Cost: c})

	seen := map[string]struct{}{pathKey(first): {}}
	cands := &candidateHeap{}
	var seq int

	for len(res.Paths) < k {
		last := res.Paths[len(res.Paths)-1].Nodes

		// 2) Spur from each node of the last accepted path
		for i := 0; i < len(last)-1; i++ {
			if err = ctx.Err(); err != nil {
				return nil, fmt.Errorf("yen: %w", err)
			}
			spur := last[i]
			root := last[:i+1]

			// 2a) Hidden edges and vertices
			hidden := make(map[[2]core.NodeID]struct{})
			for _, p := range res.Paths {
				if len(p.Nodes) > i+1 && samePrefix(p.Nodes, root) {
					hidden[[2]core.NodeID{p.Nodes[i], p.Nodes[i+1]}] = struct{}{}
				}
			}
			excluded := make(map[core.NodeID]struct{}, i)
			for _, v := range root[:i] {
				excluded[v] = struct{}{}
			}
			skip := func(from, to core.NodeID) bool {
				_, ok := hidden[[2]core.NodeID{from, to}]
				return ok
			}

			// 2b) Spur path
			tail, tailCost, err := dijkstra.ShortestPath(ctx, g, spur, dst,
				dijkstra.WithEdgeFilter(skip),
				dijkstra.WithExcludedVertices(excluded),
			)
			if errors.Is(err, dijkstra.ErrNoPath) {
				continue
			}
			if err != nil {
				return nil, err
			}

			// 2c) Candidate
			nodes := make([]core.NodeID, 0, len(root)+len(tail)-1)
			nodes = append(nodes, root[:i]...)
			nodes = append(nodes, tail...)
			key := pathKey(nodes)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rootCost, err := costOf(g, root)
			if err != nil {
				return nil, err
			}
			heap.Push(cands, candidate{Path: Path{Nodes: nodes, Cost: rootCost + tailCost}, seq: seq})
			seq++
		}

		// 3) Accept the cheapest
		if cands.Len() == 0 {
			break
		}
		best := heap.Pop(cands).(candidate)
		res.Paths = append(res.Paths, best.Path)
	}

	res.Shortfall = k - len(res.Paths)

	return res, nil
}

// costOf sums edge weights along nodes.
func costOf(g *core.Graph, nodes []core.NodeID) (float64, error) {
	var total float64
	for i := 0; i+1 < len(nodes); i++ {
		e, ok := g.Edge(nodes[i], nodes[i+1])
		if !ok {
			return 0, fmt.Errorf("yen: %w: %d->%d", core.ErrEdgeNotFound, nodes[i], nodes[i+1])
		}
		total += e.Weight
	}
	return total, nil
}

func samePrefix(p, root []core.NodeID) bool {
	for j, v := range root {
		if p[j] != v {
			return false
		}
	}
	return true
}

func pathKey(nodes []core.NodeID) string {
	var sb strings.Builder
	for i, v := range nodes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}

type candidate struct {
	Path
	seq int
}

// candidateHeap is a min-heap ordered by (Cost, seq).
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].Cost != h[j].Cost {
		return h[i].Cost < h[j].Cost
	}
	return h[i].seq < h[j].seq
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
