// File: methods_edges.go
// Role: Edge lifecycle & queries: AddEdge/RemoveEdge/SetWeight/Edge/OutEdges/Edges.
// Determinism:
//   - out[v] is kept sorted by destination handle.
//   - Edges() returns edges sorted by (From, To).
// Concurrency:
//   - Mutations under the write lock; queries under the read lock.

package core

import (
	"fmt"
	"math"
	"sort"
)

// AddEdge inserts the directed edge from→to, or overwrites weight and payload
// when the pair is already connected.
//
// Steps:
//  1. Validate weight and loop policy.
//  2. Lock; ensure both endpoints are live.
//  3. Binary-search out[from]; overwrite in place or insert keeping order.
//  4. Record the reverse link in in[to].
//
// Complexity: O(deg(from)) for the ordered insert.
func (g *Graph) AddEdge(from, to NodeID, weight float64, data interface{}) error {
	// 1) Input validation
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrBadWeight
	}
	if from == to && !g.allowLoops {
		return ErrLoopNotAllowed
	}

	// 2) Endpoints
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.liveLocked(from) {
		return fmt.Errorf("%w: %d", ErrVertexNotFound, from)
	}
	if !g.liveLocked(to) {
		return fmt.Errorf("%w: %d", ErrVertexNotFound, to)
	}

	// 3) Ordered insert or overwrite
	list := g.out[from]
	i := sort.Search(len(list), func(k int) bool { return list[k].To >= to })
	if i < len(list) && list[i].To == to {
		list[i].Weight = weight
		list[i].Data = data
		return nil
	}
	e := &Edge{From: from, To: to, Weight: weight, Data: data}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = e
	g.out[from] = list

	// 4) Reverse link
	g.in[to][from] = struct{}{}
	g.edgeCount++

	return nil
}

// RemoveEdge deletes the edge from→to.
// Complexity: O(deg(from)).
func (g *Graph) RemoveEdge(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.liveLocked(from) || !g.liveLocked(to) {
		return fmt.Errorf("%w: %d→%d", ErrEdgeNotFound, from, to)
	}
	if !g.removeOutLocked(from, to) {
		return fmt.Errorf("%w: %d→%d", ErrEdgeNotFound, from, to)
	}
	delete(g.in[to], from)
	g.edgeCount--

	return nil
}

// SetWeight replaces the weight of an existing edge.
// Complexity: O(log deg(from)).
func (g *Graph) SetWeight(from, to NodeID, weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrBadWeight
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.findLocked(from, to)
	if e == nil {
		return fmt.Errorf("%w: %d→%d", ErrEdgeNotFound, from, to)
	}
	e.Weight = weight

	return nil
}

// Edge returns a copy of the edge from→to, if present.
func (g *Graph) Edge(from, to NodeID) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e := g.findLocked(from, to)
	if e == nil {
		return Edge{}, false
	}

	return *e, true
}

// OutEdges returns copies of the outgoing edges of id, sorted by destination.
func (g *Graph) OutEdges(id NodeID) ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.liveLocked(id) {
		return nil, fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}
	out := make([]Edge, len(g.out[id]))
	for i, e := range g.out[id] {
		out[i] = *e
	}

	return out, nil
}

// ForEachOut calls fn for every outgoing edge of id in destination order,
// stopping early when fn returns false. fn runs under the read lock and must
// not mutate the graph.
func (g *Graph) ForEachOut(id NodeID, fn func(e Edge) bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.liveLocked(id) {
		return fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}
	for _, e := range g.out[id] {
		if !fn(*e) {
			return nil
		}
	}

	return nil
}

// InDegree returns the number of edges ending at id.
func (g *Graph) InDegree(id NodeID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.liveLocked(id) {
		return 0, fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}

	return len(g.in[id]), nil
}

// Edges returns copies of all edges sorted by (From, To).
// Complexity: O(V + E)
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	all := make([]Edge, 0, g.edgeCount)
	for _, list := range g.out {
		for _, e := range list {
			all = append(all, *e)
		}
	}

	return all
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.edgeCount
}

// findLocked returns the stored edge pointer for from→to or nil.
func (g *Graph) findLocked(from, to NodeID) *Edge {
	if !g.liveLocked(from) {
		return nil
	}
	list := g.out[from]
	i := sort.Search(len(list), func(k int) bool { return list[k].To >= to })
	if i < len(list) && list[i].To == to {
		return list[i]
	}

	return nil
}

// removeOutLocked deletes to from out[from], reporting whether it was present.
func (g *Graph) removeOutLocked(from, to NodeID) bool {
	list := g.out[from]
	i := sort.Search(len(list), func(k int) bool { return list[k].To >= to })
	if i >= len(list) || list[i].To != to {
		return false
	}
	copy(list[i:], list[i+1:])
	list[len(list)-1] = nil
	g.out[from] = list[:len(list)-1]

	return true
}
