// File: methods_vertices.go
// Role: Vertex lifecycle & queries: AddVertex/Lookup/Vertex/RemoveVertex/Vertices.
// Determinism:
//   - Vertices() returns live handles in ascending order.
// Concurrency:
//   - Mutations under the write lock; queries under the read lock.

package core

import "fmt"

// AddVertex inserts a vertex with the given key, or returns the existing handle
// when the key is already present (the payload is left untouched in that case).
//
// Steps:
//  1. Validate key.
//  2. Return the indexed handle if the key exists.
//  3. Reuse the most recently freed slot, or append a new one.
//
// Complexity: O(1) amortized.
func (g *Graph) AddVertex(key string, data interface{}) (NodeID, error) {
	// 1) Input validation
	if key == "" {
		return InvalidNode, ErrEmptyKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// 2) Idempotent on key
	if id, ok := g.index[key]; ok {
		return id, nil
	}

	// 3) Allocate arena slot
	var id NodeID
	if k := len(g.free); k > 0 {
		id = g.free[k-1]
		g.free = g.free[:k-1]
		g.vertices[id] = &Vertex{ID: id, Key: key, Data: data}
		g.in[id] = make(map[NodeID]struct{})
	} else {
		id = NodeID(len(g.vertices))
		g.vertices = append(g.vertices, &Vertex{ID: id, Key: key, Data: data})
		g.out = append(g.out, nil)
		g.in = append(g.in, make(map[NodeID]struct{}))
	}
	g.index[key] = id
	g.live++

	return id, nil
}

// Lookup returns the handle registered for key.
// Complexity: O(1)
func (g *Graph) Lookup(key string) (NodeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.index[key]

	return id, ok
}

// HasVertex reports whether id names a live vertex.
func (g *Graph) HasVertex(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.liveLocked(id)
}

// Vertex returns a copy of the vertex record for id.
func (g *Graph) Vertex(id NodeID) (Vertex, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.liveLocked(id) {
		return Vertex{}, fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}

	return *g.vertices[id], nil
}

// RemoveVertex deletes the vertex and every incident edge.
// The handle becomes a tombstone and its key is released. The next AddVertex
// reuses the slot, so handles held past removal must not be trusted.
//
// Complexity: O(out(v) + in(v)·deg).
func (g *Graph) RemoveVertex(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.liveLocked(id) {
		return fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}

	// 1) Drop outgoing edges and their reverse links.
	for _, e := range g.out[id] {
		delete(g.in[e.To], id)
	}
	g.edgeCount -= len(g.out[id])
	g.out[id] = nil

	// 2) Drop incoming edges from each predecessor's sorted list.
	for from := range g.in[id] {
		if g.removeOutLocked(from, id) {
			g.edgeCount--
		}
	}
	g.in[id] = nil

	// 3) Tombstone the slot.
	delete(g.index, g.vertices[id].Key)
	g.vertices[id] = nil
	g.free = append(g.free, id)
	g.live--

	return nil
}

// Vertices returns all live handles in ascending order.
// Complexity: O(|arena|)
func (g *Graph) Vertices() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]NodeID, 0, g.live)
	for i, v := range g.vertices {
		if v != nil {
			ids = append(ids, NodeID(i))
		}
	}

	return ids
}

// VertexCount returns the number of live vertices.
func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.live
}

// Capacity returns the arena size, i.e. one past the largest handle issued.
// Traversals use it to size dense per-vertex state.
func (g *Graph) Capacity() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.vertices)
}

func (g *Graph) liveLocked(id NodeID) bool {
	return id >= 0 && int(id) < len(g.vertices) && g.vertices[id] != nil
}
