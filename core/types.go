// SPDX-License-Identifier: MIT

package core

import (
	"errors"
	"sync"
)

// Sentinel errors for core graph operations.
var (
	// ErrEmptyKey indicates that a vertex was added with an empty key.
	ErrEmptyKey = errors.New("core: vertex key is empty")

	// ErrVertexNotFound indicates an operation referenced a non-existent vertex.
	ErrVertexNotFound = errors.New("core: vertex not found")

	// ErrEdgeNotFound indicates an operation referenced a non-existent edge.
	ErrEdgeNotFound = errors.New("core: edge not found")

	// ErrLoopNotAllowed indicates a self-loop was attempted when loops are disabled.
	ErrLoopNotAllowed = errors.New("core: self-loop not allowed")

	// ErrBadWeight indicates a NaN or infinite edge weight.
	ErrBadWeight = errors.New("core: weight must be finite")
)

// NodeID is a stable handle into the vertex arena.
// Handles are assigned in insertion order starting at 0; freed handles are reused.
type NodeID int

// InvalidNode is returned alongside errors where a handle is expected.
const InvalidNode NodeID = -1

// Vertex is a live arena slot.
type Vertex struct {
	// ID is the stable handle of this vertex.
	ID NodeID

	// Key is the deduplication key supplied by the caller.
	Key string

	// Data is an opaque payload. It is shared, not deep-copied, by Clone.
	Data interface{}
}

// Edge is a directed, weighted connection From→To.
// Edges are returned by value; mutating a returned Edge does not affect the graph.
type Edge struct {
	From   NodeID
	To     NodeID
	Weight float64

	// Data is an opaque payload. It is shared, not deep-copied, by Clone.
	Data interface{}
}

// GraphOption configures behavior of a Graph before creation.
type GraphOption func(g *Graph)

// WithLoops permits self-loops (edges from a vertex to itself).
func WithLoops() GraphOption {
	return func(g *Graph) { g.allowLoops = true }
}

// WithCapacity pre-sizes the arena for n vertices.
func WithCapacity(n int) GraphOption {
	return func(g *Graph) {
		if n > 0 {
			g.vertices = make([]*Vertex, 0, n)
			g.out = make([][]*Edge, 0, n)
			g.in = make([]map[NodeID]struct{}, 0, n)
		}
	}
}

// Graph is a directed, weighted graph over an arena of vertices.
//
// vertices[id] is nil for removed handles, which wait in free for reuse.
// out[id] holds outgoing edges sorted
// by To. in[id] records predecessors so RemoveVertex can drop incoming edges
// without scanning the whole arena.
type Graph struct {
	mu sync.RWMutex

	allowLoops bool

	vertices  []*Vertex
	index     map[string]NodeID
	out       [][]*Edge
	in        []map[NodeID]struct{}
	free      []NodeID
	live      int
	edgeCount int
}

// NewGraph creates an empty directed Graph.
// By default self-loops are rejected.
// Complexity: O(1)
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{index: make(map[string]NodeID)}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
