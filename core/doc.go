// Package core provides a thread-safe, arena-backed directed graph with stable
// integer vertex handles, float64 edge weights and an opaque per-edge payload.
//
// The Graph G = (V,E) is shaped for workloads that build a large graph once and
// then repeatedly swap a handful of vertices in and out:
//
//   - Vertices live in an arena addressed by NodeID. A removed vertex leaves a
//     tombstone and every other handle stays valid; the next AddVertex reuses
//     the most recently freed slot.
//   - Each vertex carries a caller-chosen string key; the key index makes
//     AddVertex idempotent and gives O(1) Lookup for deduplication.
//   - At most one edge exists per ordered pair (from,to). AddEdge on an existing
//     pair overwrites weight and payload in place.
//   - Out-adjacency is kept sorted by destination handle, so OutEdges, Edges
//     and every traversal built on them are deterministic.
//   - A single sync.RWMutex guards the arena; read methods take the read lock.
//
// Core Methods:
//
//	// Vertex lifecycle
//	AddVertex(key string, data interface{}) (NodeID, error) // O(1)
//	Lookup(key string) (NodeID, bool)                       // O(1)
//	RemoveVertex(id NodeID) error                           // O(deg(v)·log deg)
//
//	// Edge lifecycle
//	AddEdge(from, to NodeID, weight float64, data interface{}) error // O(deg)
//	RemoveEdge(from, to NodeID) error                                 // O(deg)
//	SetWeight(from, to NodeID, weight float64) error                  // O(log deg)
//
//	// Queries
//	Edge(from, to NodeID) (Edge, bool)
//	OutEdges(id NodeID) ([]Edge, error)
//	Edges() []Edge
//	Clone() *Graph
//
// Errors:
//
//	ErrEmptyKey       - vertex key is the empty string.
//	ErrVertexNotFound - handle does not name a live vertex.
//	ErrEdgeNotFound   - no edge for the ordered pair.
//	ErrLoopNotAllowed - self-loop when loops are disabled.
//	ErrBadWeight      - NaN or ±Inf weight.
package core
