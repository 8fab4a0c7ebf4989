// Package dijkstra implements Dijkstra's single-source shortest-path algorithm
// over core.Graph with non-negative float64 edge weights.
//
// Overview:
//
//   - Dijkstra computes minimum-cost distances from one source to every
//     reachable vertex in O((V + E) log V) time using a lazy decrease-key heap.
//   - ShortestPath is the source→target convenience used by k-shortest-path
//     search: it stops as soon as the target is settled and returns the node
//     sequence with its cost.
//
// Key features:
//
//   - Functional options allow fine-tuning behavior without changing the API signature.
//   - Target: early exit once the target distance is final.
//   - MaxDistance: vertices beyond the cap are never settled.
//   - EdgeFilter / ExcludedVertices: run on a pruned view of the graph without
//     mutating it, which is what spur searches need.
//   - Heap ties are broken by vertex handle, so equal-cost alternatives resolve
//     the same way on every run.
//
// Preconditions:
//
//   - Edge weights must be non-negative. A negative weight reached during
//     relaxation aborts the run with ErrNegativeWeight.
//
// Cancellation:
//
//   - The context is polled every few hundred heap pops; a cancelled context
//     returns ctx.Err() wrapped.
//
// Thread safety:
//
//   - Dijkstra takes the graph read lock per adjacency scan and never mutates
//     the graph. Concurrent writers may produce inconsistent results; callers
//     serialize mutation externally.
//
// Errors (sentinel):
//
//   - ErrNoSource:        no Source option was provided.
//   - ErrNilGraph:        nil *core.Graph.
//   - ErrVertexNotFound:  source (or target) not present.
//   - ErrNegativeWeight:  a negative edge weight was relaxed.
//   - ErrBadMaxDistance:  negative MaxDistance (panic from the option constructor).
//   - ErrNoPath:          ShortestPath found no route to the target.
package dijkstra
