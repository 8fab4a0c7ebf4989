// Package dijkstra implements Dijkstra's shortest-path algorithm on weighted graphs.
//
// Notes on implementation choices:
//
//   - Per-vertex state lives in dense slices indexed by core.NodeID, sized by
//     the graph arena capacity.
//   - We use a "lazy" decrease-key strategy: pushing duplicates into the heap
//     and ignoring stale entries.
//   - Negative weights are detected during relaxation rather than by an O(E)
//     pre-scan, because spur searches call ShortestPath many times per query.
package dijkstra

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/rxnpath/core"
)

// ctxPollInterval is the number of heap pops between context checks.
const ctxPollInterval = 256

// Dijkstra computes shortest distances from Options.Source to every reachable
// vertex of g.
//
// Returns:
//
//   - dist: vertex → minimum distance. Unreachable vertices are absent.
//   - prev: predecessor map if ReturnPath=true (nil otherwise).
//     prev[v] == u means the shortest path to v goes through u.
//   - err:  validation error, ErrNegativeWeight, or a wrapped context error.
//
// Preconditions and validation (in order):
//  1. Source must be set (ErrNoSource).
//  2. g must be non-nil (ErrNilGraph).
//  3. g must contain Source, and Target when set (ErrVertexNotFound).
//
// Complexity:
//
//   - Time:  O((V + E) log V)
//   - Space: O(V + E)
func Dijkstra(ctx context.Context, g *core.Graph, opts ...Option) (map[core.NodeID]float64, map[core.NodeID]core.NodeID, error) {
	r, err := newRunner(g, opts)
	if err != nil {
		return nil, nil, err
	}
	if err = r.process(ctx); err != nil {
		return nil, nil, err
	}

	dist := make(map[core.NodeID]float64)
	var prev map[core.NodeID]core.NodeID
	if r.options.ReturnPath {
		prev = make(map[core.NodeID]core.NodeID)
	}
	for i, d := range r.dist {
		if math.IsInf(d, 1) {
			continue
		}
		dist[core.NodeID(i)] = d
		if prev != nil && r.prev[i] != core.InvalidNode {
			prev[core.NodeID(i)] = r.prev[i]
		}
	}

	return dist, prev, nil
}

// ShortestPath returns the cheapest node sequence src→…→dst and its cost.
// Options other than Source/Target (filters, exclusions, MaxDistance) apply.
//
// Errors: ErrNoPath when dst is unreachable, plus everything Dijkstra returns.
func ShortestPath(ctx context.Context, g *core.Graph, src, dst core.NodeID, opts ...Option) ([]core.NodeID, float64, error) {
	all := make([]Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all, Source(src), Target(dst))
	r, err := newRunner(g, all)
	if err != nil {
		return nil, 0, err
	}
	if err = r.process(ctx); err != nil {
		return nil, 0, err
	}
	if math.IsInf(r.dist[dst], 1) {
		return nil, 0, ErrNoPath
	}

	// Walk predecessors back to the source.
	path := []core.NodeID{dst}
	for v := dst; v != src; {
		v = r.prev[v]
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, r.dist[dst], nil
}

// runner holds the mutable state for a single Dijkstra execution.
type runner struct {
	g       *core.Graph   // read-only within Dijkstra
	options Options       // Source, Target, filters
	dist    []float64     // best known distance per handle
	prev    []core.NodeID // predecessor per handle
	visited []bool        // finalized flags
	pq      nodePQ        // lazy min-heap
}

// newRunner validates options and allocates per-vertex state.
func newRunner(g *core.Graph, opts []Option) (*runner, error) {
	// 1) Build Options
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	// 2) Validate
	if !cfg.hasSource {
		return nil, ErrNoSource
	}
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasVertex(cfg.Source) {
		return nil, fmt.Errorf("%w: source %d", ErrVertexNotFound, cfg.Source)
	}
	if cfg.hasTarget && !g.HasVertex(cfg.Target) {
		return nil, fmt.Errorf("%w: target %d", ErrVertexNotFound, cfg.Target)
	}

	// 3) Allocate dense state
	n := g.Capacity()
	r := &runner{
		g:       g,
		options: cfg,
		dist:    make([]float64, n),
		prev:    make([]core.NodeID, n),
		visited: make([]bool, n),
		pq:      make(nodePQ, 0, 64),
	}
	for i := 0; i < n; i++ {
		r.dist[i] = math.Inf(1)
		r.prev[i] = core.InvalidNode
	}
	r.dist[cfg.Source] = 0
	heap.Push(&r.pq, &nodeItem{id: cfg.Source, dist: 0})

	return r, nil
}

// process is the core loop: pop the closest vertex, finalize it, relax its edges.
//
// Loop termination conditions:
//
//   - The heap becomes empty.
//   - The target (if any) is settled.
//   - The minimum distance in the heap exceeds MaxDistance.
func (r *runner) process(ctx context.Context) error {
	var pops int
	for r.pq.Len() > 0 {
		// 1) Cancellation
		pops++
		if pops%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("dijkstra: %w", err)
			}
		}

		// 2) Pop; skip stale entries
		item := heap.Pop(&r.pq).(*nodeItem)
		u := item.id
		if r.visited[u] {
			continue
		}
		if item.dist > r.options.MaxDistance {
			break
		}

		// 3) Finalize
		r.visited[u] = true
		if r.options.hasTarget && u == r.options.Target {
			return nil
		}

		// 4) Relax
		if err := r.relax(u); err != nil {
			return err
		}
	}

	return nil
}

// relax examines each edge leaving u and improves neighbor distances.
func (r *runner) relax(u core.NodeID) error {
	var relaxErr error
	du := r.dist[u]
	err := r.g.ForEachOut(u, func(e core.Edge) bool {
		v := e.To
		if int(v) >= len(r.dist) || r.visited[v] {
			return true
		}
		if _, skip := r.options.ExcludedVertices[v]; skip {
			return true
		}
		if r.options.SkipEdge != nil && r.options.SkipEdge(u, v) {
			return true
		}
		if e.Weight < 0 {
			relaxErr = fmt.Errorf("%w: edge %d→%d weight=%g", ErrNegativeWeight, u, v, e.Weight)
			return false
		}
		nd := du + e.Weight
		if nd > r.options.MaxDistance || nd >= r.dist[v] {
			return true
		}
		r.dist[v] = nd
		r.prev[v] = u
		heap.Push(&r.pq, &nodeItem{id: v, dist: nd})

		return true
	})
	if err != nil {
		return fmt.Errorf("dijkstra: neighbors of %d: %w", u, err)
	}

	return relaxErr
}

// nodeItem represents a vertex and its tentative distance from the source.
type nodeItem struct {
	id   core.NodeID
	dist float64
}

// nodePQ is a min-heap of *nodeItem ordered by (dist, id).
type nodePQ []*nodeItem

// Len returns the number of items in the heap.
func (pq nodePQ) Len() int { return len(pq) }

// Less orders by distance, then by handle for deterministic ties.
func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

// Swap swaps two elements in the heap.
func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

// Push adds a new element x onto the heap.
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }

// Pop removes and returns the smallest element from the heap.
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
