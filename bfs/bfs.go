// Package bfs provides breadth-first search over a core.Graph, returning
// hop distances, parent links and visit order.
//
// Weights are ignored: BFS answers reachability and fewest-edge questions,
// such as whether a target can be reached from the precursors at all.
package bfs

import (
	"context"
	"fmt"

	"github.com/katalvlaran/rxnpath/core"
)

// queueItem pairs a vertex with its BFS depth.
type queueItem struct {
	id    core.NodeID
	depth int
}

// walker encapsulates mutable BFS state.
type walker struct {
	graph *core.Graph
	opts  Options
	ctx   context.Context
	queue []queueItem
	res   *Result
	done  bool
}

// BFS runs breadth-first search on g from start along directed edges.
//
// Errors: ErrGraphNil, ErrStartVertexNotFound, ErrOptionViolation, ctx
// errors, or an OnVisit error.
//
// Complexity: O(V + E).
func BFS(ctx context.Context, g *core.Graph, start core.NodeID, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if !g.HasVertex(start) {
		return nil, ErrStartVertexNotFound
	}

	n := g.VertexCount()
	w := &walker{
		graph: g,
		opts:  o,
		ctx:   ctx,
		queue: make([]queueItem, 0, n),
		res: &Result{
			Order:  make([]core.NodeID, 0, n),
			Depth:  make(map[core.NodeID]int, n),
			Parent: make(map[core.NodeID]core.NodeID, n),
		},
	}
	w.enqueue(start, 0, core.InvalidNode)

	return w.res, w.loop()
}

// Reachable reports whether dst can be reached from src.
func Reachable(ctx context.Context, g *core.Graph, src, dst core.NodeID, opts ...Option) (bool, error) {
	res, err := BFS(ctx, g, src, append(opts, WithStopAt(dst))...)
	if err != nil {
		return false, err
	}
	return res.Reached(dst), nil
}

// enqueue marks id reached at depth d and records its parent.
func (w *walker) enqueue(id core.NodeID, d int, parent core.NodeID) {
	w.res.Depth[id] = d
	if parent != core.InvalidNode {
		w.res.Parent[id] = parent
	}
	w.queue = append(w.queue, queueItem{id: id, depth: d})
	if id == w.opts.Stop {
		w.done = true
	}
}

// loop processes the queue until empty, stop, error or cancellation.
func (w *walker) loop() error {
	for len(w.queue) > 0 && !w.done {
		if err := w.ctx.Err(); err != nil {
			return fmt.Errorf("bfs: %w", err)
		}

		item := w.queue[0]
		w.queue = w.queue[1:]
		w.res.Order = append(w.res.Order, item.id)
		if err := w.opts.OnVisit(item.id, item.depth); err != nil {
			return fmt.Errorf("bfs: OnVisit error at %d: %w", item.id, err)
		}
		if err := w.enqueueNeighbors(item); err != nil {
			return err
		}
	}
	return nil
}

// enqueueNeighbors applies filtering and MaxDepth and enqueues each unseen
// out-neighbor.
func (w *walker) enqueueNeighbors(item queueItem) error {
	next := item.depth + 1
	if w.opts.MaxDepth > 0 && next > w.opts.MaxDepth {
		return nil
	}
	err := w.graph.ForEachOut(item.id, func(e core.Edge) bool {
		if !w.opts.FilterEdge(e) {
			return true
		}
		if _, seen := w.res.Depth[e.To]; !seen {
			w.enqueue(e.To, next, item.id)
		}
		return !w.done
	})
	if err != nil {
		return fmt.Errorf("bfs: neighbors of %d: %w", item.id, err)
	}
	return nil
}
