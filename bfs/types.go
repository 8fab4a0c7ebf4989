package bfs

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/rxnpath/core"
)

// Sentinel errors for BFS execution.
var (
	// ErrStartVertexNotFound is returned when the start handle is not live.
	ErrStartVertexNotFound = errors.New("bfs: start vertex not found")

	// ErrGraphNil is returned if a nil graph pointer is passed.
	ErrGraphNil = errors.New("bfs: graph is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("bfs: invalid option supplied")
)

// Option configures BFS behavior via functional arguments.
// An invalid Option is recorded and surfaced as ErrOptionViolation when BFS
// is invoked.
type Option func(*Options)

// Options holds parameters and callbacks to customize BFS execution.
type Options struct {
	// OnVisit is called when visiting a vertex. If it returns an error,
	// BFS aborts and propagates that error.
	OnVisit func(id core.NodeID, depth int) error

	// MaxDepth, if > 0, stops exploring beyond this depth.
	MaxDepth int

	// FilterEdge can skip edges by returning false.
	FilterEdge func(e core.Edge) bool

	// Stop, if set, ends the search as soon as this vertex is reached.
	Stop core.NodeID

	err error
}

// DefaultOptions returns no depth limit, no filtering, no early stop and a
// no-op visit hook.
func DefaultOptions() Options {
	return Options{
		OnVisit:    func(core.NodeID, int) error { return nil },
		FilterEdge: func(core.Edge) bool { return true },
		Stop:       core.InvalidNode,
	}
}

// WithOnVisit registers a callback to run on visit.
func WithOnVisit(fn func(id core.NodeID, depth int) error) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnVisit = fn
		}
	}
}

// WithMaxDepth limits the search to d edges from the start.
//
//	d > 0: limit to depth d
//	d == 0: no limit
//	d < 0: ErrOptionViolation
func WithMaxDepth(d int) Option {
	return func(o *Options) {
		if d < 0 {
			o.err = fmt.Errorf("%w: MaxDepth cannot be negative (%d)", ErrOptionViolation, d)
			return
		}
		o.MaxDepth = d
	}
}

// WithEdgeFilter skips edges for which fn returns false.
func WithEdgeFilter(fn func(e core.Edge) bool) Option {
	return func(o *Options) {
		if fn != nil {
			o.FilterEdge = fn
		}
	}
}

// WithStopAt ends the search once id has been enqueued.
func WithStopAt(id core.NodeID) Option {
	return func(o *Options) { o.Stop = id }
}

// Result holds the outcome of a BFS traversal.
type Result struct {
	// Order lists vertices in visit sequence.
	Order []core.NodeID
	// Depth maps each reached vertex to its distance in edges.
	Depth map[core.NodeID]int
	// Parent maps each reached vertex except the start to its predecessor.
	Parent map[core.NodeID]core.NodeID
}

// Reached reports whether id was reached.
func (r *Result) Reached(id core.NodeID) bool {
	_, ok := r.Depth[id]
	return ok
}

// PathTo reconstructs the path from the start vertex to dest.
func (r *Result) PathTo(dest core.NodeID) ([]core.NodeID, error) {
	if !r.Reached(dest) {
		return nil, fmt.Errorf("bfs: no path to %d", dest)
	}
	path := []core.NodeID{}
	for cur := dest; ; {
		path = append(path, cur)
		prev, ok := r.Parent[cur]
		if !ok {
			break
		}
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}
