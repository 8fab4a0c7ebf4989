// Package dijkstra defines core types and configuration options
// for Dijkstra's shortest-path algorithm on weighted graphs.
package dijkstra

import (
	"errors"
	"math"

	"github.com/katalvlaran/rxnpath/core"
)

// Sentinel errors returned by the Dijkstra implementation.
var (
	// ErrNoSource indicates that no source vertex was configured.
	ErrNoSource = errors.New("dijkstra: source vertex not set")

	// ErrNilGraph indicates that a nil *core.Graph was passed to Dijkstra.
	ErrNilGraph = errors.New("dijkstra: graph is nil")

	// ErrVertexNotFound indicates that the source or target vertex does not exist.
	ErrVertexNotFound = errors.New("dijkstra: vertex not found in graph")

	// ErrNegativeWeight indicates that a negative edge weight was encountered.
	ErrNegativeWeight = errors.New("dijkstra: negative edge weight encountered")

	// ErrBadMaxDistance indicates that MaxDistance was set to a negative value.
	ErrBadMaxDistance = errors.New("dijkstra: MaxDistance must be non-negative")

	// ErrNoPath indicates that the target is unreachable from the source.
	ErrNoPath = errors.New("dijkstra: no path to target")
)

// EdgeFilter reports whether the edge from→to must be ignored.
type EdgeFilter func(from, to core.NodeID) bool

// Options configures the behavior of the Dijkstra algorithm.
//
// Source           – starting vertex (required).
// Target           – optional; when set, the search stops once it is settled.
// ReturnPath       – if true, return the predecessor map; otherwise prev map is nil.
// MaxDistance      – cap on distances to explore. Default +Inf.
// SkipEdge         – optional edge filter applied during relaxation.
// ExcludedVertices – vertices that are never entered (the source is exempt).
type Options struct {
	Source           core.NodeID
	Target           core.NodeID
	ReturnPath       bool
	MaxDistance      float64
	SkipEdge         EdgeFilter
	ExcludedVertices map[core.NodeID]struct{}

	hasSource bool
	hasTarget bool
}

// Option represents a functional option for configuring Dijkstra.
type Option func(*Options)

// Source sets the starting vertex.
func Source(id core.NodeID) Option {
	return func(o *Options) {
		o.Source = id
		o.hasSource = true
	}
}

// Target sets a vertex whose settlement ends the search early.
func Target(id core.NodeID) Option {
	return func(o *Options) {
		o.Target = id
		o.hasTarget = true
	}
}

// WithReturnPath enables generation of the predecessor map in the result.
func WithReturnPath() Option {
	return func(o *Options) { o.ReturnPath = true }
}

// WithMaxDistance sets a maximum distance threshold.
// Must pass a non-negative value; negative values panic with ErrBadMaxDistance.
func WithMaxDistance(max float64) Option {
	return func(o *Options) {
		if max < 0 || math.IsNaN(max) {
			// Panic to signal invalid configuration early.
			panic(ErrBadMaxDistance.Error())
		}
		o.MaxDistance = max
	}
}

// WithEdgeFilter installs a predicate; edges for which it returns true are skipped.
func WithEdgeFilter(f EdgeFilter) Option {
	return func(o *Options) { o.SkipEdge = f }
}

// WithExcludedVertices forbids entering the given vertices.
func WithExcludedVertices(ids map[core.NodeID]struct{}) Option {
	return func(o *Options) { o.ExcludedVertices = ids }
}

// DefaultOptions returns Options with no source, no target, no path map,
// an infinite distance cap and no filters.
func DefaultOptions() Options {
	return Options{
		Source:      core.InvalidNode,
		Target:      core.InvalidNode,
		MaxDistance: math.Inf(1),
	}
}
