package network

import (
	"log/slog"
	"runtime"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/cost"
	"github.com/katalvlaran/rxnpath/pathway"
	"github.com/katalvlaran/rxnpath/reaction"
)

// Defaults.
const (
	DefaultMaxComponents = 2
	DefaultCostFunction  = cost.Softplus
	DefaultStarterPaths  = 5
)

// Option customizes a Network. Values are validated by New, which reports
// the first invalid one as a *ConfigError.
type Option func(*settings)

type settings struct {
	maxComponents   int
	costFunction    cost.Name
	complexLoopback bool
	balancer        reaction.Balancer
	workers         int
	tolerance       float64
	logger          *slog.Logger
	observer        Observer

	hull              chem.HullDistancer
	cutoff            *float64
	includePolymorphs bool
}

func defaultSettings() settings {
	return settings{
		maxComponents:   DefaultMaxComponents,
		costFunction:    DefaultCostFunction,
		complexLoopback: true,
		balancer:        reaction.NewNullSpaceBalancer(),
		workers:         0,
		tolerance:       pathway.DefaultTolerance,
		logger:          slog.Default(),
	}
}

// validate returns the first invalid setting.
func (s *settings) validate() error {
	switch {
	case s.maxComponents < 1:
		return &ConfigError{Field: "max_num_components", Reason: "must be >= 1"}
	case s.workers < 0:
		return &ConfigError{Field: "workers", Reason: "must be >= 0"}
	case !(s.tolerance > 0):
		return &ConfigError{Field: "balance_tolerance", Reason: "must be > 0"}
	case s.balancer == nil:
		return &ConfigError{Field: "balancer", Reason: "must not be nil"}
	case s.cutoff != nil && *s.cutoff < 0:
		return &ConfigError{Field: "energy_above_hull_cutoff", Reason: "must be >= 0"}
	}
	return nil
}

func (s *settings) workerCount() int {
	if s.workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return s.workers
}

func (s *settings) notify(p Progress) {
	if s.observer != nil {
		s.observer(p)
	}
}

// WithMaxComponents sets the largest combination size on either side of a reaction.
func WithMaxComponents(n int) Option {
	return func(s *settings) { s.maxComponents = n }
}

// WithCostFunction sets the cost strategy. Unknown names are accepted and
// give every reaction edge weight 0; New logs a warning for them.
func WithCostFunction(name cost.Name) Option {
	return func(s *settings) { s.costFunction = name }
}

// WithComplexLoopback selects complex (true) or simple (false) loopback edges.
func WithComplexLoopback(on bool) Option {
	return func(s *settings) { s.complexLoopback = on }
}

// WithBalancer replaces the reaction balancer.
func WithBalancer(b reaction.Balancer) Option {
	return func(s *settings) { s.balancer = b }
}

// WithWorkerCount bounds the pairwise scan and starter search parallelism.
// 0 means GOMAXPROCS.
func WithWorkerCount(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithTolerance sets the coefficient tolerance used when combining pathways.
func WithTolerance(tol float64) Option {
	return func(s *settings) { s.tolerance = tol }
}

// WithLogger sets the structured logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver installs a progress callback.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithEntryFilter filters the input entries by energy above hull before any
// combination is generated. See chem.FilterEntries for the cutoff semantics.
func WithEntryFilter(hull chem.HullDistancer, cutoff *float64, includePolymorphs bool) Option {
	return func(s *settings) {
		s.hull = hull
		s.cutoff = cutoff
		s.includePolymorphs = includePolymorphs
	}
}
