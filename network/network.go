package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/combo"
	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/cost"
)

// Network is a reaction network over a fixed set of entries.
//
// New prepares the entry universe; Build generates the graph. Precursors and
// target can then be replaced cheaply with SetPrecursors and SetTarget, and
// the cost strategy with SetCostFunction.
type Network struct {
	mu      sync.RWMutex
	cfg     settings
	entries []chem.Entry
	index   chem.EntryIndex
	st      *state
}

// state is everything Build produces. It is replaced as a whole by Build and
// Restore, and copied by Clone.
type state struct {
	g *core.Graph

	// combos[i] has vertices reactants[i] and products[i].
	combos    []*chem.Combination
	reactants []core.NodeID
	products  []core.NodeID

	rxnEdges  []rxnEdge
	minEnergy float64

	precursors *chem.Combination
	precID     core.NodeID
	target     chem.Entry
	targetID   core.NodeID
	targets    []chem.Entry
}

// rxnEdge remembers the raw energy of a reaction edge for reweighting.
type rxnEdge struct {
	from, to core.NodeID
	energy   float64
}

// New validates opts, filters entries and returns an unbuilt Network.
//
// Entries sharing a key are collapsed to the first occurrence.
// Errors: *ConfigError.
func New(entries []chem.Entry, opts ...Option) (*Network, error) {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !cost.Valid(cfg.costFunction) {
		cfg.logger.Warn("unknown cost function, reaction edges will weigh 0",
			slog.String("cost_function", string(cfg.costFunction)))
	}

	filtered := chem.FilterEntries(entries, cfg.hull, cfg.cutoff, cfg.includePolymorphs)
	n := &Network{cfg: cfg, index: make(chem.EntryIndex, len(filtered))}
	for _, e := range filtered {
		if n.index.Has(e) {
			cfg.logger.Debug("duplicate entry dropped", slog.String("entry", e.Key()))
			continue
		}
		n.index[e.Key()] = e
		n.entries = append(n.entries, e)
	}

	cfg.logger.Info("reaction network entries",
		slog.Int("input", len(entries)),
		slog.Int("kept", len(n.entries)),
		slog.String("chemsys", n.Chemsys()),
	)

	return n, nil
}

// Entries returns the network's entries after filtering.
func (n *Network) Entries() []chem.Entry {
	return append([]chem.Entry(nil), n.entries...)
}

// Chemsys returns the sorted element symbols of all entries joined by "-".
func (n *Network) Chemsys() string {
	comps := make([]chem.Composition, len(n.entries))
	for i, e := range n.entries {
		comps[i] = e.Composition()
	}
	return chem.Chemsys(chem.ElementSet(comps...))
}

// CostFunction returns the active cost strategy.
func (n *Network) CostFunction() cost.Name {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.costFunction
}

// Built reports whether Build (or Restore) has completed.
func (n *Network) Built() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.st != nil
}

// Precursors returns the current precursor entries.
func (n *Network) Precursors() ([]chem.Entry, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	return n.st.precursors.Entries(), nil
}

// Target returns the current target entry.
func (n *Network) Target() (chem.Entry, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	return n.st.target, nil
}

// Stats summarizes the built graph.
type Stats struct {
	Combinations  int
	Nodes         int
	Edges         int
	ReactionEdges int
}

// Stats returns graph counts.
func (n *Network) Stats() (Stats, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return Stats{}, ErrGraphNotBuilt
	}
	return Stats{
		Combinations:  len(n.st.combos),
		Nodes:         n.st.g.VertexCount(),
		Edges:         n.st.g.EdgeCount(),
		ReactionEdges: len(n.st.rxnEdges),
	}, nil
}

// Clone returns an independent copy sharing entries, combinations and
// reactions. Precursors, target and weights of the copy can change without
// affecting n.
func (n *Network) Clone() *Network {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &Network{cfg: n.cfg, entries: n.entries, index: n.index, st: n.st.clone()}
}

func (s *state) clone() *state {
	if s == nil {
		return nil
	}
	cp := *s
	cp.g = s.g.Clone()
	cp.rxnEdges = append([]rxnEdge(nil), s.rxnEdges...)
	cp.targets = append([]chem.Entry(nil), s.targets...)
	return &cp
}

// Build generates the graph for precursors and targets. The first target
// becomes the active one; the others are kept for FindCombinedPathways.
//
// Steps:
//  1. Validate precursors and targets against the network entries.
//  2. Generate every combination of size 1..max_num_components.
//  3. Add a Reactants and a Products vertex per combination.
//  4. Scan all ordered pairs for balanced reactions (parallel) and insert
//     the edges in combination order.
//  5. Weigh reaction edges with the cost strategy, shifting if it needs to.
//  6. Link the Precursors vertex, loopbacks and the Target vertex.
//  7. Warn when no path joins them.
//
// A failed Build leaves the previous graph untouched.
// Errors: ErrNoPrecursors, ErrNoTarget, ErrEntryNotInNetwork, ctx errors.
func (n *Network) Build(ctx context.Context, precursors, targets []chem.Entry) (err error) {
	ctx, span := startSpan(ctx, "Build",
		attribute.Int("network.entries", len(n.entries)),
		attribute.Int("network.max_components", n.cfg.maxComponents),
	)
	start := time.Now()
	edges := 0
	defer func() {
		recordBuildMetrics(ctx, time.Since(start), edges, err == nil)
		endSpan(span, err)
	}()

	n.mu.Lock()
	defer n.mu.Unlock()

	// 1) Inputs
	prec, err := n.combinationOf(precursors)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return ErrNoTarget
	}
	for _, t := range targets {
		if err = n.checkEntry(t); err != nil {
			return err
		}
	}

	// 2) Combinations
	sets, err := combo.Generate(ctx, n.entries, n.cfg.maxComponents)
	if err != nil {
		return fmt.Errorf("network: combinations: %w", err)
	}
	st := &state{
		combos:   make([]*chem.Combination, len(sets)),
		precID:   core.InvalidNode,
		targetID: core.InvalidNode,
		targets:  append([]chem.Entry(nil), targets...),
	}
	for i, s := range sets {
		st.combos[i] = chem.NewCombination(s...)
	}
	n.cfg.notify(Progress{Phase: PhaseCombinations, Done: len(sets), Total: len(sets)})

	// 3) Vertices
	if err = n.addCombinationNodes(st); err != nil {
		return err
	}
	n.cfg.notify(Progress{Phase: PhaseNodes, Done: st.g.VertexCount(), Total: 2 * len(sets)})

	// 4) Reaction edges
	rows, err := n.scanReactions(ctx, st.combos)
	if err != nil {
		return err
	}
	for p, row := range rows {
		for _, c := range row {
			from, to := st.reactants[c.r], st.products[p]
			data := &EdgeData{Kind: ReactionEdge, Reaction: c.rxn, EnergyPerAtom: c.rxn.EnergyPerAtom()}
			if err = st.g.AddEdge(from, to, 0, data); err != nil {
				return fmt.Errorf("network: reaction edge: %w", err)
			}
			st.rxnEdges = append(st.rxnEdges, rxnEdge{from: from, to: to, energy: data.EnergyPerAtom})
		}
	}
	edges = len(st.rxnEdges)
	n.cfg.notify(Progress{Phase: PhaseReactionEdges, Done: edges, Total: edges})

	// 5) Weights
	if err = n.applyWeights(st); err != nil {
		return err
	}

	// 6) Structural edges
	if !n.cfg.complexLoopback {
		if err = n.linkSimpleLoopbacks(st); err != nil {
			return err
		}
	}
	if err = n.linkPrecursors(ctx, st, prec); err != nil {
		return err
	}
	if err = n.linkTarget(st, targets[0]); err != nil {
		return err
	}
	n.cfg.notify(Progress{Phase: PhaseStructural, Done: st.g.EdgeCount() - edges, Total: 0})
	ok, err := reachesTarget(ctx, st)
	if err != nil {
		return err
	}
	if !ok {
		n.cfg.logger.Warn("target is unreachable from the precursors",
			slog.String("precursors", prec.String()),
			slog.String("target", targets[0].Key()),
		)
	}

	n.st = st
	n.cfg.logger.Info("reaction network built",
		slog.Int("combinations", len(st.combos)),
		slog.Int("nodes", st.g.VertexCount()),
		slog.Int("edges", st.g.EdgeCount()),
		slog.Int("reaction_edges", edges),
		slog.String("cost_function", string(n.cfg.costFunction)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}

// addCombinationNodes creates the graph and one Reactants and one Products
// vertex per combination.
func (n *Network) addCombinationNodes(st *state) error {
	st.g = core.NewGraph(core.WithCapacity(2*len(st.combos) + 2))
	st.reactants = make([]core.NodeID, len(st.combos))
	st.products = make([]core.NodeID, len(st.combos))
	for i, c := range st.combos {
		r, err := st.g.AddVertex(nodeKey(ReactantsNode, c), Node{Kind: ReactantsNode, Entries: c})
		if err != nil {
			return fmt.Errorf("network: add vertex: %w", err)
		}
		p, err := st.g.AddVertex(nodeKey(ProductsNode, c), Node{Kind: ProductsNode, Entries: c})
		if err != nil {
			return fmt.Errorf("network: add vertex: %w", err)
		}
		st.reactants[i], st.products[i] = r, p
	}
	return nil
}

// applyWeights folds the active strategy over every reaction edge.
func (n *Network) applyWeights(st *state) error {
	energies := make([]float64, len(st.rxnEdges))
	for i, e := range st.rxnEdges {
		energies[i] = e.energy
	}
	weights, min := cost.Fold(n.cfg.costFunction, energies)
	for i, e := range st.rxnEdges {
		if err := st.g.SetWeight(e.from, e.to, weights[i]); err != nil {
			return fmt.Errorf("network: set weight: %w", err)
		}
	}
	st.minEnergy = min
	n.cfg.notify(Progress{Phase: PhaseWeights, Done: len(weights), Total: len(weights)})
	return nil
}

// combinationOf validates entries and returns them as one combination.
func (n *Network) combinationOf(entries []chem.Entry) (*chem.Combination, error) {
	if len(entries) == 0 {
		return nil, ErrNoPrecursors
	}
	for _, e := range entries {
		if err := n.checkEntry(e); err != nil {
			return nil, err
		}
	}
	return chem.NewCombination(entries...), nil
}

func (n *Network) checkEntry(e chem.Entry) error {
	if e == nil || !n.index.Has(e) {
		name := "<nil>"
		if e != nil {
			name = e.Key()
		}
		return fmt.Errorf("%w: %s", ErrEntryNotInNetwork, name)
	}
	return nil
}
