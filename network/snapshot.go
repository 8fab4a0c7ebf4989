package network

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/combo"
	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/cost"
	"github.com/katalvlaran/rxnpath/reaction"
)

// ErrBadSnapshot indicates a snapshot that does not describe a valid graph.
var ErrBadSnapshot = errors.New("network: invalid snapshot")

// Snapshot is a self-contained, serializable copy of a built network.
// Nodes and edges are identified by vertex key, so two snapshots of
// isomorphic graphs are equal.
type Snapshot struct {
	Chemsys         string             `json:"chemsys"`
	MaxComponents   int                `json:"max_num_components"`
	CostFunction    string             `json:"cost_function"`
	ComplexLoopback bool               `json:"complex_loopback"`
	Entries         []chem.EntryRecord `json:"entries"`
	Precursors      []string           `json:"precursors"`
	Target          string             `json:"target"`
	Targets         []string           `json:"targets"`
	Nodes           []NodeRecord       `json:"nodes"`
	Edges           []EdgeRecord       `json:"edges"`
}

// NodeRecord is one vertex.
type NodeRecord struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind"`
	Entries []string `json:"entries"`
}

// ComponentRecord is one side-member of a reaction.
type ComponentRecord struct {
	Entry string  `json:"entry"`
	Coeff float64 `json:"coeff"`
}

// EdgeRecord is one edge. Reaction fields are set on reaction edges only.
type EdgeRecord struct {
	From          string            `json:"from"`
	To            string            `json:"to"`
	Kind          string            `json:"kind"`
	Weight        float64           `json:"weight"`
	EnergyPerAtom float64           `json:"energy_per_atom,omitempty"`
	Reactants     []ComponentRecord `json:"reactants,omitempty"`
	Products      []ComponentRecord `json:"products,omitempty"`
}

// Snapshot captures the built graph.
//
// Errors: ErrGraphNotBuilt.
func (n *Network) Snapshot() (*Snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	st := n.st

	snap := &Snapshot{
		Chemsys:         n.Chemsys(),
		MaxComponents:   n.cfg.maxComponents,
		CostFunction:    string(n.cfg.costFunction),
		ComplexLoopback: n.cfg.complexLoopback,
		Entries:         make([]chem.EntryRecord, len(n.entries)),
		Precursors:      entryKeys(st.precursors.Entries()),
		Target:          st.target.Key(),
		Targets:         entryKeys(st.targets),
	}
	for i, e := range n.entries {
		snap.Entries[i] = entryRecord(e)
	}

	keys := make(map[core.NodeID]string)
	for _, id := range st.g.Vertices() {
		v, err := st.g.Vertex(id)
		if err != nil {
			return nil, err
		}
		node := v.Data.(Node)
		keys[id] = v.Key
		snap.Nodes = append(snap.Nodes, NodeRecord{
			Key:     v.Key,
			Kind:    node.Kind.String(),
			Entries: entryKeys(node.Entries.Entries()),
		})
	}
	for _, e := range st.g.Edges() {
		d := e.Data.(*EdgeData)
		rec := EdgeRecord{From: keys[e.From], To: keys[e.To], Kind: d.Kind.String(), Weight: e.Weight}
		if d.Kind == ReactionEdge {
			rec.EnergyPerAtom = d.EnergyPerAtom
			rec.Reactants = componentRecords(d.Reaction.Reactants())
			rec.Products = componentRecords(d.Reaction.Products())
		}
		snap.Edges = append(snap.Edges, rec)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Key < snap.Nodes[j].Key })
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].From != snap.Edges[j].From {
			return snap.Edges[i].From < snap.Edges[j].From
		}
		return snap.Edges[i].To < snap.Edges[j].To
	})

	return snap, nil
}

// Restore rebuilds a Network from a snapshot without balancing any reaction.
// The snapshot's max_num_components, cost_function and complex_loopback
// override opts; entries are taken as already filtered.
//
// Errors: *ConfigError, ErrBadSnapshot, ctx errors.
func Restore(ctx context.Context, snap *Snapshot, opts ...Option) (*Network, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil", ErrBadSnapshot)
	}

	// 1) Entries and settings
	entries := make([]chem.Entry, len(snap.Entries))
	for i, rec := range snap.Entries {
		e, err := chem.NewEntry(rec.Formula, rec.Energy, rec.Tag)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBadSnapshot, i, err)
		}
		entries[i] = e
	}
	all := append(append([]Option(nil), opts...),
		WithMaxComponents(snap.MaxComponents),
		WithCostFunction(cost.Name(snap.CostFunction)),
		WithComplexLoopback(snap.ComplexLoopback),
		WithEntryFilter(nil, nil, false),
	)
	n, err := New(entries, all...)
	if err != nil {
		return nil, err
	}
	lookup := func(keys []string) ([]chem.Entry, error) {
		out := make([]chem.Entry, len(keys))
		for i, k := range keys {
			e, ok := n.index[k]
			if !ok {
				return nil, fmt.Errorf("%w: unknown entry %q", ErrBadSnapshot, k)
			}
			out[i] = e
		}
		return out, nil
	}

	// 2) Combination vertices in generation order
	sets, err := combo.Generate(ctx, n.entries, n.cfg.maxComponents)
	if err != nil {
		return nil, fmt.Errorf("network: combinations: %w", err)
	}
	st := &state{
		combos:   make([]*chem.Combination, len(sets)),
		precID:   core.InvalidNode,
		targetID: core.InvalidNode,
	}
	for i, s := range sets {
		st.combos[i] = chem.NewCombination(s...)
	}
	if err = n.addCombinationNodes(st); err != nil {
		return nil, err
	}

	// 3) Precursors and target vertices
	prec, err := lookup(snap.Precursors)
	if err != nil {
		return nil, err
	}
	tgt, err := lookup([]string{snap.Target})
	if err != nil {
		return nil, err
	}
	if st.targets, err = lookup(snap.Targets); err != nil {
		return nil, err
	}
	pc := chem.NewCombination(prec...)
	if st.precID, err = st.g.AddVertex(nodeKey(PrecursorsNode, pc), Node{Kind: PrecursorsNode, Entries: pc}); err != nil {
		return nil, err
	}
	st.precursors = pc
	tc := chem.NewCombination(tgt...)
	if st.targetID, err = st.g.AddVertex(nodeKey(TargetNode, tc), Node{Kind: TargetNode, Entries: tc}); err != nil {
		return nil, err
	}
	st.target = tgt[0]
	if st.g.VertexCount() != len(snap.Nodes) {
		return nil, fmt.Errorf("%w: %d nodes, expected %d", ErrBadSnapshot, len(snap.Nodes), st.g.VertexCount())
	}
	for _, rec := range snap.Nodes {
		if _, err = parseNodeKind(rec.Kind); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		if _, ok := st.g.Lookup(rec.Key); !ok {
			return nil, fmt.Errorf("%w: unknown node %q", ErrBadSnapshot, rec.Key)
		}
	}

	// 4) Edges
	st.minEnergy = math.Inf(1)
	for i, rec := range snap.Edges {
		from, ok1 := st.g.Lookup(rec.From)
		to, ok2 := st.g.Lookup(rec.To)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: edge %d references unknown node", ErrBadSnapshot, i)
		}
		kind, err := parseEdgeKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrBadSnapshot, i, err)
		}
		var data *EdgeData
		switch kind {
		case PrecursorEdge:
			data = precursorData
		case LoopbackEdge:
			data = loopbackData
		case TargetEdge:
			data = targetData
		case ReactionEdge:
			rxn, err := restoreReaction(n.index, rec)
			if err != nil {
				return nil, fmt.Errorf("%w: edge %d: %v", ErrBadSnapshot, i, err)
			}
			data = &EdgeData{Kind: ReactionEdge, Reaction: rxn, EnergyPerAtom: rec.EnergyPerAtom}
			st.rxnEdges = append(st.rxnEdges, rxnEdge{from: from, to: to, energy: rec.EnergyPerAtom})
			st.minEnergy = math.Min(st.minEnergy, rec.EnergyPerAtom)
		}
		if err = st.g.AddEdge(from, to, rec.Weight, data); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrBadSnapshot, i, err)
		}
	}

	n.st = st
	return n, nil
}

func restoreReaction(index chem.EntryIndex, rec EdgeRecord) (*reaction.Reaction, error) {
	side := func(cs []ComponentRecord) ([]reaction.Component, error) {
		out := make([]reaction.Component, len(cs))
		for i, c := range cs {
			e, ok := index[c.Entry]
			if !ok {
				return nil, fmt.Errorf("unknown entry %q", c.Entry)
			}
			out[i] = reaction.Component{Entry: e, Coeff: c.Coeff}
		}
		return out, nil
	}
	r, err := side(rec.Reactants)
	if err != nil {
		return nil, err
	}
	p, err := side(rec.Products)
	if err != nil {
		return nil, err
	}
	return reaction.New(r, p)
}

func componentRecords(cs []reaction.Component) []ComponentRecord {
	out := make([]ComponentRecord, len(cs))
	for i, c := range cs {
		out[i] = ComponentRecord{Entry: c.Entry.Key(), Coeff: c.Coeff}
	}
	return out
}

func entryKeys(es []chem.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

// entryRecord converts e to its file form. Tags survive only for
// *chem.ComputedEntry.
func entryRecord(e chem.Entry) chem.EntryRecord {
	rec := chem.EntryRecord{Formula: e.Formula(), Energy: e.Energy()}
	if ce, ok := e.(*chem.ComputedEntry); ok {
		rec.Tag = ce.Tag()
	}
	return rec
}
