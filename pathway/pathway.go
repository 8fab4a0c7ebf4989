// SPDX-License-Identifier: MIT

// Package pathway holds the results of reaction-network path finding.
//
// A Pathway is an ordered list of (reaction, cost) steps found on one graph
// path. A CombinedPathway mixes several pathways with positive coefficients so
// that every intermediate cancels, leaving a net reaction from the precursors
// to the targets. BalancePathArrays solves the same mixing problem in bulk for
// precomputed stoichiometric matrices.
//
// Both result types have explicit JSON record forms so output stays
// schema-stable regardless of internal changes.
package pathway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/reaction"
)

// Sentinel errors.
var (
	// ErrEmptyPathway indicates a pathway with no steps or a nil reaction.
	ErrEmptyPathway = errors.New("pathway: empty pathway")

	// ErrNoPaths indicates a combination over zero pathways.
	ErrNoPaths = errors.New("pathway: no pathways to combine")

	// ErrShape indicates inconsistent matrix or vector dimensions.
	ErrShape = errors.New("pathway: inconsistent dimensions")
)

// Step is one reaction on a pathway and the edge cost it was found with.
type Step struct {
	Reaction *reaction.Reaction
	Cost     float64
}

// Pathway is an immutable ordered list of steps.
type Pathway struct {
	steps []Step
	key   string
}

// New builds a Pathway from steps in path order.
func New(steps ...Step) (*Pathway, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPathway
	}
	keys := make([]string, len(steps))
	for i, s := range steps {
		if s.Reaction == nil {
			return nil, fmt.Errorf("%w: step %d has no reaction", ErrEmptyPathway, i)
		}
		keys[i] = s.Reaction.Key()
	}

	return &Pathway{
		steps: append([]Step(nil), steps...),
		key:   strings.Join(keys, "; "),
	}, nil
}

// Steps returns the steps in order. The slice must not be modified.
func (p *Pathway) Steps() []Step { return p.steps }

// Len returns the number of steps.
func (p *Pathway) Len() int { return len(p.steps) }

// Key identifies the pathway by its reaction sequence.
func (p *Pathway) Key() string { return p.key }

// Reactions returns the reactions in order.
func (p *Pathway) Reactions() []*reaction.Reaction {
	out := make([]*reaction.Reaction, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Reaction
	}
	return out
}

// Costs returns the step costs in order.
func (p *Pathway) Costs() []float64 {
	out := make([]float64, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Cost
	}
	return out
}

// TotalCost is the sum of step costs.
func (p *Pathway) TotalCost() float64 {
	var t float64
	for _, s := range p.steps {
		t += s.Cost
	}
	return t
}

// AverageCost is TotalCost / Len.
func (p *Pathway) AverageCost() float64 { return p.TotalCost() / float64(len(p.steps)) }

// Energy is the sum of reaction energies (eV, as balanced).
func (p *Pathway) Energy() float64 {
	var t float64
	for _, s := range p.steps {
		t += s.Reaction.Energy()
	}
	return t
}

// EnergyPerAtom is the sum of per-atom reaction energies.
func (p *Pathway) EnergyPerAtom() float64 {
	var t float64
	for _, s := range p.steps {
		t += s.Reaction.EnergyPerAtom()
	}
	return t
}

// AllReactants returns every entry that is a reactant of some step.
func (p *Pathway) AllReactants() []chem.Entry {
	return p.collect(func(r *reaction.Reaction) []chem.Entry { return r.ReactantEntries() })
}

// AllProducts returns every entry that is a product of some step.
func (p *Pathway) AllProducts() []chem.Entry {
	return p.collect(func(r *reaction.Reaction) []chem.Entry { return r.ProductEntries() })
}

// Compositions returns AllReactants ∪ AllProducts.
func (p *Pathway) Compositions() []chem.Entry {
	return union(p.AllReactants(), p.AllProducts())
}

// Reactants returns the overall reactants: AllReactants − AllProducts.
func (p *Pathway) Reactants() []chem.Entry { return minus(p.AllReactants(), p.AllProducts()) }

// Products returns the overall products: AllProducts − AllReactants.
func (p *Pathway) Products() []chem.Entry { return minus(p.AllProducts(), p.AllReactants()) }

// Intermediates returns AllProducts ∩ AllReactants.
func (p *Pathway) Intermediates() []chem.Entry {
	return minus(p.AllProducts(), p.Products())
}

// String renders one reaction per line followed by the total cost.
func (p *Pathway) String() string {
	var sb strings.Builder
	for _, s := range p.steps {
		fmt.Fprintf(&sb, "%s (cost %.4f)\n", s.Reaction, s.Cost)
	}
	fmt.Fprintf(&sb, "Total cost: %.4f", p.TotalCost())
	return sb.String()
}

func (p *Pathway) collect(side func(*reaction.Reaction) []chem.Entry) []chem.Entry {
	var out []chem.Entry
	for _, s := range p.steps {
		out = union(out, side(s.Reaction))
	}
	return out
}

// union returns the key-sorted, deduplicated union of a and b.
func union(a, b []chem.Entry) []chem.Entry {
	seen := make(map[string]chem.Entry, len(a)+len(b))
	for _, e := range a {
		seen[e.Key()] = e
	}
	for _, e := range b {
		if _, ok := seen[e.Key()]; !ok {
			seen[e.Key()] = e
		}
	}
	return sortedEntries(seen)
}

// minus returns the key-sorted entries of a not in b.
func minus(a, b []chem.Entry) []chem.Entry {
	drop := chem.IndexEntries(b)
	keep := make(map[string]chem.Entry, len(a))
	for _, e := range a {
		if !drop.Has(e) {
			keep[e.Key()] = e
		}
	}
	return sortedEntries(keep)
}

func sortedEntries(m map[string]chem.Entry) []chem.Entry {
	out := make([]chem.Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func keysOf(es []chem.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

// Dedupe drops pathways whose reaction sequence was already seen, keeping
// the first occurrence and the input order.
func Dedupe(paths []*Pathway) []*Pathway {
	seen := make(map[string]struct{}, len(paths))
	out := make([]*Pathway, 0, len(paths))
	for _, p := range paths {
		if p == nil {
			continue
		}
		if _, dup := seen[p.key]; dup {
			continue
		}
		seen[p.key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SortByTotalCost orders paths by total cost, keeping ties stable.
func SortByTotalCost(paths []*Pathway) {
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].TotalCost() < paths[j].TotalCost() })
}

// StepRecord is the serialized form of a Step.
type StepRecord struct {
	Equation      string  `json:"equation"`
	Energy        float64 `json:"energy"`
	EnergyPerAtom float64 `json:"energy_per_atom"`
	Cost          float64 `json:"cost"`
}

// Record is the serialized form of a Pathway.
type Record struct {
	Steps         []StepRecord `json:"steps"`
	Reactants     []string     `json:"reactants"`
	Products      []string     `json:"products"`
	Intermediates []string     `json:"intermediates"`
	TotalCost     float64      `json:"total_cost"`
	AverageCost   float64      `json:"average_cost"`
	Energy        float64      `json:"energy"`
}

// Record returns the serialized form of p.
func (p *Pathway) Record() Record {
	rec := Record{
		Steps:         make([]StepRecord, len(p.steps)),
		Reactants:     keysOf(p.Reactants()),
		Products:      keysOf(p.Products()),
		Intermediates: keysOf(p.Intermediates()),
		TotalCost:     p.TotalCost(),
		AverageCost:   p.AverageCost(),
		Energy:        p.Energy(),
	}
	for i, s := range p.steps {
		rec.Steps[i] = StepRecord{
			Equation:      s.Reaction.String(),
			Energy:        s.Reaction.Energy(),
			EnergyPerAtom: s.Reaction.EnergyPerAtom(),
			Cost:          s.Cost,
		}
	}
	return rec
}

// MarshalJSON encodes p as its Record.
func (p *Pathway) MarshalJSON() ([]byte, error) { return json.Marshal(p.Record()) }
