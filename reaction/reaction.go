// Package reaction models balanced chemical reactions between entry
// combinations and defines the Balancer contract the network builder uses to
// turn a (reactants, products) pair into a Reaction.
//
// Balancer failures are discriminated sentinels so callers can tell a pair
// that simply has no reaction from one whose balancing is degenerate:
//
//	ErrNoReaction       - element sets differ, or only the trivial solution exists.
//	ErrUnderdetermined  - more than one independent balanced reaction exists.
//	ErrDegenerate       - a member would need a (numerically) zero coefficient.
//	ErrSideChange       - balancing moves a member to the opposite side.
package reaction

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/rxnpath/chem"
)

// Component is one side-member of a reaction with a positive coefficient.
type Component struct {
	Entry chem.Entry
	Coeff float64
}

// Reaction is a balanced transformation reactants → products.
// Coefficients on both sides are positive; the sign convention is carried by
// the side. A Reaction is immutable once built.
type Reaction struct {
	reactants []Component
	products  []Component
	energy    float64
	atoms     float64
	key       string
}

// New builds a reaction from explicit components. Components on each side
// are ordered by entry key. Non-positive coefficients are rejected.
func New(reactants, products []Component) (*Reaction, error) {
	if len(reactants) == 0 || len(products) == 0 {
		return nil, fmt.Errorf("%w: empty side", ErrNoReaction)
	}
	r := &Reaction{
		reactants: sortedCopy(reactants),
		products:  sortedCopy(products),
	}
	for _, c := range append(append([]Component(nil), r.reactants...), r.products...) {
		if !(c.Coeff > 0) || math.IsInf(c.Coeff, 0) {
			return nil, fmt.Errorf("%w: coefficient %g for %s", ErrDegenerate, c.Coeff, c.Entry.Key())
		}
	}

	// energy = Σ products − Σ reactants; atoms counted on the reactant side.
	for _, c := range r.products {
		r.energy += c.Coeff * c.Entry.Energy()
	}
	for _, c := range r.reactants {
		r.energy -= c.Coeff * c.Entry.Energy()
		r.atoms += c.Coeff * c.Entry.Composition().NumAtoms()
	}
	r.key = r.render(false)

	return r, nil
}

func sortedCopy(cs []Component) []Component {
	out := make([]Component, len(cs))
	copy(out, cs)
	sort.Slice(out, func(i, j int) bool { return out[i].Entry.Key() < out[j].Entry.Key() })
	return out
}

// Reactants returns the reactant components. The slice must not be modified.
func (r *Reaction) Reactants() []Component { return r.reactants }

// Products returns the product components. The slice must not be modified.
func (r *Reaction) Products() []Component { return r.products }

// Energy returns the reaction energy in eV for the coefficients as balanced.
func (r *Reaction) Energy() float64 { return r.energy }

// NumAtoms returns the number of atoms on one side of the balanced reaction.
func (r *Reaction) NumAtoms() float64 { return r.atoms }

// EnergyPerAtom returns Energy / NumAtoms. It is independent of the overall
// scale of the coefficients.
func (r *Reaction) EnergyPerAtom() float64 {
	if r.atoms == 0 {
		return 0
	}
	return r.energy / r.atoms
}

// Key returns a canonical, coefficient-free identity "A + B -> C" built from
// entry keys, so polymorphs stay distinct.
func (r *Reaction) Key() string { return r.key }

// String renders the balanced equation, e.g. "2 BaO + TiO2 -> Ba2TiO4".
func (r *Reaction) String() string { return r.render(true) }

// ReactantEntries returns the reactant entries in key order.
func (r *Reaction) ReactantEntries() []chem.Entry { return entriesOf(r.reactants) }

// ProductEntries returns the product entries in key order.
func (r *Reaction) ProductEntries() []chem.Entry { return entriesOf(r.products) }

// Coefficient returns the signed coefficient of the entry with key k:
// negative for reactants, positive for products, 0 when absent.
func (r *Reaction) Coefficient(k string) float64 {
	for _, c := range r.reactants {
		if c.Entry.Key() == k {
			return -c.Coeff
		}
	}
	for _, c := range r.products {
		if c.Entry.Key() == k {
			return c.Coeff
		}
	}
	return 0
}

// Vector writes the signed coefficients into a vector indexed by entry key.
// Keys missing from index are ignored.
func (r *Reaction) Vector(index map[string]int, n int) []float64 {
	v := make([]float64, n)
	for _, c := range r.reactants {
		if i, ok := index[c.Entry.Key()]; ok {
			v[i] -= c.Coeff
		}
	}
	for _, c := range r.products {
		if i, ok := index[c.Entry.Key()]; ok {
			v[i] += c.Coeff
		}
	}
	return v
}

func (r *Reaction) render(withCoeffs bool) string {
	side := func(cs []Component) string {
		parts := make([]string, len(cs))
		for i, c := range cs {
			f := c.Entry.Key()
			if withCoeffs {
				f = c.Entry.Formula()
				if math.Abs(c.Coeff-1) > 1e-9 {
					f = strconv.FormatFloat(math.Round(c.Coeff*1e4)/1e4, 'f', -1, 64) + " " + f
				}
			}
			parts[i] = f
		}
		return strings.Join(parts, " + ")
	}
	return side(r.reactants) + " -> " + side(r.products)
}

func entriesOf(cs []Component) []chem.Entry {
	out := make([]chem.Entry, len(cs))
	for i, c := range cs {
		out[i] = c.Entry
	}
	return out
}
