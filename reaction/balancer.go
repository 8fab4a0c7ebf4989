package reaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/matrix"
)

// Sentinel errors returned by balancers.
var (
	// ErrNoReaction indicates the pair admits no balanced reaction.
	ErrNoReaction = errors.New("reaction: no balanced reaction")

	// ErrUnderdetermined indicates more than one independent reaction balances the pair.
	ErrUnderdetermined = errors.New("reaction: balancing is underdetermined")

	// ErrDegenerate indicates a member would take a numerically zero coefficient.
	ErrDegenerate = errors.New("reaction: degenerate coefficient")

	// ErrSideChange indicates balancing would move a member across sides.
	ErrSideChange = errors.New("reaction: member changes side")
)

// DefaultTolerance is the relative threshold below which a coefficient is zero.
const DefaultTolerance = 1e-6

// Balancer turns a reactant and product combination into a balanced Reaction.
//
// Implementations return one of the package sentinels (possibly wrapped) when
// no valid reaction exists. Any other error is a balancing failure.
type Balancer interface {
	Balance(reactants, products *chem.Combination) (*Reaction, error)
}

// IsNoReaction reports whether err means "this pair has no valid reaction",
// as opposed to an unexpected balancing error.
func IsNoReaction(err error) bool {
	return errors.Is(err, ErrNoReaction) ||
		errors.Is(err, ErrUnderdetermined) ||
		errors.Is(err, ErrDegenerate) ||
		errors.Is(err, ErrSideChange)
}

// NullSpaceBalancer balances by solving A·x = 0, where column j of A holds the
// element amounts of member j (negated for products).
//
// The pair is accepted only when the null space is one-dimensional and its
// basis vector is strictly positive, i.e. every member keeps its side and a
// non-zero coefficient. Coefficients are scaled so the first product (by key)
// has coefficient 1.
type NullSpaceBalancer struct {
	// Tol is the relative coefficient cutoff (DefaultTolerance when ≤ 0).
	Tol float64
}

// NewNullSpaceBalancer returns a balancer with DefaultTolerance.
func NewNullSpaceBalancer() *NullSpaceBalancer {
	return &NullSpaceBalancer{Tol: DefaultTolerance}
}

// Balance implements Balancer.
//
// Steps:
//  1. Reject differing element sets (ErrNoReaction).
//  2. Build the element × member matrix.
//  3. Null space: dim 0 → ErrNoReaction, dim > 1 → ErrUnderdetermined.
//  4. Reject near-zero (ErrDegenerate) and negative (ErrSideChange) members.
//  5. Normalize and construct the Reaction.
func (b *NullSpaceBalancer) Balance(reactants, products *chem.Combination) (*Reaction, error) {
	tol := b.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}

	// 1) Element sets
	if reactants == nil || products == nil || reactants.Len() == 0 || products.Len() == 0 {
		return nil, fmt.Errorf("%w: empty side", ErrNoReaction)
	}
	if !reactants.SameElements(products) {
		return nil, fmt.Errorf("%w: element sets differ (%s vs %s)",
			ErrNoReaction, reactants.ElementKey(), products.ElementKey())
	}

	// 2) Matrix
	members := make([]chem.Entry, 0, reactants.Len()+products.Len())
	members = append(members, reactants.Entries()...)
	members = append(members, products.Entries()...)
	nr := reactants.Len()
	elements := reactants.Elements()
	rows := make([][]float64, len(elements))
	for i, el := range elements {
		row := make([]float64, len(members))
		for j, e := range members {
			a := e.Composition().Amount(el)
			if j >= nr {
				a = -a
			}
			row[j] = a
		}
		rows[i] = row
	}
	a, err := matrix.NewDenseFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("reaction: build matrix: %w", err)
	}

	// 3) Null space
	basis, err := matrix.NullSpace(a, 0)
	if err != nil {
		return nil, fmt.Errorf("reaction: null space: %w", err)
	}
	switch {
	case len(basis) == 0:
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoReaction, reactants, products)
	case len(basis) > 1:
		return nil, fmt.Errorf("%w: %d independent reactions for %s -> %s",
			ErrUnderdetermined, len(basis), reactants, products)
	}
	v := basis[0]

	// 4) Coefficient checks relative to the largest magnitude
	var vmax float64
	for _, x := range v {
		vmax = math.Max(vmax, math.Abs(x))
	}
	for j, x := range v {
		if math.Abs(x) < tol*vmax {
			return nil, fmt.Errorf("%w: %s", ErrDegenerate, members[j].Key())
		}
		if x < 0 {
			return nil, fmt.Errorf("%w: %s", ErrSideChange, members[j].Key())
		}
	}

	// 5) Normalize to the first product and build
	scale := v[nr]
	rc := make([]Component, nr)
	for j := 0; j < nr; j++ {
		rc[j] = Component{Entry: members[j], Coeff: snap(v[j] / scale)}
	}
	pc := make([]Component, len(members)-nr)
	for j := nr; j < len(members); j++ {
		pc[j-nr] = Component{Entry: members[j], Coeff: snap(v[j] / scale)}
	}

	return New(rc, pc)
}

// snap removes floating noise from near-integral coefficients.
func snap(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < 1e-8 {
		return r
	}
	return x
}
