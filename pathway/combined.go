// SPDX-License-Identifier: MIT

package pathway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/combo"
	"github.com/katalvlaran/rxnpath/matrix"
	"github.com/katalvlaran/rxnpath/reaction"
)

// DefaultTolerance is the mixing-coefficient cutoff used when none is given.
const DefaultTolerance = 1e-6

// CombinedPathway is a positive mix of pathways whose intermediates cancel.
//
// Reactions shared by several constituent pathways are counted once. The
// mixing coefficients are per distinct reaction, in first-seen order.
type CombinedPathway struct {
	paths     []*Pathway
	reactions []*reaction.Reaction
	costs     []float64
	coeffs    []float64

	// residual is the net reaction whenever positive coefficients exist;
	// it is exposed only when valid is set.
	residual *reaction.Reaction
	valid    bool
	key      string
}

// NewCombinedPathway mixes paths and checks the result against the declared
// precursors and targets.
//
// Steps:
//  1. Collect distinct reactions and the union of their compositions.
//  2. Intermediates are compositions that some reaction produces and some
//     reaction consumes, excluding precursors and targets.
//  3. Project the ones vector onto the null space of the intermediate rows of
//     the composition matrix, scale so the largest coefficient is 1, snap
//     |x| < tol to 0 and require every coefficient to be > 0.
//  4. net = Σ xᵢ·reactionᵢ with cancelled compositions removed.
//  5. Valid iff net reactants equal precursors and net products ⊇ targets.
//
// An invalid mix is not an error: NetReaction returns nil.
// Errors: ErrNoPaths, wrapped matrix errors.
func NewCombinedPathway(paths []*Pathway, precursors, targets []chem.Entry, tol float64) (*CombinedPathway, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}

	cp := &CombinedPathway{paths: append([]*Pathway(nil), paths...)}
	cp.key = combinedKey(paths)

	// 1) Distinct reactions and compositions
	seenRxn := make(map[string]struct{})
	entries := make(map[string]chem.Entry)
	consumed := make(map[string]bool)
	produced := make(map[string]bool)
	for _, p := range paths {
		for _, s := range p.steps {
			if _, dup := seenRxn[s.Reaction.Key()]; dup {
				continue
			}
			seenRxn[s.Reaction.Key()] = struct{}{}
			cp.reactions = append(cp.reactions, s.Reaction)
			cp.costs = append(cp.costs, s.Cost)
			for _, e := range s.Reaction.ReactantEntries() {
				entries[e.Key()] = e
				consumed[e.Key()] = true
			}
			for _, e := range s.Reaction.ProductEntries() {
				entries[e.Key()] = e
				produced[e.Key()] = true
			}
		}
	}
	comps := sortedEntries(entries)
	index := make(map[string]int, len(comps))
	for i, e := range comps {
		index[e.Key()] = i
	}

	// 2) Intermediates
	declared := chem.IndexEntries(append(append([]chem.Entry(nil), precursors...), targets...))
	var inter []int
	for i, e := range comps {
		if consumed[e.Key()] && produced[e.Key()] && !declared.Has(e) {
			inter = append(inter, i)
		}
	}

	// 3) Mixing coefficients
	vectors := make([][]float64, len(cp.reactions))
	for r, rxn := range cp.reactions {
		vectors[r] = rxn.Vector(index, len(comps))
	}
	x, err := mixingCoefficients(vectors, inter, tol)
	if err != nil {
		return nil, err
	}
	if x == nil {
		return cp, nil
	}
	cp.coeffs = x

	// 4) Net reaction
	net := make([]float64, len(comps))
	var scale float64
	for r, v := range vectors {
		for j := range net {
			net[j] += x[r] * v[j]
		}
	}
	for _, v := range net {
		scale = math.Max(scale, math.Abs(v))
	}
	var lhs, rhs []reaction.Component
	for j, v := range net {
		switch {
		case math.Abs(v) <= tol*math.Max(1, scale):
		case v < 0:
			lhs = append(lhs, reaction.Component{Entry: comps[j], Coeff: -v})
		default:
			rhs = append(rhs, reaction.Component{Entry: comps[j], Coeff: v})
		}
	}
	if len(lhs) == 0 || len(rhs) == 0 {
		return cp, nil
	}
	cp.residual, err = reaction.New(lhs, rhs)
	if err != nil {
		return cp, nil
	}

	// 5) Validity
	cp.valid = sameKeys(cp.residual.ReactantEntries(), precursors) &&
		len(minus(targets, cp.residual.ProductEntries())) == 0

	return cp, nil
}

// mixingCoefficients returns strictly positive reaction multipliers that
// cancel every intermediate, or nil when none exist.
func mixingCoefficients(vectors [][]float64, inter []int, tol float64) ([]float64, error) {
	n := len(vectors)
	x := make([]float64, n)

	if len(inter) == 0 {
		for i := range x {
			x[i] = 1
		}
		return x, nil
	}

	rows := make([][]float64, len(inter))
	for i, j := range inter {
		row := make([]float64, n)
		for r := range vectors {
			row[r] = vectors[r][j]
		}
		rows[i] = row
	}
	a, err := matrix.NewDenseFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("pathway: intermediate matrix: %w", err)
	}
	basis, err := matrix.NullSpace(a, 0)
	if err != nil {
		return nil, fmt.Errorf("pathway: intermediate null space: %w", err)
	}
	if len(basis) == 0 {
		return nil, nil
	}

	// Project 1 onto span(basis); basis is orthonormal.
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	x = projectOnto(basis, ones)
	if !allAbove(x, tol) {
		// The projection can leave the positive orthant even when a
		// positive mix exists; search the cone x ≥ 1 within the span.
		x = positiveInSpan(basis, x)
	}
	if x == nil {
		return nil, nil
	}

	var xmax float64
	for _, v := range x {
		if math.Abs(v) > math.Abs(xmax) {
			xmax = v
		}
	}
	if math.Abs(xmax) < tol {
		return nil, nil
	}
	for i := range x {
		x[i] /= xmax
		if math.Abs(x[i]) < tol {
			x[i] = 0
		}
		if !(x[i] > 0) {
			return nil, nil
		}
	}

	return x, nil
}

// maxConeIterations bounds the alternating projections in positiveInSpan.
const maxConeIterations = 10000

// projectOnto returns the orthogonal projection of z onto span(basis).
// basis must be orthonormal.
func projectOnto(basis [][]float64, z []float64) []float64 {
	out := make([]float64, len(z))
	for _, b := range basis {
		var dot float64
		for i, v := range b {
			dot += v * z[i]
		}
		for i, v := range b {
			out[i] += dot * v
		}
	}
	return out
}

// positiveInSpan looks for a vector of span(basis) with every component ≥ 1
// by alternating projections between the span and the cone, starting at x.
// It returns nil when none is found within maxConeIterations.
//
// Complexity: O(maxConeIterations · len(basis) · n).
func positiveInSpan(basis [][]float64, x []float64) []float64 {
	const slack = 1e-9
	y := append([]float64(nil), x...)
	z := make([]float64, len(y))
	for it := 0; it < maxConeIterations; it++ {
		// 1) Done once the span point sits inside the cone
		low := math.Inf(1)
		for _, v := range y {
			low = math.Min(low, v)
		}
		if low >= 1-slack {
			return y
		}
		// 2) Clamp into the cone, then back onto the span
		for i, v := range y {
			z[i] = math.Max(v, 1)
		}
		y = projectOnto(basis, z)
	}
	return nil
}

func allAbove(xs []float64, tol float64) bool {
	var xmax float64
	for _, v := range xs {
		if math.Abs(v) > math.Abs(xmax) {
			xmax = v
		}
	}
	if math.Abs(xmax) < tol {
		return false
	}
	for _, v := range xs {
		if !(v/xmax > tol) {
			return false
		}
	}
	return true
}

func sameKeys(a, b []chem.Entry) bool {
	ka := keysOf(sortedEntries(toMap(a)))
	kb := keysOf(sortedEntries(toMap(b)))
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func toMap(es []chem.Entry) map[string]chem.Entry {
	m := make(map[string]chem.Entry, len(es))
	for _, e := range es {
		m[e.Key()] = e
	}
	return m
}

func combinedKey(paths []*Pathway) string {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = p.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, " || ")
}

// Paths returns the constituent pathways.
func (c *CombinedPathway) Paths() []*Pathway { return c.paths }

// Reactions returns the distinct constituent reactions in first-seen order.
func (c *CombinedPathway) Reactions() []*reaction.Reaction { return c.reactions }

// Coefficients returns the mixing coefficient of each distinct reaction, or
// nil when no positive mix exists.
func (c *CombinedPathway) Coefficients() []float64 { return c.coeffs }

// NetReaction returns the net reaction of a valid mix, nil otherwise.
func (c *CombinedPathway) NetReaction() *reaction.Reaction {
	if !c.valid {
		return nil
	}
	return c.residual
}

// Valid reports whether NetReaction is non-nil.
func (c *CombinedPathway) Valid() bool { return c.valid }

// Key identifies the combination by its sorted constituent pathway keys.
func (c *CombinedPathway) Key() string { return c.key }

// AverageCost is the mean cost over the distinct constituent reactions.
func (c *CombinedPathway) AverageCost() float64 {
	if len(c.costs) == 0 {
		return 0
	}
	var t float64
	for _, x := range c.costs {
		t += x
	}
	return t / float64(len(c.costs))
}

// leftoverProducts returns net products that are not targets, or nil when no
// positive mix exists.
func (c *CombinedPathway) leftoverProducts(targets []chem.Entry) []chem.Entry {
	if c.residual == nil {
		return nil
	}
	return minus(c.residual.ProductEntries(), targets)
}

// String renders the net reaction (or "invalid") with the average cost.
func (c *CombinedPathway) String() string {
	net := "invalid"
	if c.valid {
		net = c.residual.String()
	}
	return fmt.Sprintf("%s (%d pathways, average cost %.4f)", net, len(c.paths), c.AverageCost())
}

// CombinedRecord is the serialized form of a CombinedPathway.
type CombinedRecord struct {
	Pathways     []Record  `json:"pathways"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	NetReaction  string    `json:"net_reaction,omitempty"`
	AverageCost  float64   `json:"average_cost"`
}

// Record returns the serialized form of c.
func (c *CombinedPathway) Record() CombinedRecord {
	rec := CombinedRecord{
		Pathways:     make([]Record, len(c.paths)),
		Coefficients: c.coeffs,
		AverageCost:  c.AverageCost(),
	}
	for i, p := range c.paths {
		rec.Pathways[i] = p.Record()
	}
	if n := c.NetReaction(); n != nil {
		rec.NetReaction = n.String()
	}
	return rec
}

// MarshalJSON encodes c as its CombinedRecord.
func (c *CombinedPathway) MarshalJSON() ([]byte, error) { return json.Marshal(c.Record()) }

// CombineOption customizes Combine.
type CombineOption func(*combineConfig)

type combineConfig struct {
	maxCombos int
	tol       float64
	balancer  reaction.Balancer
}

// DefaultMaxCombos is the largest subset of pathways Combine mixes by default.
const DefaultMaxCombos = 3

// WithMaxCombos bounds the subset size. Panics when n < 1.
func WithMaxCombos(n int) CombineOption {
	if n < 1 {
		panic(fmt.Sprintf("pathway: WithMaxCombos(%d): must be >= 1", n))
	}
	return func(c *combineConfig) { c.maxCombos = n }
}

// WithTolerance sets the mixing-coefficient cutoff. Panics when tol ≤ 0.
func WithTolerance(tol float64) CombineOption {
	if !(tol > 0) {
		panic(fmt.Sprintf("pathway: WithTolerance(%g): must be > 0", tol))
	}
	return func(c *combineConfig) { c.tol = tol }
}

// WithBalancer sets the balancer used for leftover reactions. Panics on nil.
func WithBalancer(b reaction.Balancer) CombineOption {
	if b == nil {
		panic("pathway: WithBalancer(nil)")
	}
	return func(c *combineConfig) { c.balancer = b }
}

// Combine searches mixes of up to max-combos pathways that convert the
// precursors into the targets.
//
// Steps:
//  1. For every subset of paths (sizes 1..max), build a CombinedPathway and
//     keep it when valid.
//  2. When a positive mix leaves non-target products, balance each subset of
//     leftovers against each subset of targets. Every balanced reaction is
//     appended as a zero-cost single-step pathway and the extended mix is kept
//     when valid.
//  3. Deduplicate by constituent set and sort by average cost (stable).
//
// Empty input gives an empty result. Errors: context errors and wrapped
// matrix errors.
func Combine(ctx context.Context, paths []*Pathway, precursors, targets []chem.Entry, opts ...CombineOption) ([]*CombinedPathway, error) {
	cfg := combineConfig{
		maxCombos: DefaultMaxCombos,
		tol:       DefaultTolerance,
		balancer:  reaction.NewNullSpaceBalancer(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	subsets, err := combo.Generate(ctx, paths, cfg.maxCombos)
	if err != nil {
		return nil, fmt.Errorf("pathway: combine: %w", err)
	}
	var targetSets [][]chem.Entry
	if len(targets) > 0 {
		if targetSets, err = combo.Generate(ctx, targets, len(targets)); err != nil {
			return nil, fmt.Errorf("pathway: combine: %w", err)
		}
	}

	var out []*CombinedPathway
	seen := make(map[string]struct{})
	keep := func(cp *CombinedPathway) {
		if !cp.Valid() {
			return
		}
		if _, dup := seen[cp.Key()]; dup {
			return
		}
		seen[cp.Key()] = struct{}{}
		out = append(out, cp)
	}

	for _, subset := range subsets {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("pathway: combine: %w", err)
		}

		// 1) Plain mix
		cp, err := NewCombinedPathway(subset, precursors, targets, cfg.tol)
		if err != nil {
			return nil, err
		}
		keep(cp)

		// 2) Leftovers
		leftovers := cp.leftoverProducts(targets)
		if len(leftovers) == 0 {
			continue
		}
		leftSets, err := combo.Generate(ctx, leftovers, len(leftovers))
		if err != nil {
			return nil, fmt.Errorf("pathway: combine: %w", err)
		}
		for _, ls := range leftSets {
			for _, ts := range targetSets {
				rxn, err := cfg.balancer.Balance(chem.NewCombination(ls...), chem.NewCombination(ts...))
				if err != nil {
					continue
				}
				extra, err := New(Step{Reaction: rxn, Cost: 0})
				if err != nil {
					continue
				}
				extended := append(append([]*Pathway(nil), subset...), extra)
				ecp, err := NewCombinedPathway(extended, precursors, targets, cfg.tol)
				if err != nil {
					return nil, err
				}
				keep(ecp)
			}
		}
	}

	// 3) Order
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageCost() < out[j].AverageCost() })

	return out, nil
}
