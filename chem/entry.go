package chem

import "fmt"

// Entry is a material phase with a known formation energy.
//
// Implementations must be immutable. Two entries are the same phase iff their
// Keys are equal.
type Entry interface {
	// Key is the identity used for deduplication and set membership.
	Key() string
	// Formula is the display formula.
	Formula() string
	// Composition is the composition the energy refers to.
	Composition() Composition
	// Energy is the formation energy of Composition, in eV.
	Energy() float64
}

// ComputedEntry is the reference Entry implementation.
type ComputedEntry struct {
	comp   Composition
	energy float64
	tag    string
	key    string
}

// NewEntry parses formula and returns an entry with the given energy.
// A non-empty tag distinguishes polymorphs sharing a reduced formula.
func NewEntry(formula string, energy float64, tag string) (*ComputedEntry, error) {
	comp, err := ParseFormula(formula)
	if err != nil {
		return nil, err
	}
	key := comp.ReducedFormula()
	if tag != "" {
		key = fmt.Sprintf("%s#%s", key, tag)
	}

	return &ComputedEntry{comp: comp, energy: energy, tag: tag, key: key}, nil
}

// MustEntry is NewEntry that panics on error. Intended for tests and fixtures.
func MustEntry(formula string, energy float64) *ComputedEntry {
	e, err := NewEntry(formula, energy, "")
	if err != nil {
		panic(err)
	}
	return e
}

// Key returns the reduced formula, suffixed with "#tag" for tagged polymorphs.
func (e *ComputedEntry) Key() string { return e.key }

// Formula returns the formula as parsed.
func (e *ComputedEntry) Formula() string { return e.comp.Formula() }

// Composition returns the parsed composition.
func (e *ComputedEntry) Composition() Composition { return e.comp }

// Energy returns the formation energy in eV.
func (e *ComputedEntry) Energy() float64 { return e.energy }

// Tag returns the polymorph tag, if any.
func (e *ComputedEntry) Tag() string { return e.tag }

// String implements fmt.Stringer.
func (e *ComputedEntry) String() string { return e.key }

// EntryIndex maps keys to entries for membership checks.
type EntryIndex map[string]Entry

// IndexEntries builds an EntryIndex; later duplicates overwrite earlier ones.
func IndexEntries(entries []Entry) EntryIndex {
	idx := make(EntryIndex, len(entries))
	for _, e := range entries {
		idx[e.Key()] = e
	}
	return idx
}

// Has reports whether an entry with e's key is indexed.
func (idx EntryIndex) Has(e Entry) bool {
	_, ok := idx[e.Key()]
	return ok
}
