package chem

import "math"

// stableTol is the hull distance at or below which an entry counts as stable.
const stableTol = 1e-9

// HullDistancer reports an entry's energy above the convex hull (eV/atom).
// ok is false when the entry is unknown to the hull.
type HullDistancer interface {
	EAboveHull(e Entry) (value float64, ok bool)
}

// StaticHull is a HullDistancer backed by precomputed values keyed by Entry.Key.
type StaticHull map[string]float64

// EAboveHull implements HullDistancer.
func (h StaticHull) EAboveHull(e Entry) (float64, bool) {
	v, ok := h[e.Key()]
	return v, ok
}

// FilterEntries selects the entries that take part in a network.
//
// Rules:
//   - hull == nil: every entry is treated as stable.
//   - Entries unknown to the hull are dropped.
//   - cutoff == nil or *cutoff == 0: stable entries only.
//   - includePolymorphs: every entry with e_above_hull ≤ cutoff.
//   - otherwise: all stable entries, plus every metastable entry within the
//     cutoff whose reduced composition has no stable entry.
//
// Input order is preserved.
func FilterEntries(entries []Entry, hull HullDistancer, cutoff *float64, includePolymorphs bool) []Entry {
	if hull == nil {
		out := make([]Entry, len(entries))
		copy(out, entries)
		return out
	}

	type scored struct {
		e   Entry
		ehl float64
	}
	known := make([]scored, 0, len(entries))
	stableFormulas := make(map[string]struct{})
	for _, e := range entries {
		v, ok := hull.EAboveHull(e)
		if !ok || math.IsNaN(v) {
			continue
		}
		known = append(known, scored{e: e, ehl: v})
		if v <= stableTol {
			stableFormulas[e.Composition().ReducedFormula()] = struct{}{}
		}
	}

	stableOnly := cutoff == nil || *cutoff <= stableTol

	out := make([]Entry, 0, len(known))
	for _, s := range known {
		switch {
		case s.ehl <= stableTol:
			out = append(out, s.e)
		case stableOnly, s.ehl > *cutoff:
		case includePolymorphs:
			out = append(out, s.e)
		default:
			if _, has := stableFormulas[s.e.Composition().ReducedFormula()]; !has {
				out = append(out, s.e)
			}
		}
	}

	return out
}
