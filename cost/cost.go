// SPDX-License-Identifier: MIT

// Package cost maps reaction energies (eV/atom) to non-negative-friendly edge
// weights for the reaction network.
//
// Five named strategies are provided. Three are pure per-edge functions
// (softplus, rectified, arrhenius). The other two (bipartite,
// enthalpies_positive) need the most negative energy of the whole edge set
// before they can finish, so they are applied with Fold, which scans all
// energies first and shifts second.
//
// An unknown strategy name yields weight 0 for every edge.
package cost

import (
	"math"
	"sort"
)

// Name identifies a cost strategy.
type Name string

// Supported strategies.
const (
	Softplus           Name = "softplus"
	Rectified          Name = "rectified"
	Arrhenius          Name = "arrhenius"
	Bipartite          Name = "bipartite"
	EnthalpiesPositive Name = "enthalpies_positive"
)

// Strategy constants.
const (
	// BoltzmannEV is k_B in eV/K.
	BoltzmannEV = 8.617333262e-5

	// SoftplusTemp is the temperature (K) used by Softplus.
	SoftplusTemp = 500.0

	// ArrheniusTemp is the temperature (K) used by Arrhenius.
	ArrheniusTemp = 100.0

	// softplusRef is the reference temperature of the softplus prefactor.
	softplusRef = 273.0
)

// Names returns every supported strategy in sorted order.
func Names() []Name {
	out := []Name{Softplus, Rectified, Arrhenius, Bipartite, EnthalpiesPositive}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether n is a supported strategy.
func Valid(n Name) bool {
	switch n {
	case Softplus, Rectified, Arrhenius, Bipartite, EnthalpiesPositive:
		return true
	default:
		return false
	}
}

// NeedsShift reports whether n requires the global second pass.
func NeedsShift(n Name) bool {
	return n == Bipartite || n == EnthalpiesPositive
}

// SoftplusAt returns ln(1 + (273/t)·e^energy).
func SoftplusAt(energy, t float64) float64 {
	return math.Log1p(softplusRef / t * math.Exp(energy))
}

// ArrheniusAt returns e^(energy / (k_B·t)).
func ArrheniusAt(energy, t float64) float64 {
	return math.Exp(energy / (BoltzmannEV * t))
}

// Evaluate returns the first-pass weight of one edge.
//
// For the shifting strategies this is not final: bipartite returns 2E+1 for
// E ≥ 0 and E otherwise, enthalpies_positive returns E. Use Fold or Shift
// to complete them.
// Complexity: O(1).
func Evaluate(n Name, energy float64) float64 {
	switch n {
	case Softplus:
		return SoftplusAt(energy, SoftplusTemp)
	case Rectified:
		return math.Max(energy, 0)
	case Arrhenius:
		return ArrheniusAt(energy, ArrheniusTemp)
	case Bipartite:
		if energy >= 0 {
			return 2*energy + 1
		}
		return energy
	case EnthalpiesPositive:
		return energy
	default:
		return 0
	}
}

// Shift applies the second pass to a first-pass weight w, given the most
// negative energy min observed over the full edge set.
//
//   - bipartite: w < 0 becomes 1 − w/min, in [0, 1).
//   - enthalpies_positive: w becomes w − min.
//
// Other strategies, and an infinite min (no edges), return w unchanged.
func Shift(n Name, w, min float64) float64 {
	if math.IsInf(min, 0) || math.IsNaN(min) {
		return w
	}
	switch n {
	case Bipartite:
		if w < 0 && min != 0 {
			return 1 - w/min
		}
		return w
	case EnthalpiesPositive:
		return w - min
	default:
		return w
	}
}

// Fold maps raw energies to final weights.
//
// Steps:
//  1. Scan every energy, evaluating first-pass weights and the running minimum.
//  2. If n needs a shift, apply Shift to every weight.
//
// Fold always starts from raw energies, so folding the same energies twice
// (or after switching strategies back and forth) gives identical weights.
// The returned min is +Inf when energies is empty.
// Complexity: O(len(energies)).
func Fold(n Name, energies []float64) (weights []float64, min float64) {
	weights = make([]float64, len(energies))
	min = math.Inf(1)

	// 1) First pass
	for i, e := range energies {
		weights[i] = Evaluate(n, e)
		if e < min {
			min = e
		}
	}

	// 2) Global shift
	if NeedsShift(n) {
		for i := range weights {
			weights[i] = Shift(n, weights[i], min)
		}
	}

	return weights, min
}
