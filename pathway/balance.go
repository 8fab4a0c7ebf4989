// SPDX-License-Identifier: MIT

package pathway

import (
	"fmt"
	"math"

	"github.com/katalvlaran/rxnpath/matrix"
)

// Tolerances of the consistency check Cᵀ·m ≈ net.
const (
	balanceAbsTol = 1e-8
	balanceRelTol = 1e-5
)

// BalancePathArrays selects the candidate mixes that reproduce a net reaction.
//
// Each comps[i] is a stoichiometric matrix with one row per reaction and one
// column per composition; net has one entry per composition. For each
// candidate C the multiplicities m solve Cᵀ·m = net in the least-squares
// sense (m = pinv(Cᵀ)·net).
//
// A candidate is kept only when:
//  1. every composition with a non-zero net coefficient appears in some row;
//  2. every multiplicity is ≥ tol;
//  3. Cᵀ·m matches net within 1e-8 + 1e-5·|net| per composition.
//
// The kept matrices and their multiplicities are returned in input order.
// Errors: ErrShape when a matrix column count differs from len(net), or
// wrapped matrix errors.
// Complexity: O(Σ r·c²) for r reactions and c compositions per candidate.
func BalancePathArrays(comps []matrix.Matrix, net []float64, tol float64) ([]matrix.Matrix, [][]float64, error) {
	var (
		keptC []matrix.Matrix
		keptM [][]float64
	)

	for i, c := range comps {
		if err := matrix.ValidateNotNil(c); err != nil {
			return nil, nil, fmt.Errorf("pathway: candidate %d: %w", i, err)
		}
		if c.Cols() != len(net) {
			return nil, nil, fmt.Errorf("%w: candidate %d has %d columns, net has %d",
				ErrShape, i, c.Cols(), len(net))
		}
		ct, err := matrix.Transpose(c)
		if err != nil {
			return nil, nil, fmt.Errorf("pathway: candidate %d: %w", i, err)
		}

		// 1) Every required composition must be touched
		if !coversNet(ct, net) {
			continue
		}

		// 2) Multiplicities
		m, err := matrix.SolveLeastSquares(ct, net, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("pathway: candidate %d: %w", i, err)
		}
		if anyBelow(m, tol) {
			continue
		}

		// 3) Consistency
		got, err := matrix.MatVec(ct, m)
		if err != nil {
			return nil, nil, fmt.Errorf("pathway: candidate %d: %w", i, err)
		}
		if !allClose(got, net) {
			continue
		}

		keptC = append(keptC, c)
		keptM = append(keptM, m)
	}

	return keptC, keptM, nil
}

// coversNet reports whether each composition j with net[j] ≠ 0 has a
// non-zero coefficient in some reaction. ct is compositions × reactions.
func coversNet(ct *matrix.Dense, net []float64) bool {
	for j, v := range net {
		if v == 0 {
			continue
		}
		touched := false
		for _, x := range ct.Row(j) {
			if x != 0 {
				touched = true
				break
			}
		}
		if !touched {
			return false
		}
	}
	return true
}

func anyBelow(xs []float64, tol float64) bool {
	for _, x := range xs {
		if x < tol {
			return true
		}
	}
	return false
}

func allClose(got, want []float64) bool {
	for i := range want {
		if math.Abs(got[i]-want[i]) > balanceAbsTol+balanceRelTol*math.Abs(want[i]) {
			return false
		}
	}
	return true
}
