// SPDX-License-Identifier: MIT

package matrix

import (
	"math"
	"sort"
)

// DefaultRankTol is the relative eigenvalue cutoff used by rank-revealing helpers.
const DefaultRankTol = 1e-9

// jacobiRelTol scales the Jacobi convergence threshold by the Gram matrix magnitude.
const jacobiRelTol = 1e-13

// gramEigen returns the eigen-decomposition of AᵀA along with the absolute
// cutoff under which an eigenvalue counts as zero.
func gramEigen(a *Dense, tol float64) ([]float64, *Dense, float64, error) {
	at, err := Transpose(a)
	if err != nil {
		return nil, nil, 0, err
	}
	g, err := Mul(at, a)
	if err != nil {
		return nil, nil, 0, err
	}

	var scale float64
	for _, v := range g.data {
		if av := math.Abs(v); av > scale {
			scale = av
		}
	}
	n := g.r
	eigs, q, err := Eigen(g, jacobiRelTol*math.Max(1, scale), 200*n*n+1000)
	if err != nil {
		return nil, nil, 0, err
	}

	var lmax float64
	for _, l := range eigs {
		if l > lmax {
			lmax = l
		}
	}

	return eigs, q, tol * math.Max(1, lmax), nil
}

// PseudoInverse returns the Moore–Penrose pseudo-inverse A⁺ (c×r) of an r×c matrix.
//
// Implementation:
//   - Stage 1: Eigen-decompose G = AᵀA = V Λ Vᵀ.
//   - Stage 2: A⁺ = V Λ⁺ Vᵀ Aᵀ where Λ⁺ inverts eigenvalues above the rank cutoff.
//
// tol is the relative rank cutoff (DefaultRankTol when ≤ 0).
// Complexity: O(c³ + r·c²).
func PseudoInverse(m Matrix, tol float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	if tol <= 0 {
		tol = DefaultRankTol
	}
	a, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	eigs, v, cutoff, err := gramEigen(a, tol)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}

	// 1) Build V Λ⁺ Vᵀ (c×c).
	c := a.c
	inner, err := NewDense(c, c)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	var i, j, k int
	var acc float64
	for i = 0; i < c; i++ {
		for j = 0; j < c; j++ {
			acc = 0
			for k = 0; k < c; k++ {
				if eigs[k] > cutoff {
					acc += v.data[i*c+k] * v.data[j*c+k] / eigs[k]
				}
			}
			inner.data[i*c+j] = acc
		}
	}

	// 2) Multiply by Aᵀ.
	at, err := Transpose(a)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	out, err := Mul(inner, at)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}

	return out, nil
}

// SolveLeastSquares returns the minimum-norm least-squares solution of A·x = b.
// tol is the relative rank cutoff (DefaultRankTol when ≤ 0).
func SolveLeastSquares(m Matrix, b []float64, tol float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}
	if err := ValidateVecLen(b, m.Rows()); err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}
	pinv, err := PseudoInverse(m, tol)
	if err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}

	return MatVec(pinv, b)
}

// NullSpace returns an orthonormal basis of {x : A·x = 0} as a list of vectors
// of length A.Cols(). An empty result means A has full column rank.
//
// Each basis vector is sign-normalized so its first non-negligible component
// is positive, and the basis is ordered by that component's index, which
// keeps results stable across runs.
//
// tol is the relative rank cutoff (DefaultRankTol when ≤ 0).
// Complexity: O(c³ + r·c²).
func NullSpace(m Matrix, tol float64) ([][]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opNullSpace, err)
	}
	if tol <= 0 {
		tol = DefaultRankTol
	}
	a, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opNullSpace, err)
	}
	eigs, v, cutoff, err := gramEigen(a, tol)
	if err != nil {
		return nil, matrixErrorf(opNullSpace, err)
	}

	c := a.c
	basis := make([][]float64, 0)
	lead := make([]int, 0)
	for k := 0; k < c; k++ {
		if eigs[k] > cutoff {
			continue
		}
		vec := v.Col(k)
		first := leadingIndex(vec)
		if first < 0 {
			continue
		}
		if vec[first] < 0 {
			for i := range vec {
				vec[i] = -vec[i]
			}
		}
		basis = append(basis, vec)
		lead = append(lead, first)
	}

	idx := make([]int, len(basis))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool { return lead[idx[x]] < lead[idx[y]] })
	out := make([][]float64, len(basis))
	for i, j := range idx {
		out[i] = basis[j]
	}

	return out, nil
}

// leadingIndex returns the index of the first component with |v| > 1e-12, or -1.
func leadingIndex(v []float64) int {
	for i, x := range v {
		if math.Abs(x) > 1e-12 {
			return i
		}
	}

	return -1
}
