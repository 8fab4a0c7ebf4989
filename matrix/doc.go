// Package matrix provides the dense linear-algebra kernels used by reaction
// balancing and pathway mixing.
//
// The package is intentionally small:
//
//   - Dense: a row-major float64 matrix implementing the Matrix interface.
//   - Mul, Transpose, MatVec: deterministic products with *Dense fast paths.
//   - Eigen: classical Jacobi rotations (largest off-diagonal pivot) for symmetric matrices.
//   - PseudoInverse, SolveLeastSquares, NullSpace: rank-revealing helpers
//     built on Eigen, used to balance stoichiometric systems.
//
// All kernels validate inputs through the helpers in validators.go and return
// the sentinels from errors.go wrapped with an operation tag, so callers can
// match failures with errors.Is.
//
// Numerical policy:
//
//	Rank decisions use a relative cutoff: an eigenvalue λ of AᵀA is treated
//	as zero when λ ≤ tol·max(1, λmax). Squaring the condition number is
//	acceptable for the small (tens of columns) stoichiometric systems this
//	package serves.
package matrix
