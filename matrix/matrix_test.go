// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rxnpath/matrix"
)

const eps = 1e-9

func mustRows(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

func requireMatrixNear(t *testing.T, want [][]float64, got matrix.Matrix, tol float64) {
	t.Helper()
	require.Equal(t, len(want), got.Rows())
	require.Equal(t, len(want[0]), got.Cols())
	for i := range want {
		for j := range want[i] {
			v, err := got.At(i, j)
			require.NoError(t, err)
			require.InDelta(t, want[i][j], v, tol, "at (%d,%d)", i, j)
		}
	}
}

func TestNewDense_Validation(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDenseFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrRaggedRows)

	_, err = matrix.NewDenseFromRows([][]float64{{math.NaN()}})
	require.ErrorIs(t, err, matrix.ErrNaNInf)

	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	_, err = m.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(1)), matrix.ErrNaNInf)
}

func TestDense_CloneIsIndependent(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 2}, {3, 4}})
	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 9))
	v, _ := m.At(0, 0)
	require.Equal(t, 1.0, v)
	require.Equal(t, []float64{2, 4}, m.Col(1))
	require.Equal(t, []float64{3, 4}, m.Row(1))
}

func TestMulTransposeMatVec(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	b := mustRows(t, [][]float64{{1, 0}, {0, 1}, {1, 1}})

	p, err := matrix.Mul(a, b)
	require.NoError(t, err)
	requireMatrixNear(t, [][]float64{{4, 5}, {10, 11}}, p, 0)

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	requireMatrixNear(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, at, 0)

	y, err := matrix.MatVec(a, []float64{1, 1, 1})
	require.NoError(t, err)
	require.Equal(t, []float64{6, 15}, y)

	_, err = matrix.MatVec(a, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.MatVec(nil, []float64{1})
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestEigen_Symmetric(t *testing.T) {
	m := mustRows(t, [][]float64{{2, 1}, {1, 2}})
	vals, vecs, err := matrix.Eigen(m, 1e-12, 100)
	require.NoError(t, err)

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	require.InDelta(t, 1.0, sorted[0], eps)
	require.InDelta(t, 3.0, sorted[1], eps)

	// A·v = λ·v for every column.
	for k, l := range vals {
		v := vecs.Col(k)
		av, err := matrix.MatVec(m, v)
		require.NoError(t, err)
		for i := range v {
			require.InDelta(t, l*v[i], av[i], eps)
		}
	}
}

func TestEigen_RejectsAsymmetric(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 2}, {0, 1}})
	_, _, err := matrix.Eigen(m, 1e-12, 10)
	require.True(t, errors.Is(err, matrix.ErrAsymmetry))
}

func TestPseudoInverse_RankDeficient(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {2, 4}})
	pinv, err := matrix.PseudoInverse(a, 0)
	require.NoError(t, err)
	requireMatrixNear(t, [][]float64{{1.0 / 25, 2.0 / 25}, {2.0 / 25, 4.0 / 25}}, pinv, 1e-9)
}

func TestPseudoInverse_Rectangular(t *testing.T) {
	// Full column rank: A⁺·A = I.
	a := mustRows(t, [][]float64{{1, 0}, {0, 1}, {1, 1}})
	pinv, err := matrix.PseudoInverse(a, 0)
	require.NoError(t, err)
	require.Equal(t, 2, pinv.Rows())
	require.Equal(t, 3, pinv.Cols())
	id, err := matrix.Mul(pinv, a)
	require.NoError(t, err)
	requireMatrixNear(t, [][]float64{{1, 0}, {0, 1}}, id, 1e-9)
}

func TestSolveLeastSquares(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 0}, {0, 1}, {1, 1}})
	x, err := matrix.SolveLeastSquares(a, []float64{1, 2, 3}, 0)
	require.NoError(t, err)
	require.InDelta(t, 1.0, x[0], 1e-9)
	require.InDelta(t, 2.0, x[1], 1e-9)

	_, err = matrix.SolveLeastSquares(a, []float64{1}, 0)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestNullSpace(t *testing.T) {
	// Ba, Ti, O rows; columns BaO, TiO2, -BaTiO3.
	a := mustRows(t, [][]float64{
		{1, 0, -1},
		{0, 1, -1},
		{1, 2, -3},
	})
	ns, err := matrix.NullSpace(a, 0)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	v := ns[0]
	require.Greater(t, v[0], 0.0)
	require.InDelta(t, v[0], v[1], 1e-9)
	require.InDelta(t, v[0], v[2], 1e-9)

	full := mustRows(t, [][]float64{{1, 0}, {0, 1}})
	ns, err = matrix.NullSpace(full, 0)
	require.NoError(t, err)
	require.Empty(t, ns)

	wide := mustRows(t, [][]float64{{1, 1, 0}})
	ns, err = matrix.NullSpace(wide, 0)
	require.NoError(t, err)
	require.Len(t, ns, 2)
}
