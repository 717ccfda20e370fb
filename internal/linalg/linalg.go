// Package linalg implements the small dense kernel the regression code is
// built on. Matrices are row-major [][]float64 sized observations x
// parameters, with parameter counts small enough that plain Gaussian
// elimination is adequate.
package linalg

import (
	"errors"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")
	ErrSingularMatrix    = errors.New("linalg: singular matrix")
)

const pivotEpsilon = 1e-12

// Transpose returns a new matrix m^T. The input is not modified.
func Transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	rows := len(m)
	cols := len(m[0])
	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// MatMul computes a*b. Inner dimensions must agree.
func MatMul(a, b [][]float64) ([][]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrDimensionMismatch
	}
	inner := len(a[0])
	if inner != len(b) {
		return nil, ErrDimensionMismatch
	}
	cols := len(b[0])
	out := make([][]float64, len(a))
	for i := range a {
		if len(a[i]) != inner {
			return nil, ErrDimensionMismatch
		}
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out, nil
}

// MatVecMul computes m*v as row-wise dot products.
func MatVecMul(m [][]float64, v []float64) ([]float64, error) {
	out := make([]float64, len(m))
	for i, row := range m {
		if len(row) != len(v) {
			return nil, ErrDimensionMismatch
		}
		sum := 0.0
		for j, value := range row {
			sum += value * v[j]
		}
		out[i] = sum
	}
	return out, nil
}

// SolveLinearSystem solves a*x = b by Gaussian elimination with partial
// pivoting and back substitution. Inputs are copied, not modified. Returns
// ErrSingularMatrix when a pivot is numerically zero; callers treat that as
// "model not estimable", never as a crash.
func SolveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, ErrDimensionMismatch
	}

	aug := make([][]float64, n)
	for i := range a {
		if len(a[i]) != n {
			return nil, ErrDimensionMismatch
		}
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		// Partial pivoting: swap up the row with the largest absolute
		// entry in this column.
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(aug[pivot][col]) < pivotEpsilon {
			return nil, ErrSingularMatrix
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		for row := col + 1; row < n; row++ {
			factor := aug[row][col] / aug[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k <= n; k++ {
				aug[row][k] -= factor * aug[col][k]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}
	return x, nil
}

// StandardErrors approximates per-coefficient standard errors as
// sqrt(mse * |xtx[i][i]|). This uses only the diagonal of X'X and ignores
// off-diagonal covariance, so it is not an inverse-based standard error; it
// is kept for output compatibility and is indicative rather than
// inferential-grade.
func StandardErrors(xtx [][]float64, mse float64) []float64 {
	out := make([]float64, len(xtx))
	for i := range xtx {
		if i < len(xtx[i]) {
			out[i] = math.Sqrt(mse * math.Abs(xtx[i][i]))
		}
	}
	return out
}
