package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranspose(t *testing.T) {
	m := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	got := Transpose(m)
	want := [][]float64{
		{1, 4},
		{2, 5},
		{3, 6},
	}
	assert.Equal(t, want, got)

	// Input untouched.
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, m)
}

func TestMatMul(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{3, 4},
	}
	b := [][]float64{
		{5, 6},
		{7, 8},
	}
	got, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{19, 22}, {43, 50}}, got)
}

func TestMatMulDimensionMismatch(t *testing.T) {
	a := [][]float64{{1, 2, 3}}
	b := [][]float64{{1, 2}, {3, 4}}
	_, err := MatMul(a, b)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMatVecMul(t *testing.T) {
	m := [][]float64{
		{1, 0, 2},
		{0, 3, -1},
	}
	got, err := MatVecMul(m, []float64{2, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -1}, got)

	_, err = MatVecMul(m, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSolveLinearSystem(t *testing.T) {
	tests := []struct {
		name string
		a    [][]float64
		b    []float64
		want []float64
	}{
		{
			name: "identity",
			a:    [][]float64{{1, 0}, {0, 1}},
			b:    []float64{3, -2},
			want: []float64{3, -2},
		},
		{
			name: "two_by_two",
			// 2x + y = 5, x + 3y = 10 -> x = 1, y = 3
			a:    [][]float64{{2, 1}, {1, 3}},
			b:    []float64{5, 10},
			want: []float64{1, 3},
		},
		{
			name: "requires_pivoting",
			// Leading zero forces the row swap.
			a:    [][]float64{{0, 1}, {1, 0}},
			b:    []float64{2, 7},
			want: []float64{7, 2},
		},
		{
			name: "three_by_three",
			a: [][]float64{
				{1, 1, 1},
				{0, 2, 5},
				{2, 5, -1},
			},
			b:    []float64{6, -4, 27},
			want: []float64{5, 3, -2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SolveLinearSystem(tt.a, tt.b)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestSolveLinearSystemSingular(t *testing.T) {
	// Second row is a multiple of the first.
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	_, err := SolveLinearSystem(a, []float64{1, 2})
	assert.ErrorIs(t, err, ErrSingularMatrix)
}

func TestSolveLinearSystemDoesNotModifyInputs(t *testing.T) {
	a := [][]float64{{2, 1}, {1, 3}}
	b := []float64{5, 10}
	_, err := SolveLinearSystem(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1}, {1, 3}}, a)
	assert.Equal(t, []float64{5, 10}, b)
}

func TestStandardErrors(t *testing.T) {
	xtx := [][]float64{
		{4, 1},
		{1, 9},
	}
	got := StandardErrors(xtx, 2)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.8284271247461903, got[0], 1e-12) // sqrt(2*4)
	assert.InDelta(t, 4.242640687119285, got[1], 1e-12)  // sqrt(2*9)
}
