package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonlens/internal/linalg"
)

func ptr(v float64) *float64 { return &v }

func TestSimpleOLSRecoversNoiselessLine(t *testing.T) {
	// y = 2 + 3x with no noise.
	x := make([]*float64, 0, 10)
	y := make([]*float64, 0, 10)
	for i := 0; i < 10; i++ {
		v := float64(i)
		x = append(x, ptr(v))
		y = append(y, ptr(2+3*v))
	}

	fit, err := SimpleOLS(y, x)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, fit.Slope, 1e-9)
	assert.InDelta(t, 2.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.Equal(t, 10, fit.N)
}

func TestSimpleOLSDropsMissingPairs(t *testing.T) {
	x := []*float64{ptr(1), nil, ptr(2), ptr(3), ptr(4)}
	y := []*float64{ptr(3), ptr(99), ptr(5), nil, ptr(9)}

	fit, err := SimpleOLS(y, x)
	require.NoError(t, err)
	assert.Equal(t, 3, fit.N)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-9)
}

func TestSimpleOLSInsufficientData(t *testing.T) {
	_, err := SimpleOLS([]*float64{ptr(1), nil}, []*float64{nil, ptr(2)})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSimpleOLSZeroVariance(t *testing.T) {
	x := []*float64{ptr(5), ptr(5), ptr(5)}
	y := []*float64{ptr(1), ptr(2), ptr(3)}
	_, err := SimpleOLS(y, x)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMultipleOLSRecoversPlane(t *testing.T) {
	// y = 1 + 2*x1 - 0.5*x2, noiseless.
	var y []*float64
	var x1, x2 []*float64
	points := [][2]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}, {3, 2}, {2, 3}, {4, 1}, {0, 4},
	}
	for _, p := range points {
		x1 = append(x1, ptr(p[0]))
		x2 = append(x2, ptr(p[1]))
		y = append(y, ptr(1+2*p[0]-0.5*p[1]))
	}

	fit, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	require.NoError(t, err)
	require.Len(t, fit.Coefficients, 3)
	assert.InDelta(t, 1.0, fit.Coefficients[0], 1e-9)
	assert.InDelta(t, 2.0, fit.Coefficients[1], 1e-9)
	assert.InDelta(t, -0.5, fit.Coefficients[2], 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.Equal(t, 10, fit.N)
}

func TestMultipleOLSCompleteCaseFiltering(t *testing.T) {
	y := []*float64{ptr(1), ptr(2), ptr(3), ptr(4), ptr(5), nil}
	x1 := []*float64{ptr(1), nil, ptr(3), ptr(4), ptr(5), ptr(6)}
	x2 := []*float64{ptr(2), ptr(3), ptr(1), nil, ptr(5), ptr(6)}

	fit, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	require.NoError(t, err)
	// Rows 1, 3, 5 dropped.
	assert.Equal(t, 3, fit.N)
}

func TestMultipleOLSRequiresMinimumRows(t *testing.T) {
	y := []*float64{ptr(1), ptr(2)}
	x1 := []*float64{ptr(1), ptr(2)}
	x2 := []*float64{ptr(3), ptr(4)}
	_, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMultipleOLSCollinearRegressors(t *testing.T) {
	var y, x1, x2 []*float64
	for i := 0; i < 12; i++ {
		v := float64(i)
		x1 = append(x1, ptr(v))
		x2 = append(x2, ptr(2*v)) // exact multiple of x1
		y = append(y, ptr(1+v))
	}
	_, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	assert.ErrorIs(t, err, linalg.ErrSingularMatrix)
}

func TestMultipleOLSDeterminism(t *testing.T) {
	var y, x1, x2 []*float64
	for i := 0; i < 30; i++ {
		v := float64(i)
		x1 = append(x1, ptr(math.Sin(v)))
		x2 = append(x2, ptr(v*v/100))
		y = append(y, ptr(3+0.7*math.Sin(v)-1.2*v*v/100))
	}

	first, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	require.NoError(t, err)
	second, err := MultipleOLS(y, [][]*float64{x1, x2}, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Coefficients, second.Coefficients)
	assert.Equal(t, first.StandardErrors, second.StandardErrors)
	assert.Equal(t, first.PValues, second.PValues)
}

func TestApproximatePValueSmallDFTable(t *testing.T) {
	tests := []struct {
		tStat float64
		want  float64
	}{
		{0.0, 0.6},
		{0.49, 0.6},
		{0.5, 0.35},
		{-0.7, 0.35},
		{1.2, 0.15},
		{1.8, 0.08},
		{2.2, 0.02},
		{2.7, 0.01},
		{3.0, 0.001},
		{-10, 0.001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApproximatePValue(tt.tStat, 10), "t=%v", tt.tStat)
	}
}

func TestApproximatePValueLargeDF(t *testing.T) {
	// Normal approximation: t=1.96 is the classic 5% two-tailed boundary.
	p := ApproximatePValue(1.96, 100)
	assert.InDelta(t, 0.05, p, 0.001)

	assert.InDelta(t, 1.0, ApproximatePValue(0, 100), 1e-6)
	assert.Less(t, ApproximatePValue(4, 100), 0.001)
}

func TestExactPValue(t *testing.T) {
	// Symmetric in t, monotone in |t|, and close to normal for large df.
	assert.InDelta(t, ExactPValue(2.0, 60), ExactPValue(-2.0, 60), 1e-12)
	assert.Greater(t, ExactPValue(1.0, 10), ExactPValue(2.0, 10))
	assert.InDelta(t, ApproximatePValue(1.96, 1000), ExactPValue(1.96, 1000), 0.005)
	assert.Equal(t, 1.0, ExactPValue(2.0, 0))
}

func TestSummary(t *testing.T) {
	values := []*float64{ptr(4), nil, ptr(1), ptr(3), ptr(2)}
	got, err := Summary(values)
	require.NoError(t, err)
	assert.Equal(t, 4, got.N)
	assert.InDelta(t, 2.5, got.Mean, 1e-12)
	assert.InDelta(t, 2.5, got.Median, 1e-12) // even count: mean of middle two
	assert.InDelta(t, 1.25, got.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), got.StdDev, 1e-12)
	assert.Equal(t, 1.0, got.Min)
	assert.Equal(t, 4.0, got.Max)
}

func TestSummaryOddCountMedian(t *testing.T) {
	got, err := Summary([]*float64{ptr(9), ptr(1), ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Median)
}

func TestSummaryEmpty(t *testing.T) {
	_, err := Summary([]*float64{nil, nil})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCorrelation(t *testing.T) {
	x := []*float64{ptr(1), ptr(2), nil, ptr(3), ptr(4)}
	y := []*float64{ptr(2), ptr(4), ptr(100), ptr(6), nil}
	got, err := Correlation(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestRollingCorrelation(t *testing.T) {
	var x, y []*float64
	for i := 0; i < 10; i++ {
		v := float64(i)
		x = append(x, ptr(v))
		y = append(y, ptr(2*v+1))
	}

	got, err := RollingCorrelation(x, y, 4)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for _, r := range got {
		assert.InDelta(t, 1.0, r, 1e-12)
	}
}

func TestRollingCorrelationSkipsShortInput(t *testing.T) {
	x := []*float64{ptr(1), nil, ptr(2)}
	y := []*float64{ptr(1), ptr(5), ptr(2)}
	got, err := RollingCorrelation(x, y, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
