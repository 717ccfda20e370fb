package stats

import (
	"fmt"
	"sort"

	gostat "gonum.org/v1/gonum/stat"
)

// SummaryStats describes one variable's non-missing observations.
// Variance and StdDev are population moments.
type SummaryStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	N        int     `json:"n"`
}

// Summary computes descriptive statistics over the valid entries of values.
func Summary(values []*float64) (SummaryStats, error) {
	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if valid(v) {
			filtered = append(filtered, *v)
		}
	}
	n := len(filtered)
	if n == 0 {
		return SummaryStats{}, fmt.Errorf("%w: no valid observations", ErrInsufficientData)
	}

	sorted := make([]float64, n)
	copy(sorted, filtered)
	sort.Float64s(sorted)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return SummaryStats{
		Mean:     gostat.Mean(filtered, nil),
		Median:   median,
		Variance: gostat.PopVariance(filtered, nil),
		StdDev:   gostat.PopStdDev(filtered, nil),
		Min:      sorted[0],
		Max:      sorted[n-1],
		N:        n,
	}, nil
}

// Correlation computes the Pearson correlation of the pairwise-complete
// observations. Needs at least 2 valid pairs.
func Correlation(x, y []*float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("stats: length mismatch x=%d y=%d", len(x), len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if valid(x[i]) && valid(y[i]) {
			xs = append(xs, *x[i])
			ys = append(ys, *y[i])
		}
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("%w: %d valid pairs, need at least 2", ErrInsufficientData, len(xs))
	}
	return gostat.Correlation(xs, ys, nil), nil
}

// RollingCorrelation slides a fixed-size window over the pairwise-complete
// observations and emits one correlation per fully-populated window. Partial
// windows at the boundaries are skipped, not zero-padded.
func RollingCorrelation(x, y []*float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("stats: window must be at least 2, got %d", window)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("stats: length mismatch x=%d y=%d", len(x), len(y))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if valid(x[i]) && valid(y[i]) {
			xs = append(xs, *x[i])
			ys = append(ys, *y[i])
		}
	}
	if len(xs) < window {
		return nil, nil
	}

	out := make([]float64, 0, len(xs)-window+1)
	for start := 0; start+window <= len(xs); start++ {
		out = append(out, gostat.Correlation(xs[start:start+window], ys[start:start+window], nil))
	}
	return out, nil
}
