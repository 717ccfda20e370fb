// Package stats implements the regression and descriptive primitives the
// estimators are built on. Inputs carry missing values as nil pointers and
// every function applies complete-case filtering before computing; nothing
// here imputes.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"carbonlens/internal/linalg"
)

var ErrInsufficientData = errors.New("stats: insufficient data")

// Options tune regression output modes. Zero value selects the legacy
// p-value approximation and the diagonal standard-error approximation.
type Options struct {
	PValueMode PValueMode
	ExactSE    bool
}

// SimpleOLSResult holds a bivariate regression fit.
type SimpleOLSResult struct {
	Slope      float64
	Intercept  float64
	RSquared   float64
	ResidualSE float64
	SlopeSE    float64
	TStat      float64
	PValue     float64
	N          int
}

// SimpleOLS fits y = a + b*x over the pairwise-complete observations. Any
// index where either side is missing or non-finite is dropped. Fails with
// ErrInsufficientData below 2 valid pairs or when x has zero variance.
func SimpleOLS(y, x []*float64) (*SimpleOLSResult, error) {
	if len(y) != len(x) {
		return nil, fmt.Errorf("stats: length mismatch y=%d x=%d", len(y), len(x))
	}

	ys := make([]float64, 0, len(y))
	xs := make([]float64, 0, len(x))
	for i := range y {
		if !valid(y[i]) || !valid(x[i]) {
			continue
		}
		ys = append(ys, *y[i])
		xs = append(xs, *x[i])
	}
	n := len(ys)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d valid pairs, need at least 2", ErrInsufficientData, n)
	}

	meanX := mean(xs)
	meanY := mean(ys)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return nil, fmt.Errorf("%w: regressor has zero variance", ErrInsufficientData)
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssr, tss float64
	for i := 0; i < n; i++ {
		fitted := intercept + slope*xs[i]
		residual := ys[i] - fitted
		ssr += residual * residual
		dy := ys[i] - meanY
		tss += dy * dy
	}

	rSquared := 0.0
	if tss > 0 {
		rSquared = 1 - ssr/tss
	}

	residualSE := 0.0
	if n > 2 {
		residualSE = math.Sqrt(ssr / float64(n-2))
	}
	slopeSE := 0.0
	if sxx > 0 {
		slopeSE = residualSE / math.Sqrt(sxx)
	}
	tStat := 0.0
	if slopeSE > 0 {
		tStat = slope / slopeSE
	}

	return &SimpleOLSResult{
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   rSquared,
		ResidualSE: residualSE,
		SlopeSE:    slopeSE,
		TStat:      tStat,
		PValue:     ApproximatePValue(tStat, n-2),
		N:          n,
	}, nil
}

// MultipleOLSResult holds a multi-variable fit. Coefficients[0] is the
// intercept, followed by one entry per regressor column.
type MultipleOLSResult struct {
	Coefficients   []float64
	StandardErrors []float64
	TStats         []float64
	PValues        []float64
	RSquared       float64
	MSE            float64
	N              int
}

// MultipleOLS regresses y on the given regressor columns plus an intercept,
// solving the normal equations (X'X)b = X'y through the linalg kernel.
// Rows where y or any regressor is missing are dropped; the fit needs
// n >= k+1 surviving rows. A singular design surfaces the kernel error for
// the caller to convert into an infeasibility verdict.
func MultipleOLS(y []*float64, xs [][]*float64, opts Options) (*MultipleOLSResult, error) {
	k := len(xs)
	if k == 0 {
		return nil, fmt.Errorf("%w: no regressors", ErrInsufficientData)
	}
	for i, column := range xs {
		if len(column) != len(y) {
			return nil, fmt.Errorf("stats: length mismatch y=%d x[%d]=%d", len(y), i, len(column))
		}
	}

	rows := make([][]float64, 0, len(y))
	response := make([]float64, 0, len(y))
	for i := range y {
		if !valid(y[i]) {
			continue
		}
		complete := true
		row := make([]float64, k+1)
		row[0] = 1
		for j, column := range xs {
			if !valid(column[i]) {
				complete = false
				break
			}
			row[j+1] = *column[i]
		}
		if !complete {
			continue
		}
		rows = append(rows, row)
		response = append(response, *y[i])
	}

	n := len(rows)
	if n < k+1 {
		return nil, fmt.Errorf("%w: %d complete rows for %d parameters", ErrInsufficientData, n, k+1)
	}

	xt := linalg.Transpose(rows)
	xtx, err := linalg.MatMul(xt, rows)
	if err != nil {
		return nil, err
	}
	xty, err := linalg.MatVecMul(xt, response)
	if err != nil {
		return nil, err
	}
	beta, err := linalg.SolveLinearSystem(xtx, xty)
	if err != nil {
		return nil, err
	}

	fitted, err := linalg.MatVecMul(rows, beta)
	if err != nil {
		return nil, err
	}

	meanY := mean(response)
	var ssr, tss float64
	for i := range response {
		residual := response[i] - fitted[i]
		ssr += residual * residual
		dy := response[i] - meanY
		tss += dy * dy
	}
	rSquared := 0.0
	if tss > 0 {
		rSquared = 1 - ssr/tss
	}

	df := n - k - 1
	mse := 0.0
	if df > 0 {
		mse = ssr / float64(df)
	}

	var stdErrs []float64
	if opts.ExactSE {
		stdErrs, err = ExactStandardErrors(xtx, mse)
		if err != nil {
			return nil, err
		}
	} else {
		stdErrs = linalg.StandardErrors(xtx, mse)
	}

	tStats := make([]float64, len(beta))
	pValues := make([]float64, len(beta))
	for i := range beta {
		if stdErrs[i] > 0 {
			tStats[i] = beta[i] / stdErrs[i]
		}
		pValues[i] = PValue(tStats[i], df, opts.PValueMode)
	}

	return &MultipleOLSResult{
		Coefficients:   beta,
		StandardErrors: stdErrs,
		TStats:         tStats,
		PValues:        pValues,
		RSquared:       rSquared,
		MSE:            mse,
		N:              n,
	}, nil
}

// ExactStandardErrors computes sqrt(mse * (X'X)^-1[i][i]), the proper
// covariance-based standard error, as the optional alternative to the legacy
// diagonal approximation.
func ExactStandardErrors(xtx [][]float64, mse float64) ([]float64, error) {
	n := len(xtx)
	flat := make([]float64, 0, n*n)
	for _, row := range xtx {
		if len(row) != n {
			return nil, linalg.ErrDimensionMismatch
		}
		flat = append(flat, row...)
	}

	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(n, n, flat)); err != nil {
		return nil, fmt.Errorf("%w: %v", linalg.ErrSingularMatrix, err)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Sqrt(mse * math.Abs(inv.At(i, i)))
	}
	return out, nil
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
