package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PValueMode selects between the legacy approximation carried over for
// output compatibility with historical reports and the exact Student-t CDF.
type PValueMode string

const (
	PValueLegacy PValueMode = "legacy"
	PValueExact  PValueMode = "exact"
)

// PValue computes a two-tailed p-value for a t statistic with df degrees of
// freedom under the selected mode. Unknown modes fall back to legacy.
func PValue(tStat float64, df int, mode PValueMode) float64 {
	if mode == PValueExact {
		return ExactPValue(tStat, df)
	}
	return ApproximatePValue(tStat, df)
}

// ApproximatePValue is the legacy two-tailed p-value approximation:
// a normal-tail approximation for df > 30 and a coarse lookup table bucketed
// by |t| for small samples. Indicative, not exact.
func ApproximatePValue(tStat float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	abs := math.Abs(tStat)
	if df > 30 {
		p := 2 * (1 - normalCDF(abs))
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p
	}
	switch {
	case abs < 0.5:
		return 0.6
	case abs < 1.0:
		return 0.35
	case abs < 1.5:
		return 0.15
	case abs < 2.0:
		return 0.08
	case abs < 2.5:
		return 0.02
	case abs < 3.0:
		return 0.01
	default:
		return 0.001
	}
}

// ExactPValue computes the two-tailed p-value from the Student-t CDF.
func ExactPValue(tStat float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	p := 2 * (1 - dist.CDF(math.Abs(tStat)))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// normalCDF evaluates the standard normal CDF using the Abramowitz-Stegun
// 7.1.26 error-function approximation (fixed coefficients, ~1e-7 accuracy).
func normalCDF(x float64) float64 {
	return 0.5 * (1 + erfApprox(x/math.Sqrt2))
}

func erfApprox(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1 / (1 + p*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}
