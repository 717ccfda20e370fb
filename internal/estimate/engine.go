// Package estimate fits the baseline, lagged distributed, and CBAM
// interaction model specifications on a prepared panel. Every estimator
// is a pure function of its inputs: identical panels produce bit-identical
// results. Feasibility failures come back as values, singular systems are
// converted to infeasibility verdicts, and nothing here performs I/O.
package estimate

import (
	"errors"
	"fmt"
	"log/slog"

	"carbonlens/internal/gate"
	"carbonlens/internal/linalg"
	"carbonlens/internal/model"
	"carbonlens/internal/stats"
)

// Engine runs the estimators with a fixed CBAM window and output modes. The
// logger is an observability hook supplied by the caller; nil falls back to
// slog.Default().
type Engine struct {
	window model.CBAMWindow
	opts   stats.Options
	logger *slog.Logger
}

func NewEngine(window model.CBAMWindow, opts stats.Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{window: window, opts: opts, logger: logger}
}

// Baseline regresses log import quantity on carbon price, log activity, and
// the CBAM dummy.
func (e *Engine) Baseline(panel model.Panel, frequency model.Frequency) Result {
	overlap := gate.Overlap(panel)
	if overlap < gate.MinSample {
		return infeasible(ModelBaseline,
			fmt.Sprintf("%d overlapping observations, need at least %d", overlap, gate.MinSample))
	}

	y := column(panel, func(r model.Row) *float64 { return r.LogImportQuantity })
	price := column(panel, func(r model.Row) *float64 { return r.CarbonPrice })
	activity := column(panel, func(r model.Row) *float64 { return r.LogActivity })
	dummy := make([]*float64, len(panel))
	for i := range panel {
		dummy[i] = model.Float(panel[i].CBAMDummy)
	}

	fit, err := stats.MultipleOLS(y, [][]*float64{price, activity, dummy}, e.opts)
	if err != nil {
		return e.fitFailure(ModelBaseline, err)
	}

	e.logger.Debug("baseline model fitted", "frequency", string(frequency), "n", fit.N, "r_squared", fit.RSquared)

	return Result{
		Model:          ModelBaseline,
		Feasible:       true,
		Terms:          []string{TermIntercept, TermCarbonPrice, TermLogActivity, TermCBAMDummy},
		Coefficients:   fit.Coefficients,
		StandardErrors: fit.StandardErrors,
		TStats:         fit.TStats,
		PValues:        fit.PValues,
		RSquared:       fit.RSquared,
		N:              fit.N,
	}
}

// Lagged regresses log import quantity at t on carbon price at t..t-K plus
// log activity at t. K is the feasibility-gate cap: a larger request is
// tightened, never honored. A row enters the fit only when every lag back to
// t-K is present, so the effective sample shrinks with K; Result.N reports
// the surviving count.
func (e *Engine) Lagged(panel model.Panel, maxLags int, frequency model.Frequency) Result {
	overlap := gate.Overlap(panel)
	verdict := gate.FeasibleLagLength(overlap, frequency)
	if !verdict.Feasible {
		return infeasible(ModelLagged, verdict.Reason)
	}
	k := maxLags
	if k > verdict.MaxLag {
		k = verdict.MaxLag
	}
	if k < 0 {
		k = 0
	}

	index := make(map[model.Period]int, len(panel))
	for i, row := range panel {
		index[row.Period] = i
	}

	y := column(panel, func(r model.Row) *float64 { return r.LogImportQuantity })
	columns := make([][]*float64, 0, k+2)
	terms := make([]string, 0, k+3)
	terms = append(terms, TermIntercept)
	for lag := 0; lag <= k; lag++ {
		columns = append(columns, laggedColumn(panel, index, lag, frequency))
		if lag == 0 {
			terms = append(terms, TermCarbonPrice)
		} else {
			terms = append(terms, fmt.Sprintf("%s_lag%d", TermCarbonPrice, lag))
		}
	}
	columns = append(columns, column(panel, func(r model.Row) *float64 { return r.LogActivity }))
	terms = append(terms, TermLogActivity)

	fit, err := stats.MultipleOLS(y, columns, e.opts)
	if err != nil {
		return e.fitFailure(ModelLagged, err)
	}

	e.logger.Debug("lagged model fitted", "frequency", string(frequency), "max_lag", k, "n", fit.N)

	return Result{
		Model:          ModelLagged,
		Feasible:       true,
		Terms:          terms,
		Coefficients:   fit.Coefficients,
		StandardErrors: fit.StandardErrors,
		TStats:         fit.TStats,
		PValues:        fit.PValues,
		RSquared:       fit.RSquared,
		N:              fit.N,
		MaxLag:         k,
	}
}

// Interaction regresses log import quantity on carbon price, carbon price
// times the CBAM dummy, and log activity. The interaction coefficient is the
// quantity of interest: whether the price-import relationship itself shifted
// during the policy window. When the pre/post sample split fails the gate,
// the result is infeasible and carries the descriptive comparison instead.
func (e *Engine) Interaction(panel model.Panel, frequency model.Frequency) Result {
	overlap := gate.Overlap(panel)
	if overlap < gate.MinSample {
		comparison := e.DescriptiveComparison(panel)
		result := infeasible(ModelInteraction,
			fmt.Sprintf("%d overlapping observations, need at least %d", overlap, gate.MinSample))
		result.Fallback = &comparison
		return result
	}

	verdict := gate.InteractionFeasibility(panel, e.window)
	if !verdict.Feasible {
		comparison := e.DescriptiveComparison(panel)
		result := infeasible(ModelInteraction, verdict.Reason)
		result.Fallback = &comparison
		return result
	}

	y := column(panel, func(r model.Row) *float64 { return r.LogImportQuantity })
	price := column(panel, func(r model.Row) *float64 { return r.CarbonPrice })
	interaction := make([]*float64, len(panel))
	for i := range panel {
		if panel[i].CarbonPrice != nil {
			interaction[i] = model.Float(*panel[i].CarbonPrice * panel[i].CBAMDummy)
		}
	}
	activity := column(panel, func(r model.Row) *float64 { return r.LogActivity })

	fit, err := stats.MultipleOLS(y, [][]*float64{price, interaction, activity}, e.opts)
	if err != nil {
		return e.fitFailure(ModelInteraction, err)
	}

	e.logger.Debug("interaction model fitted", "frequency", string(frequency), "n", fit.N,
		"pre", verdict.PreCount, "post", verdict.PostCount)

	return Result{
		Model:          ModelInteraction,
		Feasible:       true,
		Terms:          []string{TermIntercept, TermCarbonPrice, TermCarbonPriceTimesCB, TermLogActivity},
		Coefficients:   fit.Coefficients,
		StandardErrors: fit.StandardErrors,
		TStats:         fit.TStats,
		PValues:        fit.PValues,
		RSquared:       fit.RSquared,
		N:              fit.N,
	}
}

// DescriptiveComparison produces the pre/post fallback table: mean import
// quantity and mean carbon price on each side of the window start, with
// percent changes where defined. Only complete rows enter the counts and
// means, so PreCount/PostCount agree with the interaction gate's verdict.
func (e *Engine) DescriptiveComparison(panel model.Panel) Comparison {
	var preImports, postImports, prePrices, postPrices []*float64
	pre, post := 0, 0
	for _, row := range panel {
		if !row.Complete(model.RequiredVariables) {
			continue
		}
		inWindow := e.window.Contains(row.Period.Year)
		if row.Period.Year < e.window.StartYear {
			pre++
			preImports = append(preImports, row.ImportQuantity)
			prePrices = append(prePrices, row.CarbonPrice)
		} else if inWindow {
			post++
			postImports = append(postImports, row.ImportQuantity)
			postPrices = append(postPrices, row.CarbonPrice)
		}
	}

	comparison := Comparison{PreCount: pre, PostCount: post}
	comparison.PreMeanImport = meanOf(preImports)
	comparison.PostMeanImport = meanOf(postImports)
	comparison.ImportChange = percentChange(comparison.PreMeanImport, comparison.PostMeanImport)
	comparison.PreMeanCarbonPrice = meanOf(prePrices)
	comparison.PostMeanCarbonPrice = meanOf(postPrices)
	comparison.CarbonPriceChange = percentChange(comparison.PreMeanCarbonPrice, comparison.PostMeanCarbonPrice)
	return comparison
}

// SummaryStats describes one panel variable after missing-value filtering.
func (e *Engine) SummaryStats(panel model.Panel, variable string) (stats.SummaryStats, error) {
	values := column(panel, func(r model.Row) *float64 { return r.Value(variable) })
	return stats.Summary(values)
}

// fitFailure converts estimation errors into infeasibility verdicts: a
// singular design or an undersized sample is a business outcome, not a
// crash.
func (e *Engine) fitFailure(modelName string, err error) Result {
	switch {
	case errors.Is(err, linalg.ErrSingularMatrix):
		e.logger.Warn("singular design matrix", "model", modelName)
		return infeasible(modelName, "design matrix is singular (collinear regressors)")
	case errors.Is(err, stats.ErrInsufficientData):
		return infeasible(modelName, err.Error())
	default:
		return infeasible(modelName, fmt.Sprintf("estimation failed: %v", err))
	}
}

func column(panel model.Panel, pick func(model.Row) *float64) []*float64 {
	out := make([]*float64, len(panel))
	for i := range panel {
		out[i] = pick(panel[i])
	}
	return out
}

func laggedColumn(panel model.Panel, index map[model.Period]int, lag int, frequency model.Frequency) []*float64 {
	out := make([]*float64, len(panel))
	for i := range panel {
		period := panel[i].Period
		for step := 0; step < lag; step++ {
			period = previousPeriod(period, frequency)
		}
		j, ok := index[period]
		if !ok {
			continue
		}
		out[i] = panel[j].CarbonPrice
	}
	return out
}

func previousPeriod(p model.Period, frequency model.Frequency) model.Period {
	if frequency == model.FrequencyAnnual || p.IsAnnual() {
		return model.Period{Year: p.Year - 1}
	}
	if p.Month == 1 {
		return model.Period{Year: p.Year - 1, Month: 12}
	}
	return model.Period{Year: p.Year, Month: p.Month - 1}
}

func meanOf(values []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return model.Float(sum / float64(count))
}

func percentChange(pre, post *float64) *float64 {
	if pre == nil || post == nil || *pre == 0 {
		return nil
	}
	return model.Float((*post - *pre) / *pre * 100)
}
