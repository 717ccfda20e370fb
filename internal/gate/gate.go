// Package gate decides whether a merged panel supports a statistically
// defensible model: frequency selection, lag-length limits, and the
// pre/post interaction sample check. Every output is a value object; an
// unmet threshold is a business outcome, never an error.
package gate

import (
	"fmt"

	"carbonlens/internal/align"
	"carbonlens/internal/model"
)

const (
	// MinSample is the minimum number of fully overlapping observations
	// any regression requires.
	MinSample = 20

	// MinPreObservations / MinPostObservations gate the interaction model.
	MinPreObservations  = 10
	MinPostObservations = 5

	maxLagHardCap = 12
)

// Verdict is the common feasibility shape. Downstream code must branch on
// Feasible before consuming any numeric fields.
type Verdict struct {
	Feasible bool   `json:"feasible"`
	Reason   string `json:"reason"`
}

// LagVerdict reports the largest defensible lag length.
type LagVerdict struct {
	Verdict
	MaxLag int `json:"max_lag"`
}

// InteractionVerdict reports whether the pre/post interaction model is
// estimable given the sample split.
type InteractionVerdict struct {
	Verdict
	PreCount  int `json:"pre_count"`
	PostCount int `json:"post_count"`
}

// Prepared is the outcome of frequency selection: the panel to estimate on,
// the chosen frequency, overlap counts, and a rationale.
type Prepared struct {
	Panel          model.Panel     `json:"-"`
	Frequency      model.Frequency `json:"frequency"`
	Overlap        int             `json:"overlap"`
	MonthlyOverlap int             `json:"monthly_overlap"`
	AnnualOverlap  int             `json:"annual_overlap"`
	Message        string          `json:"message"`
}

// Overlap counts panel rows where every regression variable (import
// quantity, carbon price, activity index) is present.
func Overlap(panel model.Panel) int {
	count := 0
	for _, row := range panel {
		if row.Complete(model.RequiredVariables) {
			count++
		}
	}
	return count
}

// PrepareDataset selects the estimation frequency. Monthly data is kept when
// at least MinSample fully overlapping monthly rows exist; otherwise the
// panel is aggregated to annual and the overlap recounted. Below MinSample
// at both frequencies no regression is attempted.
func PrepareDataset(panel model.Panel, window model.CBAMWindow) Prepared {
	if len(panel) > 0 && panel[0].Period.IsAnnual() {
		overlap := Overlap(panel)
		prepared := Prepared{
			Panel:         panel,
			Frequency:     model.FrequencyAnnual,
			Overlap:       overlap,
			AnnualOverlap: overlap,
			Message:       fmt.Sprintf("input is annual with %d overlapping observations", overlap),
		}
		if overlap < MinSample {
			prepared.Frequency = model.FrequencyNone
			prepared.Message = fmt.Sprintf("only %d overlapping annual observations, need %d", overlap, MinSample)
		}
		return prepared
	}

	monthly := Overlap(panel)
	if monthly >= MinSample {
		return Prepared{
			Panel:          panel,
			Frequency:      model.FrequencyMonthly,
			Overlap:        monthly,
			MonthlyOverlap: monthly,
			Message:        fmt.Sprintf("monthly data sufficient with %d overlapping observations", monthly),
		}
	}

	annual := align.ToAnnual(panel, window)
	annualOverlap := Overlap(annual)
	if annualOverlap >= MinSample {
		return Prepared{
			Panel:          annual,
			Frequency:      model.FrequencyAnnual,
			Overlap:        annualOverlap,
			MonthlyOverlap: monthly,
			AnnualOverlap:  annualOverlap,
			Message: fmt.Sprintf("only %d overlapping monthly observations, aggregated to annual (%d observations)",
				monthly, annualOverlap),
		}
	}

	return Prepared{
		Panel:          panel,
		Frequency:      model.FrequencyNone,
		Overlap:        monthly,
		MonthlyOverlap: monthly,
		AnnualOverlap:  annualOverlap,
		Message: fmt.Sprintf("insufficient overlap at any frequency: %d monthly, %d annual, need %d",
			monthly, annualOverlap, MinSample),
	}
}

// FeasibleLagLength computes the largest lag length k the sample supports.
// Annual data caps k at 1. Monthly data takes the largest k with
// n >= 10+(k+1)+1, tightened to 3 below 50 observations and 6 below 100,
// with a hard cap of 12.
func FeasibleLagLength(n int, frequency model.Frequency) LagVerdict {
	if n < MinSample {
		return LagVerdict{
			Verdict: Verdict{
				Feasible: false,
				Reason:   fmt.Sprintf("%d overlapping observations, need at least %d for any regression", n, MinSample),
			},
		}
	}

	if frequency == model.FrequencyAnnual {
		return LagVerdict{
			Verdict: Verdict{Feasible: true, Reason: "annual frequency caps lag length at 1"},
			MaxLag:  1,
		}
	}

	k := n - 12
	switch {
	case n < 50 && k > 3:
		k = 3
	case n < 100 && k > 6:
		k = 6
	case k > maxLagHardCap:
		k = maxLagHardCap
	}

	return LagVerdict{
		Verdict: Verdict{Feasible: true, Reason: fmt.Sprintf("%d observations support up to %d lags", n, k)},
		MaxLag:  k,
	}
}

// InteractionFeasibility checks the pre/post split the interaction model
// needs: at least MinPreObservations complete rows before the window and
// MinPostObservations inside it. Below threshold callers fall back to the
// descriptive pre/post comparison.
func InteractionFeasibility(panel model.Panel, window model.CBAMWindow) InteractionVerdict {
	pre, post := 0, 0
	for _, row := range panel {
		if !row.Complete(model.RequiredVariables) {
			continue
		}
		switch {
		case row.Period.Year < window.StartYear:
			pre++
		case window.Contains(row.Period.Year):
			post++
		}
	}

	if pre < MinPreObservations || post < MinPostObservations {
		return InteractionVerdict{
			Verdict: Verdict{
				Feasible: false,
				Reason: fmt.Sprintf("interaction model needs %d pre and %d post observations, have %d/%d",
					MinPreObservations, MinPostObservations, pre, post),
			},
			PreCount:  pre,
			PostCount: post,
		}
	}

	return InteractionVerdict{
		Verdict:   Verdict{Feasible: true, Reason: fmt.Sprintf("%d pre and %d post observations", pre, post)},
		PreCount:  pre,
		PostCount: post,
	}
}
