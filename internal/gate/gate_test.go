package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonlens/internal/model"
)

// completeRow builds a panel row with every regression variable present.
func completeRow(year, month int, quantity float64) model.Row {
	return model.Row{
		Period:         model.Period{Year: year, Month: month},
		ImportQuantity: model.Float(quantity),
		CarbonPrice:    model.Float(50),
		ActivityIndex:  model.Float(100),
	}
}

// monthlyPanel builds n consecutive complete monthly rows starting at the
// given year.
func monthlyPanel(n, startYear int) model.Panel {
	panel := make(model.Panel, 0, n)
	year, month := startYear, 1
	for i := 0; i < n; i++ {
		panel = append(panel, completeRow(year, month, 1000+float64(i)))
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return panel
}

func TestOverlapCountsCompleteRowsOnly(t *testing.T) {
	panel := model.Panel{
		completeRow(2022, 1, 100),
		{Period: model.Period{Year: 2022, Month: 2}, ImportQuantity: model.Float(100)}, // no price, no activity
		completeRow(2022, 3, 100),
	}
	assert.Equal(t, 2, Overlap(panel))
}

func TestPrepareDatasetKeepsMonthly(t *testing.T) {
	panel := monthlyPanel(24, 2021)
	prepared := PrepareDataset(panel, model.DefaultCBAMWindow())
	assert.Equal(t, model.FrequencyMonthly, prepared.Frequency)
	assert.Equal(t, 24, prepared.Overlap)
	assert.NotEmpty(t, prepared.Message)
}

func TestPrepareDatasetAggregatesShortMonthly(t *testing.T) {
	// 19 monthly observations: below the monthly gate, and also below it
	// after annual aggregation, so frequency comes back none.
	panel := monthlyPanel(19, 2021)
	prepared := PrepareDataset(panel, model.DefaultCBAMWindow())
	assert.Equal(t, model.FrequencyNone, prepared.Frequency)
	assert.Equal(t, 19, prepared.MonthlyOverlap)
	assert.Equal(t, 2, prepared.AnnualOverlap)
	assert.NotEmpty(t, prepared.Message)
}

func TestPrepareDatasetAnnualInput(t *testing.T) {
	panel := make(model.Panel, 0, 25)
	for year := 1999; year < 2024; year++ {
		panel = append(panel, completeRow(year, 0, 5000))
	}
	prepared := PrepareDataset(panel, model.DefaultCBAMWindow())
	assert.Equal(t, model.FrequencyAnnual, prepared.Frequency)
	assert.Equal(t, 25, prepared.Overlap)
}

func TestFeasibleLagLengthBoundary(t *testing.T) {
	below := FeasibleLagLength(19, model.FrequencyMonthly)
	assert.False(t, below.Feasible)
	assert.NotEmpty(t, below.Reason)

	at := FeasibleLagLength(20, model.FrequencyMonthly)
	assert.True(t, at.Feasible)
	assert.Equal(t, 3, at.MaxLag) // n-12 would allow 8, small-sample cap is 3
}

func TestFeasibleLagLengthCaps(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{20, 3},
		{49, 3},
		{50, 6},
		{99, 6},
		{100, 12},
		{500, 12},
	}
	for _, tt := range tests {
		got := FeasibleLagLength(tt.n, model.FrequencyMonthly)
		require.True(t, got.Feasible, "n=%d", tt.n)
		assert.Equal(t, tt.want, got.MaxLag, "n=%d", tt.n)
	}
}

func TestFeasibleLagLengthAnnual(t *testing.T) {
	got := FeasibleLagLength(30, model.FrequencyAnnual)
	assert.True(t, got.Feasible)
	assert.Equal(t, 1, got.MaxLag)
}

func TestInteractionFeasibility(t *testing.T) {
	window := model.CBAMWindow{StartYear: 2023, EndYear: 2025}

	panel := model.Panel{}
	for m := 1; m <= 12; m++ {
		panel = append(panel, completeRow(2022, m, 100))
	}
	for m := 1; m <= 6; m++ {
		panel = append(panel, completeRow(2023, m, 90))
	}

	got := InteractionFeasibility(panel, window)
	assert.True(t, got.Feasible)
	assert.Equal(t, 12, got.PreCount)
	assert.Equal(t, 6, got.PostCount)
}

func TestInteractionFeasibilityBelowThresholds(t *testing.T) {
	window := model.CBAMWindow{StartYear: 2023, EndYear: 2025}

	// 8 pre and 3 post observations: below the 10/5 thresholds.
	panel := model.Panel{}
	for m := 1; m <= 8; m++ {
		panel = append(panel, completeRow(2022, m, 100))
	}
	for m := 1; m <= 3; m++ {
		panel = append(panel, completeRow(2023, m, 90))
	}

	got := InteractionFeasibility(panel, window)
	assert.False(t, got.Feasible)
	assert.Equal(t, 8, got.PreCount)
	assert.Equal(t, 3, got.PostCount)
	assert.NotEmpty(t, got.Reason)
}

func TestInteractionFeasibilityIgnoresIncompleteRows(t *testing.T) {
	window := model.CBAMWindow{StartYear: 2023, EndYear: 2025}
	panel := model.Panel{
		{Period: model.Period{Year: 2022, Month: 1}, ImportQuantity: model.Float(100)},
	}
	got := InteractionFeasibility(panel, window)
	assert.False(t, got.Feasible)
	assert.Equal(t, 0, got.PreCount)
}
