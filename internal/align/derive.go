package align

import (
	"math"

	"carbonlens/internal/model"
)

// applyDerived recomputes every derived field on the panel in place: guarded
// log transforms, period-over-period and year-over-year growth, trailing
// moving averages, and the intervention dummy.
func applyDerived(panel model.Panel, window model.CBAMWindow) {
	index := make(map[model.Period]int, len(panel))
	for i, row := range panel {
		index[row.Period] = i
	}

	for i := range panel {
		row := &panel[i]

		row.LogImportQuantity = logOrNil(row.ImportQuantity)
		row.LogActivity = logOrNil(row.ActivityIndex)

		row.ImportGrowthMoM = growthFrom(panel, index, i, previousPeriod(row.Period))
		row.ImportGrowthYoY = growthFrom(panel, index, i, yearEarlier(row.Period))

		row.ImportMA3 = trailingAverage(panel, i, 3)
		row.ImportMA12 = trailingAverage(panel, i, 12)

		if window.Contains(row.Period.Year) {
			row.CBAMDummy = 1
		} else {
			row.CBAMDummy = 0
		}
	}
}

// logOrNil is the guarded log transform: defined only for v > 0, nil
// otherwise. Never applied to zero or negative values.
func logOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return model.Float(math.Log(*v))
}

// growthFrom computes percent growth of import quantity against the row at
// the given earlier period. Nil when either observation is missing, the
// earlier period has no row, or the denominator is zero.
func growthFrom(panel model.Panel, index map[model.Period]int, i int, earlier model.Period) *float64 {
	current := panel[i].ImportQuantity
	if current == nil {
		return nil
	}
	j, ok := index[earlier]
	if !ok {
		return nil
	}
	previous := panel[j].ImportQuantity
	if previous == nil || *previous == 0 {
		return nil
	}
	return model.Float((*current - *previous) / *previous * 100)
}

func previousPeriod(p model.Period) model.Period {
	if p.IsAnnual() {
		return model.Period{Year: p.Year - 1}
	}
	if p.Month == 1 {
		return model.Period{Year: p.Year - 1, Month: 12}
	}
	return model.Period{Year: p.Year, Month: p.Month - 1}
}

func yearEarlier(p model.Period) model.Period {
	if p.IsAnnual() {
		return model.Period{Year: p.Year - 1}
	}
	return model.Period{Year: p.Year - 1, Month: p.Month}
}

// trailingAverage averages import quantity over the last `size` rows ending
// at row i, clipped at the start of the panel. Only non-nil entries count;
// a window with no values yields nil.
func trailingAverage(panel model.Panel, i, size int) *float64 {
	start := i - size + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	count := 0
	for j := start; j <= i; j++ {
		if v := panel[j].ImportQuantity; v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return model.Float(sum / float64(count))
}
