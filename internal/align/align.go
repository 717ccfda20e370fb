// Package align builds the merged analysis panel from independently keyed
// period series: a sparse union over period keys with per-row derived fields.
// Missing observations stay nil all the way through; nothing here imputes.
package align

import (
	"sort"

	"carbonlens/internal/model"
)

// Merge joins the named series onto one panel keyed by period. The panel's
// row set is the union of all source period keys in ascending order; a row
// exists if any series has data for that period. Lookups during the merge go
// through a period index, not linear scans.
func Merge(series map[string]*model.Series, window model.CBAMWindow) model.Panel {
	index := make(map[model.Period]int)
	periods := make([]model.Period, 0)
	for _, s := range series {
		if s == nil {
			continue
		}
		for _, period := range s.Periods() {
			if _, seen := index[period]; !seen {
				index[period] = len(periods)
				periods = append(periods, period)
			}
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	panel := make(model.Panel, len(periods))
	for i, period := range periods {
		row := model.Row{Period: period}
		row.ImportQuantity = pull(series, model.VarImportQuantity, period)
		row.ImportValue = pull(series, model.VarImportValue, period)
		row.UnitValue = pull(series, model.VarUnitValue, period)
		row.CarbonPrice = pull(series, model.VarCarbonPrice, period)
		row.ActivityIndex = pull(series, model.VarActivityIndex, period)
		if row.UnitValue == nil && row.ImportValue != nil && row.ImportQuantity != nil && *row.ImportQuantity != 0 {
			row.UnitValue = model.Float(*row.ImportValue / *row.ImportQuantity)
		}
		panel[i] = row
	}

	applyDerived(panel, window)
	return panel
}

func pull(series map[string]*model.Series, variable string, period model.Period) *float64 {
	s, ok := series[variable]
	if !ok || s == nil {
		return nil
	}
	value, ok := s.Get(period)
	if !ok {
		return nil
	}
	return model.Float(value)
}
