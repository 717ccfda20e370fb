package align

import (
	"sort"

	"carbonlens/internal/model"
)

// ToAnnual groups a monthly panel by calendar year. Flow variables (import
// quantity, import value) aggregate by sum; level variables (carbon price,
// activity index) by arithmetic mean. Summing a price would be meaningless
// and averaging a cumulative quantity would understate the annual total, so
// the split is deliberate. Unit value is recomputed from the annual totals.
// Derived fields are recomputed on the annual panel.
func ToAnnual(panel model.Panel, window model.CBAMWindow) model.Panel {
	byYear := make(map[int][]model.Row)
	years := make([]int, 0)
	for _, row := range panel {
		year := row.Period.Year
		if _, seen := byYear[year]; !seen {
			years = append(years, year)
		}
		byYear[year] = append(byYear[year], row)
	}
	sort.Ints(years)

	annual := make(model.Panel, 0, len(years))
	for _, year := range years {
		rows := byYear[year]
		out := model.Row{Period: model.Period{Year: year}}
		out.ImportQuantity = sumOf(rows, model.VarImportQuantity)
		out.ImportValue = sumOf(rows, model.VarImportValue)
		out.CarbonPrice = meanOf(rows, model.VarCarbonPrice)
		out.ActivityIndex = meanOf(rows, model.VarActivityIndex)
		if out.ImportValue != nil && out.ImportQuantity != nil && *out.ImportQuantity != 0 {
			out.UnitValue = model.Float(*out.ImportValue / *out.ImportQuantity)
		}
		annual = append(annual, out)
	}

	applyDerived(annual, window)
	return annual
}

func sumOf(rows []model.Row, variable string) *float64 {
	sum := 0.0
	count := 0
	for _, row := range rows {
		if v := row.Value(variable); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return model.Float(sum)
}

func meanOf(rows []model.Row, variable string) *float64 {
	sum := 0.0
	count := 0
	for _, row := range rows {
		if v := row.Value(variable); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return model.Float(sum / float64(count))
}
