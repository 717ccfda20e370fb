package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
	FrequencyNone    Frequency = "none"
)

// Variable names used across series, panels, and the store.
const (
	VarImportQuantity = "import_quantity"
	VarImportValue    = "import_value"
	VarUnitValue      = "unit_value"
	VarCarbonPrice    = "carbon_price"
	VarActivityIndex  = "activity_index"
)

// RequiredVariables are the variables every regression needs in a panel row.
var RequiredVariables = []string{VarImportQuantity, VarCarbonPrice, VarActivityIndex}

// Period identifies a calendar month (Month 1-12) or a calendar year
// (Month 0). Periods are the join key across series.
type Period struct {
	Year  int
	Month int
}

func (p Period) IsAnnual() bool {
	return p.Month == 0
}

// Compare orders periods chronologically. An annual period sorts before any
// month of the same year.
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		if p.Year < other.Year {
			return -1
		}
		return 1
	}
	if p.Month != other.Month {
		if p.Month < other.Month {
			return -1
		}
		return 1
	}
	return 0
}

func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

func (p Period) String() string {
	if p.IsAnnual() {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod accepts "2023", "2023-04", and "202304".
func ParsePeriod(value string) (Period, error) {
	value = strings.TrimSpace(value)
	if len(value) == 4 && isDigits(value) {
		year, err := strconv.Atoi(value)
		if err != nil {
			return Period{}, fmt.Errorf("invalid period %q", value)
		}
		return Period{Year: year}, nil
	}
	if len(value) == 6 && isDigits(value) {
		year, _ := strconv.Atoi(value[:4])
		month, _ := strconv.Atoi(value[4:])
		if month < 1 || month > 12 {
			return Period{}, fmt.Errorf("invalid period %q", value)
		}
		return Period{Year: year, Month: month}, nil
	}
	parts := strings.Split(value, "-")
	if len(parts) == 2 && len(parts[0]) == 4 {
		year, errYear := strconv.Atoi(parts[0])
		month, errMonth := strconv.Atoi(parts[1])
		if errYear == nil && errMonth == nil && month >= 1 && month <= 12 {
			return Period{Year: year, Month: month}, nil
		}
	}
	return Period{}, fmt.Errorf("invalid period %q", value)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Observation is a single period-keyed value for one variable. A nil Value is
// an explicitly missing observation; zero and missing are distinct.
type Observation struct {
	Variable string
	Period   Period
	Value    *float64
}

// Series holds one variable's observations keyed by period. An absent key is
// a missing observation. Setting the same period twice keeps the last value.
type Series struct {
	Name   string
	values map[Period]float64
}

func NewSeries(name string) *Series {
	return &Series{Name: name, values: make(map[Period]float64)}
}

func (s *Series) Set(period Period, value float64) {
	if s.values == nil {
		s.values = make(map[Period]float64)
	}
	s.values[period] = value
}

func (s *Series) Get(period Period) (float64, bool) {
	value, ok := s.values[period]
	return value, ok
}

func (s *Series) Len() int {
	return len(s.values)
}

// Periods returns the series' period keys in ascending order.
func (s *Series) Periods() []Period {
	periods := make([]Period, 0, len(s.values))
	for period := range s.values {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods
}

// CBAMWindow is the policy transition window, inclusive on both ends. Rows
// whose calendar year falls inside it get intervention dummy = 1.
type CBAMWindow struct {
	StartYear int
	EndYear   int
}

// DefaultCBAMWindow covers the CBAM transitional phase.
func DefaultCBAMWindow() CBAMWindow {
	return CBAMWindow{StartYear: 2023, EndYear: 2025}
}

func (w CBAMWindow) Contains(year int) bool {
	return year >= w.StartYear && year <= w.EndYear
}

// Row is one merged-panel record: the aligned source variables plus derived
// fields. All value fields are nil when missing; the intervention dummy is a
// pure function of the row's year and is always defined.
type Row struct {
	Period Period

	ImportQuantity *float64
	ImportValue    *float64
	UnitValue      *float64
	CarbonPrice    *float64
	ActivityIndex  *float64

	LogImportQuantity *float64
	LogActivity       *float64
	ImportGrowthMoM   *float64
	ImportGrowthYoY   *float64
	ImportMA3         *float64
	ImportMA12        *float64

	CBAMDummy float64
}

// Value returns the named source variable for the row.
func (r Row) Value(variable string) *float64 {
	switch variable {
	case VarImportQuantity:
		return r.ImportQuantity
	case VarImportValue:
		return r.ImportValue
	case VarUnitValue:
		return r.UnitValue
	case VarCarbonPrice:
		return r.CarbonPrice
	case VarActivityIndex:
		return r.ActivityIndex
	default:
		return nil
	}
}

// Complete reports whether every named variable is present in the row.
func (r Row) Complete(variables []string) bool {
	for _, variable := range variables {
		if r.Value(variable) == nil {
			return false
		}
	}
	return true
}

// Panel is an ordered sequence of merged rows: strictly increasing unique
// periods, one row per period present in any source series.
type Panel []Row

// Float returns a pointer to v. Convenience for building observations.
func Float(v float64) *float64 {
	return &v
}
