package estimate

// Model identifiers used in results and the store.
const (
	ModelBaseline    = "baseline"
	ModelLagged      = "lagged"
	ModelInteraction = "interaction"
)

// Regression term names, in coefficient order.
const (
	TermIntercept          = "intercept"
	TermCarbonPrice        = "carbon_price"
	TermLogActivity        = "log_activity"
	TermCBAMDummy          = "cbam_dummy"
	TermCarbonPriceTimesCB = "carbon_price_x_cbam"
)

// Result is one fitted model. Infeasible results carry a non-empty Reason
// and empty coefficient slices; feasible results are never partially
// populated. Results are never mutated after creation: recomputation is the
// only update path.
type Result struct {
	Model          string      `json:"model"`
	Feasible       bool        `json:"feasible"`
	Reason         string      `json:"reason,omitempty"`
	Terms          []string    `json:"terms,omitempty"`
	Coefficients   []float64   `json:"coefficients,omitempty"`
	StandardErrors []float64   `json:"standard_errors,omitempty"`
	TStats         []float64   `json:"t_stats,omitempty"`
	PValues        []float64   `json:"p_values,omitempty"`
	RSquared       float64     `json:"r_squared"`
	N              int         `json:"n"`
	MaxLag         int         `json:"max_lag,omitempty"`
	Fallback       *Comparison `json:"fallback,omitempty"`
}

// Comparison is the descriptive pre/post fallback produced when the
// interaction model is not estimable. Percent changes are nil when either
// side is missing or the pre-window mean is zero.
type Comparison struct {
	PreCount  int `json:"pre_count"`
	PostCount int `json:"post_count"`

	PreMeanImport  *float64 `json:"pre_mean_import,omitempty"`
	PostMeanImport *float64 `json:"post_mean_import,omitempty"`
	ImportChange   *float64 `json:"import_change_pct,omitempty"`

	PreMeanCarbonPrice  *float64 `json:"pre_mean_carbon_price,omitempty"`
	PostMeanCarbonPrice *float64 `json:"post_mean_carbon_price,omitempty"`
	CarbonPriceChange   *float64 `json:"carbon_price_change_pct,omitempty"`
}

func infeasible(modelName, reason string) Result {
	return Result{Model: modelName, Feasible: false, Reason: reason}
}
