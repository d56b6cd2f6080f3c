package core

// ColumnData is the JSON shape of one materialized column. Null rows are
// encoded as nil values; NaN floats pass through as float64, so callers
// that need strict JSON must post-process NaN/Inf themselves.
type ColumnData struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// LinearRegressionResult is the payload of an ordinary least squares fit.
// Coefficients are keyed by the explanatory column names.
type LinearRegressionResult struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	SSR          float64            `json:"ssr"`
	Scale        float64            `json:"scale"`
}

// TTestResult is the payload of a coefficient t-test over a prior linear
// regression fit. All maps are keyed by term name; the intercept term is
// keyed "intercept".
type TTestResult struct {
	StandardErrors   map[string]float64 `json:"standardErrors"`
	TStatistics      map[string]float64 `json:"tStatistics"`
	PValues          map[string]float64 `json:"pValues"`
	DegreesOfFreedom int                `json:"degreesOfFreedom"`
}

// LogisticRegressionResult is the payload of a binomial logistic fit.
type LogisticRegressionResult struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Converged    bool               `json:"converged"`
	Iterations   int                `json:"iterations"`
}

// WaldTestResult is the payload of a Wald test over a prior logistic fit.
// Per-term statistics are squared z-scores (chi-squared, 1 df); the joint
// statistic covers all explanatory coefficients.
type WaldTestResult struct {
	StandardErrors   map[string]float64 `json:"standardErrors"`
	Statistics       map[string]float64 `json:"statistics"`
	PValues          map[string]float64 `json:"pValues"`
	WaldStatistic    float64            `json:"waldStatistic"`
	DegreesOfFreedom int                `json:"degreesOfFreedom"`
}

// InterceptTerm is the map key used for the intercept in test payloads.
const InterceptTerm = "intercept"
