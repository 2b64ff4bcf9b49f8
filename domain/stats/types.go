package stats

import (
	"time"

	"blackswans/domain/market"
)

// ============================================================================
// TEST RESULTS
// ============================================================================

// StatTestResult is the immutable outcome of one hypothesis test
type StatTestResult struct {
	TestName   string  `json:"test_name"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Conclusion string  `json:"conclusion"`
}

// Significant reports whether the p-value falls below alpha
func (r StatTestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// NormalityResult bundles the normality battery.
// ShapiroWilk is nil when the sample is outside the test's size gate.
type NormalityResult struct {
	KolmogorovSmirnov StatTestResult  `json:"ks"`
	JarqueBera        StatTestResult  `json:"jb"`
	ShapiroWilk       *StatTestResult `json:"sw,omitempty"`
	SampleSize        int             `json:"n_observations"`
}

// BootstrapResult is a percentile bootstrap confidence interval
type BootstrapResult struct {
	PointEstimate float64 `json:"point_estimate"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
	Confidence    float64 `json:"confidence"`
	Resamples     int     `json:"n_bootstrap"`
	StdError      float64 `json:"std_error"`
	Seed          int64   `json:"seed"`
}

// ============================================================================
// DESCRIPTIVE RECORDS
// ============================================================================

// OutlierStats describes both tails at one quantile level.
// Tail fields are NaN when the tail is empty.
type OutlierStats struct {
	Quantile      float64 `json:"quantile"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
	CountLow      int     `json:"count_low"`
	CountHigh     int     `json:"count_high"`
	MeanLow       float64 `json:"mean_low"`
	MeanHigh      float64 `json:"mean_high"`
	MedianLow     float64 `json:"median_low"`
	MedianHigh    float64 `json:"median_high"`
	StdLow        float64 `json:"std_low"`
	StdHigh       float64 `json:"std_high"`
	MinLow        float64 `json:"min_low"`
	MaxHigh       float64 `json:"max_high"`
}

// ScenarioRow is one line of a best/worst-day removal table
type ScenarioRow struct {
	Scenario         string  `json:"scenario"`
	Days             int     `json:"n_days"`
	AnnualisedReturn float64 `json:"annualised_return"`
}

// RegimePerformance summarises returns earned inside one regime
type RegimePerformance struct {
	Regime           string  `json:"regime"`
	Count            int     `json:"count"`
	PctOfTotal       float64 `json:"pct_of_total"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	Std              float64 `json:"std"`
	AnnualisedReturn float64 `json:"annualised_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// RegimeOutlierCount is how many two-sided outliers fell in each regime
type RegimeOutlierCount struct {
	Quantile float64 `json:"quantile"`
	Down     int     `json:"down"`
	Up       int     `json:"up"`
}

// Backtest holds aligned buy-and-hold and trend-filtered daily returns.
// Only dates with a known regime are present.
type Backtest struct {
	Window         int             `json:"window"`
	Dates          []time.Time     `json:"dates"`
	BuyHoldReturn  []float64       `json:"buy_hold_return"`
	StrategyReturn []float64       `json:"strategy_return"`
	Regimes        []market.Regime `json:"regime"`
}

// Len returns the number of aligned days
func (b Backtest) Len() int {
	return len(b.Dates)
}

// HistogramBin is one equal-width bin with the count a fitted normal would predict
type HistogramBin struct {
	BinCenter      float64 `json:"bin_center"`
	Count          int     `json:"count"`
	NormalExpected float64 `json:"normal_expected"`
}
