package verdict

import (
	"blackswans/domain/stats"
)

// Status is the outcome of one claim check
type Status string

const (
	StatusConfirmed    Status = "CONFIRMED"
	StatusNotConfirmed Status = "NOT CONFIRMED"
)

// StatusOf maps a boolean decision to a Status
func StatusOf(confirmed bool) Status {
	if confirmed {
		return StatusConfirmed
	}
	return StatusNotConfirmed
}

// ClaimID is the stable key of a claim in summaries
type ClaimID string

const (
	ClaimFatTails          ClaimID = "1_fat_tails"
	ClaimOutsizedInfluence ClaimID = "2_outsized_influence"
	ClaimClustering        ClaimID = "3_clustering"
	ClaimTrendFollowing    ClaimID = "4_trend_following"
)

// ClaimOrder is the fixed reporting order
var ClaimOrder = []ClaimID{ClaimFatTails, ClaimOutsizedInfluence, ClaimClustering, ClaimTrendFollowing}

// ClaimVerdict is the judgement on one claim with the evidence behind it.
// Exactly one evidence field is set, matching ID.
type ClaimVerdict struct {
	ID     ClaimID  `json:"id"`
	Claim  string   `json:"claim"`
	Status Status   `json:"verdict"`
	PValue *float64 `json:"p_value"`

	FatTails       *FatTailsEvidence       `json:"fat_tails,omitempty"`
	Influence      *InfluenceEvidence      `json:"influence,omitempty"`
	Clustering     *ClusteringEvidence     `json:"clustering,omitempty"`
	TrendFollowing *TrendFollowingEvidence `json:"trend_following,omitempty"`
}

// Confirmed reports whether the claim held
func (v ClaimVerdict) Confirmed() bool {
	return v.Status == StatusConfirmed
}

// FatTailsEvidence backs the fat-tails claim
type FatTailsEvidence struct {
	Normality      stats.NormalityResult `json:"normality"`
	ExcessKurtosis float64               `json:"excess_kurtosis"`
	Skewness       float64               `json:"skewness"`
	MaxReturnSigma float64               `json:"max_return_sigma"`
	MinReturnSigma float64               `json:"min_return_sigma"`
	Observations   int                   `json:"n_observations"`
}

// InfluenceRow is the CAGR effect of sitting out the N best and/or worst days
type InfluenceRow struct {
	Days            int     `json:"n_days"`
	PctOfTotal      float64 `json:"pct_of_total"`
	CAGRAll         float64 `json:"cagr_all"`
	CAGRMissBest    float64 `json:"cagr_miss_best"`
	CAGRMissWorst   float64 `json:"cagr_miss_worst"`
	CAGRMissBoth    float64 `json:"cagr_miss_both"`
	ImpactMissBest  float64 `json:"impact_miss_best"`
	ImpactMissWorst float64 `json:"impact_miss_worst"`
}

// InfluenceEvidence backs the outsized-influence claim
type InfluenceEvidence struct {
	Scenarios []InfluenceRow        `json:"scenarios"`
	MainDays  int                   `json:"main_n_days"`
	Threshold float64               `json:"threshold"`
	Bootstrap stats.BootstrapResult `json:"bootstrap_ci_miss_best"`
}

// ClusteringRow is one (window, quantile) cell of the clustering sweep
type ClusteringRow struct {
	Window                 int                  `json:"ma_window"`
	Quantile               float64              `json:"quantile"`
	OutliersDown           int                  `json:"outliers_down"`
	OutliersUp             int                  `json:"outliers_up"`
	TotalDown              int                  `json:"total_down"`
	TotalUp                int                  `json:"total_up"`
	PctOutliersInDowntrend float64              `json:"pct_outliers_in_downtrend"`
	ChiSquare              stats.StatTestResult `json:"chi2"`
	ZTest                  stats.StatTestResult `json:"z_test"`
}

// ClusteringEvidence backs the bear-market clustering claim
type ClusteringEvidence struct {
	Sensitivity          []ClusteringRow `json:"sensitivity_results"`
	MainWindow           int             `json:"main_ma_window"`
	MainQuantile         float64         `json:"main_quantile"`
	MainCasePValue       float64         `json:"main_case_p_value"`
	MainCasePctDowntrend float64         `json:"main_case_pct_downtrend"`
	SignificantCount     int             `json:"significant_count"`
	RobustCount          string          `json:"robust_count"`
}

// BacktestRow compares the trend filter with buy-and-hold at one window
type BacktestRow struct {
	Window              int     `json:"ma_window"`
	Days                int     `json:"n_days"`
	TimeInMarket        float64 `json:"time_in_market"`
	BuyHoldCAGR         float64 `json:"buy_hold_cagr"`
	StrategyCAGR        float64 `json:"strategy_cagr"`
	BuyHoldSharpe       float64 `json:"buy_hold_sharpe"`
	StrategySharpe      float64 `json:"strategy_sharpe"`
	BuyHoldMaxDrawdown  float64 `json:"buy_hold_max_drawdown"`
	StrategyMaxDrawdown float64 `json:"strategy_max_drawdown"`
	BuyHoldVolatility   float64 `json:"buy_hold_volatility"`
	StrategyVolatility  float64 `json:"strategy_volatility"`
}

// TrendFollowingEvidence backs the trend-following claim
type TrendFollowingEvidence struct {
	Backtests  []BacktestRow `json:"backtest_results"`
	MainWindow int           `json:"main_ma_window"`
	MainCase   BacktestRow   `json:"main_case"`
}

// ValidationSummary is the complete result of validating all claims for one series
type ValidationSummary struct {
	RunID       string             `json:"run_id,omitempty"`
	Ticker      string             `json:"ticker"`
	Period      string             `json:"period"`
	TradingDays int                `json:"n_trading_days"`
	Claims      map[ClaimID]Status `json:"claims"`
	Details     []ClaimVerdict     `json:"details"`
}

// Verdict returns the verdict for id
func (s *ValidationSummary) Verdict(id ClaimID) (ClaimVerdict, bool) {
	for _, v := range s.Details {
		if v.ID == id {
			return v, true
		}
	}
	return ClaimVerdict{}, false
}

// ConfirmedCount is the number of confirmed claims
func (s *ValidationSummary) ConfirmedCount() int {
	n := 0
	for _, v := range s.Details {
		if v.Confirmed() {
			n++
		}
	}
	return n
}
