// Package report writes analysis and validation results as CSV tables, a
// JSON summary, and an Excel workbook.
package report

import (
	"math"
	"strconv"

	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
)

// Table is one named grid of results. Cells hold string, int or float64;
// non-finite floats render as empty cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// ValidationTables returns the per-claim sweeps of a validation run
func ValidationTables(s *verdict.ValidationSummary) []Table {
	return []Table{
		clusteringTable(s),
		backtestTable(s),
		scenarioSensitivityTable(s),
	}
}

// SummaryTable lists each claim with its verdict and p-value
func SummaryTable(s *verdict.ValidationSummary) Table {
	t := Table{
		Name:    "summary",
		Headers: []string{"claim_id", "claim", "verdict", "p_value"},
	}
	for _, d := range s.Details {
		p := math.NaN()
		if d.PValue != nil {
			p = *d.PValue
		}
		t.Rows = append(t.Rows, []any{string(d.ID), d.Claim, string(d.Status), p})
	}
	return t
}

func clusteringTable(s *verdict.ValidationSummary) Table {
	t := Table{
		Name: "clustering_sensitivity",
		Headers: []string{
			"ma_window", "quantile", "outliers_down", "outliers_up", "total_down", "total_up",
			"pct_outliers_in_downtrend", "chi2_statistic", "chi2_p_value", "z_statistic", "z_p_value",
		},
	}
	v, ok := s.Verdict(verdict.ClaimClustering)
	if !ok || v.Clustering == nil {
		return t
	}
	for _, r := range v.Clustering.Sensitivity {
		t.Rows = append(t.Rows, []any{
			r.Window, r.Quantile, r.OutliersDown, r.OutliersUp, r.TotalDown, r.TotalUp,
			r.PctOutliersInDowntrend, r.ChiSquare.Statistic, r.ChiSquare.PValue, r.ZTest.Statistic, r.ZTest.PValue,
		})
	}
	return t
}

func backtestTable(s *verdict.ValidationSummary) Table {
	t := Table{
		Name: "backtest_results",
		Headers: []string{
			"ma_window", "n_days", "time_in_market", "buy_hold_cagr", "strategy_cagr",
			"buy_hold_sharpe", "strategy_sharpe", "buy_hold_max_drawdown", "strategy_max_drawdown",
			"buy_hold_volatility", "strategy_volatility",
		},
	}
	v, ok := s.Verdict(verdict.ClaimTrendFollowing)
	if !ok || v.TrendFollowing == nil {
		return t
	}
	for _, r := range v.TrendFollowing.Backtests {
		t.Rows = append(t.Rows, []any{
			r.Window, r.Days, r.TimeInMarket, r.BuyHoldCAGR, r.StrategyCAGR,
			r.BuyHoldSharpe, r.StrategySharpe, r.BuyHoldMaxDrawdown, r.StrategyMaxDrawdown,
			r.BuyHoldVolatility, r.StrategyVolatility,
		})
	}
	return t
}

func scenarioSensitivityTable(s *verdict.ValidationSummary) Table {
	t := Table{
		Name: "scenario_sensitivity",
		Headers: []string{
			"n_days", "pct_of_total", "cagr_all", "cagr_miss_best", "cagr_miss_worst",
			"cagr_miss_both", "impact_miss_best", "impact_miss_worst",
		},
	}
	v, ok := s.Verdict(verdict.ClaimOutsizedInfluence)
	if !ok || v.Influence == nil {
		return t
	}
	for _, r := range v.Influence.Scenarios {
		t.Rows = append(t.Rows, []any{
			r.Days, r.PctOfTotal, r.CAGRAll, r.CAGRMissBest, r.CAGRMissWorst,
			r.CAGRMissBoth, r.ImpactMissBest, r.ImpactMissWorst,
		})
	}
	return t
}

// AnalysisTables returns the four descriptive tables of an analysis run
func AnalysisTables(r analysis.AnalysisReport) []Table {
	outliers := Table{
		Name: "outlier_stats",
		Headers: []string{
			"quantile", "threshold_low", "threshold_high", "count_low", "count_high",
			"mean_low", "mean_high", "median_low", "median_high", "std_low", "std_high", "min_low", "max_high",
		},
	}
	for _, o := range r.OutlierStats {
		outliers.Rows = append(outliers.Rows, []any{
			o.Quantile, o.ThresholdLow, o.ThresholdHigh, o.CountLow, o.CountHigh,
			o.MeanLow, o.MeanHigh, o.MedianLow, o.MedianHigh, o.StdLow, o.StdHigh, o.MinLow, o.MaxHigh,
		})
	}

	scenarios := Table{
		Name:    "return_scenarios",
		Headers: []string{"scenario", "n_days", "annualised_return"},
	}
	for _, s := range r.Scenarios {
		scenarios.Rows = append(scenarios.Rows, []any{s.Scenario, s.Days, s.AnnualisedReturn})
	}

	regimes := Table{
		Name:    "regime_performance",
		Headers: []string{"regime", "count", "pct_of_total", "mean", "median", "std", "annualised_return", "sharpe_ratio"},
	}
	for _, p := range r.RegimePerformance {
		regimes.Rows = append(regimes.Rows, []any{
			p.Regime, p.Count, p.PctOfTotal, p.Mean, p.Median, p.Std, p.AnnualisedReturn, p.SharpeRatio,
		})
	}

	counts := Table{
		Name:    "outlier_regime_counts",
		Headers: []string{"quantile", "down", "up"},
	}
	for _, c := range r.OutlierRegimeCounts {
		counts.Rows = append(counts.Rows, []any{c.Quantile, c.Down, c.Up})
	}

	return []Table{outliers, scenarios, regimes, counts}
}

// formatCell renders a cell for CSV output
func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

// xlsxCell returns the value stored in a worksheet cell; nil leaves it blank
func xlsxCell(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}
