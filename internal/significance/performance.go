package significance

import (
	"math"

	"blackswans/internal/analysis"

	gstat "gonum.org/v1/gonum/stat"
)

// MaxDrawdown is the deepest peak-to-trough loss of the compounded path,
// min(cum/cummax - 1). Never positive; 0 for an empty path.
func MaxDrawdown(values []float64) float64 {
	cum := 1.0
	peak := math.Inf(-1)
	worst := 0.0
	for _, r := range values {
		cum *= 1 + r
		peak = math.Max(peak, cum)
		worst = math.Min(worst, cum/peak-1)
	}
	return worst
}

// SharpeRatio annualises mean/std (ddof=1) of returns in excess of the daily
// share of riskFreeRate. 0 when the excess returns do not vary.
func SharpeRatio(values []float64, riskFreeRate float64) float64 {
	if len(values) < 2 {
		return 0
	}
	daily := riskFreeRate / analysis.TradingDaysPerYear
	excess := make([]float64, len(values))
	for i, r := range values {
		excess[i] = r - daily
	}
	mean, std := gstat.MeanStdDev(excess, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(analysis.TradingDaysPerYear)
}

// AnnualizedVolatility is std (ddof=1) scaled by sqrt(252); NaN below two values
func AnnualizedVolatility(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return gstat.StdDev(values, nil) * math.Sqrt(analysis.TradingDaysPerYear)
}
