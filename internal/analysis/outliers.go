// Package analysis holds the descriptive building blocks of the return study:
// tail identification, best/worst-day counterfactuals and trend regimes.
package analysis

import (
	"math"

	"blackswans/domain/market"
	"blackswans/domain/stats"
	"blackswans/internal/errors"
)

// ValidateQuantile rejects quantile levels outside the open unit interval
func ValidateQuantile(q float64) error {
	if math.IsNaN(q) || q <= 0 || q >= 1 {
		return errors.InvalidParameter("quantile must be in (0,1), got %v", q)
	}
	return nil
}

// Thresholds returns the two-sided tail cut-offs at level q:
// low = Quantile(1-q), high = Quantile(q).
func Thresholds(values []float64, q float64) (low, high float64, err error) {
	if err := ValidateQuantile(q); err != nil {
		return 0, 0, err
	}
	return Quantile(values, 1-q), Quantile(values, q), nil
}

// IsOutlier reports whether v lies in either tail
func IsOutlier(v, low, high float64) bool {
	return v <= low || v >= high
}

// Identify computes tail statistics at quantile q. An empty tail is not an
// error: its mean, median, std and extremum come back NaN.
func Identify(returns market.ReturnSeries, q float64) (stats.OutlierStats, error) {
	low, high, err := Thresholds(returns.Values, q)
	if err != nil {
		return stats.OutlierStats{}, err
	}

	var lows, highs []float64
	for _, v := range returns.Values {
		if v <= low {
			lows = append(lows, v)
		}
		if v >= high {
			highs = append(highs, v)
		}
	}

	ls := Summarize(lows)
	hs := Summarize(highs)

	return stats.OutlierStats{
		Quantile:      q,
		ThresholdLow:  low,
		ThresholdHigh: high,
		CountLow:      len(lows),
		CountHigh:     len(highs),
		MeanLow:       ls.Mean,
		MeanHigh:      hs.Mean,
		MedianLow:     ls.Median,
		MedianHigh:    hs.Median,
		StdLow:        ls.Std,
		StdHigh:       hs.Std,
		MinLow:        minOrNaN(lows),
		MaxHigh:       maxOrNaN(highs),
	}, nil
}

// IdentifyAll runs Identify for each quantile in order.
// All quantiles are checked before any work is done.
func IdentifyAll(returns market.ReturnSeries, quantiles []float64) ([]stats.OutlierStats, error) {
	for _, q := range quantiles {
		if err := ValidateQuantile(q); err != nil {
			return nil, err
		}
	}
	out := make([]stats.OutlierStats, 0, len(quantiles))
	for _, q := range quantiles {
		s, err := Identify(returns, q)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
