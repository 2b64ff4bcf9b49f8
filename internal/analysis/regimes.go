package analysis

import (
	"math"
	"time"

	"blackswans/domain/market"
	"blackswans/domain/stats"
	"blackswans/internal/errors"
	"blackswans/internal/series"
)

// Classify labels each price date as up- or downtrend against a trailing
// moving average lagged by one day: Up iff close[t] > mean(close[t-window..t-1]).
// The first window labels are RegimeUnknown.
func Classify(prices market.PriceSeries, window int) (market.RegimeSeries, error) {
	if window < 1 {
		return market.RegimeSeries{}, errors.InvalidParameter("window must be >= 1, got %d", window)
	}
	if len(prices.Dates) != len(prices.Closes) {
		return market.RegimeSeries{}, errors.InvalidParameter("price series has %d dates for %d closes", len(prices.Dates), len(prices.Closes))
	}

	clean := series.CleanPrices(prices)
	n := clean.Len()
	out := market.RegimeSeries{
		Dates:  make([]time.Time, n),
		Labels: make([]market.Regime, n),
		Window: window,
	}
	copy(out.Dates, clean.Dates)

	// sum holds close[t-window..t-1] once t >= window
	sum := 0.0
	for t := 0; t < n; t++ {
		if t < window {
			out.Labels[t] = market.RegimeUnknown
			sum += clean.Closes[t]
			continue
		}
		lagged := sum / float64(window)
		if clean.Closes[t] > lagged {
			out.Labels[t] = market.RegimeUp
		} else {
			out.Labels[t] = market.RegimeDown
		}
		sum += clean.Closes[t] - clean.Closes[t-window]
	}
	return out, nil
}

// knownReturns pairs each known-regime date with its return, in regime order.
// Dates without a return are skipped.
func knownReturns(returns market.ReturnSeries, regimes market.RegimeSeries) (values []float64, labels []market.Regime) {
	idx := returns.Index()
	for i, d := range regimes.Dates {
		l := regimes.Labels[i]
		if !l.Known() {
			continue
		}
		j, ok := idx[d]
		if !ok {
			continue
		}
		values = append(values, returns.Values[j])
		labels = append(labels, l)
	}
	return values, labels
}

// Performance summarises returns by regime. Each row's annualised return is
// computed over every known-regime day with cash on the other regime's days,
// so it compares directly with the buy-and-hold CAGR of the same period.
func Performance(returns market.ReturnSeries, regimes market.RegimeSeries) []stats.RegimePerformance {
	values, labels := knownReturns(returns, regimes)
	total := len(values)

	rows := make([]stats.RegimePerformance, 0, 2)
	for _, regime := range []market.Regime{market.RegimeDown, market.RegimeUp} {
		var own []float64
		full := make([]float64, total)
		for i, v := range values {
			if labels[i] == regime {
				own = append(own, v)
				full[i] = v
			} else {
				full[i] = Cash
			}
		}

		s := Summarize(own)
		pct := math.NaN()
		if total > 0 {
			pct = float64(len(own)) / float64(total)
		}
		rows = append(rows, stats.RegimePerformance{
			Regime:           regime.String(),
			Count:            len(own),
			PctOfTotal:       pct,
			Mean:             s.Mean,
			Median:           s.Median,
			Std:              s.Std,
			AnnualisedReturn: AnnualizedReturn(full),
			SharpeRatio:      regimeSharpe(s),
		})
	}
	return rows
}

// regimeSharpe annualises mean/std of a regime's own returns; 0 without dispersion
func regimeSharpe(s Summary) float64 {
	if math.IsNaN(s.Std) {
		return math.NaN()
	}
	if s.Std <= 0 {
		return 0
	}
	return s.Mean / s.Std * math.Sqrt(TradingDaysPerYear)
}

// OutlierRegimeCounts counts two-sided outliers at quantile q by the regime of
// their date. Outliers on unknown-regime or unlabelled dates are not counted.
func OutlierRegimeCounts(returns market.ReturnSeries, regimes market.RegimeSeries, q float64) (down, up int, err error) {
	low, high, err := Thresholds(returns.Values, q)
	if err != nil {
		return 0, 0, err
	}
	lookup := regimes.Lookup()
	for i, v := range returns.Values {
		if !IsOutlier(v, low, high) {
			continue
		}
		label, ok := lookup[returns.Dates[i]]
		if !ok {
			continue
		}
		switch label {
		case market.RegimeDown:
			down++
		case market.RegimeUp:
			up++
		}
	}
	return down, up, nil
}

// RegimeTotals counts known-regime days by state
func RegimeTotals(regimes market.RegimeSeries) (down, up int) {
	return regimes.Totals()
}
