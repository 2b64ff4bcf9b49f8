package significance

import (
	"time"

	"blackswans/domain/market"
	"blackswans/domain/stats"
	"blackswans/internal/analysis"
)

// TrendFollowingBacktest holds the index on uptrend days and cash on downtrend
// days, using the same lagged regimes as the classifier. Only known-regime
// dates are kept; a date with no return earns 0 in both legs.
func TrendFollowingBacktest(prices market.PriceSeries, returns market.ReturnSeries, window int) (stats.Backtest, error) {
	regimes, err := analysis.Classify(prices, window)
	if err != nil {
		return stats.Backtest{}, err
	}

	idx := returns.Index()
	bt := stats.Backtest{
		Window:         window,
		Dates:          make([]time.Time, 0, len(regimes.Dates)),
		BuyHoldReturn:  make([]float64, 0, len(regimes.Dates)),
		StrategyReturn: make([]float64, 0, len(regimes.Dates)),
		Regimes:        make([]market.Regime, 0, len(regimes.Dates)),
	}
	for i, d := range regimes.Dates {
		label := regimes.Labels[i]
		if !label.Known() {
			continue
		}
		r := analysis.Cash
		if j, ok := idx[d]; ok {
			r = returns.Values[j]
		}
		bt.Dates = append(bt.Dates, d)
		bt.BuyHoldReturn = append(bt.BuyHoldReturn, r)
		bt.StrategyReturn = append(bt.StrategyReturn, r*float64(label))
		bt.Regimes = append(bt.Regimes, label)
	}
	return bt, nil
}
