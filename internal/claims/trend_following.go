package claims

import (
	"math"

	"blackswans/domain/market"
	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"
	"blackswans/internal/significance"
)

// TrendFollowing checks that a moving-average filter sidesteps the worst
// losses: confirmed iff the strategy's max drawdown at MainWindow is strictly
// shallower than buy-and-hold's.
type TrendFollowing struct {
	Config Config
}

func (TrendFollowing) ID() verdict.ClaimID { return verdict.ClaimTrendFollowing }
func (TrendFollowing) Name() string        { return "Trend-following reduces worst volatility" }
func (TrendFollowing) Weight() int64       { return 1 }

func (c TrendFollowing) Evaluate(in Input) (verdict.ClaimVerdict, error) {
	rows := make([]verdict.BacktestRow, 0, len(c.Config.Windows))
	main := -1

	for _, window := range c.Config.Windows {
		bt, err := significance.TrendFollowingBacktest(in.Prices, in.Returns, window)
		if err != nil {
			return verdict.ClaimVerdict{}, err
		}

		invested := 0
		for _, l := range bt.Regimes {
			if l == market.RegimeUp {
				invested++
			}
		}
		timeInMarket := math.NaN()
		if bt.Len() > 0 {
			timeInMarket = float64(invested) / float64(bt.Len())
		}

		if window == c.Config.MainWindow {
			main = len(rows)
		}
		rows = append(rows, verdict.BacktestRow{
			Window:              window,
			Days:                bt.Len(),
			TimeInMarket:        timeInMarket,
			BuyHoldCAGR:         analysis.AnnualizedReturn(bt.BuyHoldReturn),
			StrategyCAGR:        analysis.AnnualizedReturn(bt.StrategyReturn),
			BuyHoldSharpe:       significance.SharpeRatio(bt.BuyHoldReturn, 0),
			StrategySharpe:      significance.SharpeRatio(bt.StrategyReturn, 0),
			BuyHoldMaxDrawdown:  significance.MaxDrawdown(bt.BuyHoldReturn),
			StrategyMaxDrawdown: significance.MaxDrawdown(bt.StrategyReturn),
			BuyHoldVolatility:   significance.AnnualizedVolatility(bt.BuyHoldReturn),
			StrategyVolatility:  significance.AnnualizedVolatility(bt.StrategyReturn),
		})
	}
	if main < 0 {
		return verdict.ClaimVerdict{}, errors.InvalidParameter("main window %d is not in the sweep", c.Config.MainWindow)
	}

	mainRow := rows[main]
	confirmed := mainRow.StrategyMaxDrawdown > mainRow.BuyHoldMaxDrawdown

	return verdict.ClaimVerdict{
		ID:     c.ID(),
		Claim:  c.Name(),
		Status: verdict.StatusOf(confirmed),
		TrendFollowing: &verdict.TrendFollowingEvidence{
			Backtests:  rows,
			MainWindow: c.Config.MainWindow,
			MainCase:   mainRow,
		},
	}, nil
}
