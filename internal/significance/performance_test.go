package significance

import (
	"math"
	"testing"

	"blackswans/domain/market"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"
	"blackswans/internal/series"
	"blackswans/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gstat "gonum.org/v1/gonum/stat"
)

var tenDays = []float64{-0.05, 0.03, -0.02, 0.01, 0.04, -0.03, 0.02, -0.01, 0.05, -0.04}

func mean(values []float64) float64 { return gstat.Mean(values, nil) }

func TestBootstrap_Deterministic(t *testing.T) {
	a, err := Bootstrap(tenDays, mean, 500, 0.95, 42)
	require.NoError(t, err)
	b, err := Bootstrap(tenDays, mean, 500, 0.95, 42)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(42), a.Seed)
	assert.Equal(t, 500, a.Resamples)
	assert.InDelta(t, 0, a.PointEstimate, 1e-12)
	assert.LessOrEqual(t, a.CILower, a.PointEstimate)
	assert.GreaterOrEqual(t, a.CIUpper, a.PointEstimate)
	assert.Greater(t, a.StdError, 0.0)

	c, err := Bootstrap(tenDays, mean, 500, 0.95, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.CILower, c.CILower)
}

func TestBootstrap_WiderAtHigherConfidence(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)
	r, err := series.FromPrices(m.Prices)
	require.NoError(t, err)

	narrow, err := Bootstrap(r.Values, mean, 300, 0.80, 42)
	require.NoError(t, err)
	wide, err := Bootstrap(r.Values, mean, 300, 0.99, 42)
	require.NoError(t, err)

	assert.LessOrEqual(t, wide.CILower, narrow.CILower)
	assert.GreaterOrEqual(t, wide.CIUpper, narrow.CIUpper)
	assert.LessOrEqual(t, wide.CILower, wide.PointEstimate)
	assert.GreaterOrEqual(t, wide.CIUpper, wide.PointEstimate)
}

func TestBootstrap_InvalidSettings(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		fn         Statistic
		resamples  int
		confidence float64
		code       string
	}{
		{"zero resamples", tenDays, mean, 0, 0.95, errors.CodeInvalidParameter},
		{"confidence one", tenDays, mean, 10, 1, errors.CodeInvalidParameter},
		{"confidence zero", tenDays, mean, 10, 0, errors.CodeInvalidParameter},
		{"nil statistic", tenDays, nil, 10, 0.95, errors.CodeInvalidParameter},
		{"empty data", nil, mean, 10, 0.95, errors.CodeInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bootstrap(tt.values, tt.fn, tt.resamples, tt.confidence, 42)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.01, 0, 0.02, 0.5}))
	assert.Equal(t, -0.5, MaxDrawdown([]float64{0.5, -0.5}))
	assert.InDelta(t, 1.1*0.9*0.9/1.1-1, MaxDrawdown([]float64{0.1, -0.1, -0.1, 0.05}), 1e-12)
	assert.LessOrEqual(t, MaxDrawdown(tenDays), 0.0)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(testkit.Constant(100, 0), 0))
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.01}, 0))
	assert.InDelta(t, 2*math.Sqrt(252), SharpeRatio([]float64{0.01, 0.02, 0.03}, 0), 1e-9)

	// a risk-free rate shifts the mean only
	withRF := SharpeRatio([]float64{0.01, 0.02, 0.03}, 0.252)
	assert.InDelta(t, (0.02-0.001)/0.01*math.Sqrt(252), withRF, 1e-9)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.InDelta(t, 0.01*math.Sqrt(252), AnnualizedVolatility([]float64{0.01, 0.02, 0.03}), 1e-12)
	assert.True(t, math.IsNaN(AnnualizedVolatility([]float64{0.01})))
}

func TestTrendFollowingBacktest(t *testing.T) {
	rets := []float64{0.01, 0.02, -0.01, 0.03, -0.02}
	prices := testkit.PricesFromReturns(rets)
	r, err := series.FromPrices(prices)
	require.NoError(t, err)

	bt, err := TrendFollowingBacktest(prices, r, 1)
	require.NoError(t, err)

	require.Equal(t, 5, bt.Len())
	assert.Equal(t, 1, bt.Window)
	assert.Equal(t, r.Dates, bt.Dates)
	for i := range rets {
		assert.InDelta(t, rets[i], bt.BuyHoldReturn[i], 1e-12)
	}
	// uptrend exactly on rising days, so the strategy keeps only the gains
	assert.InDeltaSlice(t, []float64{0.01, 0.02, 0, 0.03, 0}, bt.StrategyReturn, 1e-12)
	assert.Equal(t, []market.Regime{1, 1, 0, 1, 0}, bt.Regimes)
}

func TestTrendFollowingBacktest_GeneratedMarket(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)
	r, err := series.FromPrices(m.Prices)
	require.NoError(t, err)

	bt, err := TrendFollowingBacktest(m.Prices, r, 200)
	require.NoError(t, err)

	down, up := analysisTotals(t, m.Prices, 200)
	assert.Equal(t, down+up, bt.Len())
	assert.LessOrEqual(t, MaxDrawdown(bt.BuyHoldReturn), 0.0)
	for i, l := range bt.Regimes {
		if l == market.RegimeDown {
			assert.Equal(t, 0.0, bt.StrategyReturn[i])
		}
	}

	_, err = TrendFollowingBacktest(m.Prices, r, 0)
	assert.Equal(t, errors.CodeInvalidParameter, errors.GetCode(err))
}

func analysisTotals(t *testing.T, p market.PriceSeries, window int) (int, int) {
	t.Helper()
	rs, err := analysis.Classify(p, window)
	require.NoError(t, err)
	return analysis.RegimeTotals(rs)
}
