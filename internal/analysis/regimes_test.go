package analysis

import (
	"math"
	"testing"

	"blackswans/domain/market"
	"blackswans/internal/errors"
	"blackswans/internal/series"
	"blackswans/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Monotone(t *testing.T) {
	const window = 3

	up, err := Classify(testkit.Linear(100, 110, 11), window)
	require.NoError(t, err)
	down, err := Classify(testkit.Linear(110, 100, 11), window)
	require.NoError(t, err)

	for i := 0; i < 11; i++ {
		if i < window {
			assert.Equal(t, market.RegimeUnknown, up.Labels[i], "warm-up day %d", i)
			assert.Equal(t, market.RegimeUnknown, down.Labels[i], "warm-up day %d", i)
			continue
		}
		assert.Equal(t, market.RegimeUp, up.Labels[i], "day %d", i)
		assert.Equal(t, market.RegimeDown, down.Labels[i], "day %d", i)
	}
}

func TestClassify_ComparesAgainstPreviousDayAverage(t *testing.T) {
	// flat history then a halving: the drop is judged against the flat average
	const window = 5
	closes := append(testkit.Constant(window+1, 100), 50)
	p := testkit.PricesFromReturns(make([]float64, len(closes)-1))
	p.Closes = closes

	rs, err := Classify(p, window)
	require.NoError(t, err)
	assert.Equal(t, market.RegimeDown, rs.Labels[len(closes)-1])

	// with a one-day window the average is yesterday's close, so a rising
	// series is always up; an unlagged average would equal today's close
	rs, err = Classify(testkit.Linear(1, 10, 10), 1)
	require.NoError(t, err)
	assert.Equal(t, market.RegimeUnknown, rs.Labels[0])
	for i := 1; i < 10; i++ {
		assert.Equal(t, market.RegimeUp, rs.Labels[i])
	}
}

func TestClassify_IgnoresFuturePrices(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)

	base, err := Classify(m.Prices, 50)
	require.NoError(t, err)

	cut := 1500
	shocked := market.PriceSeries{
		Dates:  m.Prices.Dates,
		Closes: append([]float64(nil), m.Prices.Closes...),
	}
	for i := cut; i < len(shocked.Closes); i++ {
		shocked.Closes[i] *= 3
	}
	other, err := Classify(shocked, 50)
	require.NoError(t, err)

	assert.Equal(t, base.Labels[:cut], other.Labels[:cut])
}

func TestClassify_InvalidWindow(t *testing.T) {
	_, err := Classify(testkit.Linear(1, 2, 5), 0)
	assert.Equal(t, errors.CodeInvalidParameter, errors.GetCode(err))
}

func TestPerformance_HandComputed(t *testing.T) {
	rets := []float64{0.01, 0.02, -0.01, 0.03, -0.02}
	prices := testkit.PricesFromReturns(rets)
	r, err := series.FromPrices(prices)
	require.NoError(t, err)

	// one-day window: up exactly on positive-return days
	rs, err := Classify(prices, 1)
	require.NoError(t, err)

	rows := Performance(r, rs)
	require.Len(t, rows, 2)

	down, up := rows[0], rows[1]
	assert.Equal(t, "downtrend", down.Regime)
	assert.Equal(t, "uptrend", up.Regime)
	assert.Equal(t, 2, down.Count)
	assert.Equal(t, 3, up.Count)
	assert.InDelta(t, 0.4, down.PctOfTotal, 1e-12)
	assert.InDelta(t, 0.6, up.PctOfTotal, 1e-12)
	assert.InDelta(t, -0.015, down.Mean, 1e-12)
	assert.InDelta(t, 0.005, down.Std, 1e-12)
	assert.InDelta(t, 0.02, up.Median, 1e-12)

	assert.InDelta(t, AnnualizedReturn([]float64{0.01, 0.02, 0, 0.03, 0}), up.AnnualisedReturn, 1e-9)
	assert.InDelta(t, AnnualizedReturn([]float64{0, 0, -0.01, 0, -0.02}), down.AnnualisedReturn, 1e-9)
	assert.InDelta(t, -0.015/0.005*math.Sqrt(252), down.SharpeRatio, 1e-9)
}

func TestPerformance_RowsCoverKnownDays(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)
	r, err := series.FromPrices(m.Prices)
	require.NoError(t, err)
	rs, err := Classify(m.Prices, 200)
	require.NoError(t, err)

	rows := Performance(r, rs)
	down, up := RegimeTotals(rs)

	assert.Equal(t, down+up, rows[0].Count+rows[1].Count)
	assert.InDelta(t, 1.0, rows[0].PctOfTotal+rows[1].PctOfTotal, 1e-12)
	assert.Greater(t, up, 0)
	assert.Greater(t, down, 0)
}

func TestPerformance_NoKnownDays(t *testing.T) {
	prices := testkit.Linear(100, 101, 3)
	r, err := series.FromPrices(prices)
	require.NoError(t, err)
	rs, err := Classify(prices, 10)
	require.NoError(t, err)

	for _, row := range Performance(r, rs) {
		assert.Equal(t, 0, row.Count)
		assert.True(t, math.IsNaN(row.PctOfTotal))
		assert.True(t, math.IsNaN(row.Mean))
		assert.True(t, math.IsNaN(row.AnnualisedReturn))
	}
}

func TestOutlierRegimeCounts(t *testing.T) {
	rets := []float64{0.01, 0.02, -0.01, 0.03, -0.02}
	prices := testkit.PricesFromReturns(rets)
	r, err := series.FromPrices(prices)
	require.NoError(t, err)

	rs, err := Classify(prices, 1)
	require.NoError(t, err)
	down, up, err := OutlierRegimeCounts(r, rs, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1, down) // -0.02
	assert.Equal(t, 1, up)   // 0.03

	// with a four-day window the +3% day is still warming up and is not counted
	rs, err = Classify(prices, 4)
	require.NoError(t, err)
	down, up, err = OutlierRegimeCounts(r, rs, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0, down)
	assert.Equal(t, 1, up)

	_, _, err = OutlierRegimeCounts(r, rs, 1)
	assert.Equal(t, errors.CodeInvalidParameter, errors.GetCode(err))
}
