package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"blackswans/domain/market"
	"blackswans/domain/stats"
	"blackswans/internal/errors"
)

// TradingDaysPerYear is the annualisation constant shared by every CAGR and
// volatility figure in the module.
const TradingDaysPerYear = 252

// Cash is the return assumed on a day spent out of the market
const Cash = 0.0

// AnnualizedReturn is the compound annual growth rate of a daily return path:
// (prod(1+r))^(252/n) - 1. Empty input gives NaN.
func AnnualizedReturn(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	cumulative := 1.0
	for _, r := range values {
		cumulative *= 1 + r
	}
	years := float64(len(values)) / TradingDaysPerYear
	return math.Pow(cumulative, 1/years) - 1
}

// extremeIndices returns positions of the worstN lowest and bestN highest
// values. The sort is stable, so among equal values the later position ranks higher.
func extremeIndices(values []float64, bestN, worstN int) (best, worst []int) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	if worstN > n {
		worstN = n
	}
	if bestN > n {
		bestN = n
	}
	worst = append(worst, order[:worstN]...)
	best = append(best, order[n-bestN:]...)
	return best, worst
}

// Scenarios builds the four counterfactual paths: unmodified, best days in
// cash, worst days in cash, and both. Counts above the series length are
// clamped; overlapping best and worst sets are unioned.
func Scenarios(returns market.ReturnSeries, bestN, worstN int) (market.ScenarioSet, error) {
	if bestN < 0 || worstN < 0 {
		return market.ScenarioSet{}, errors.InvalidParameter("best and worst counts must be >= 0, got %d and %d", bestN, worstN)
	}

	best, worst := extremeIndices(returns.Values, bestN, worstN)

	set := market.ScenarioSet{
		All:       returns.Clone(),
		MissBest:  returns.Clone(),
		MissWorst: returns.Clone(),
		MissBoth:  returns.Clone(),
	}
	for _, i := range best {
		set.MissBest.Values[i] = Cash
		set.MissBoth.Values[i] = Cash
	}
	for _, i := range worst {
		set.MissWorst.Values[i] = Cash
		set.MissBoth.Values[i] = Cash
	}
	return set, nil
}

// ScenarioTable tabulates the fixed-count scenarios followed by one
// quantile-sized block per q, where n = round(len*(1-q)). Quantiles whose
// block would be empty are skipped.
func ScenarioTable(returns market.ReturnSeries, bestN, worstN int, quantiles []float64) ([]stats.ScenarioRow, error) {
	for _, q := range quantiles {
		if err := ValidateQuantile(q); err != nil {
			return nil, err
		}
	}
	set, err := Scenarios(returns, bestN, worstN)
	if err != nil {
		return nil, err
	}

	rows := []stats.ScenarioRow{
		{Scenario: "all", Days: 0, AnnualisedReturn: AnnualizedReturn(set.All.Values)},
		{Scenario: fmt.Sprintf("miss_best_%d", bestN), Days: bestN, AnnualisedReturn: AnnualizedReturn(set.MissBest.Values)},
		{Scenario: fmt.Sprintf("miss_worst_%d", worstN), Days: worstN, AnnualisedReturn: AnnualizedReturn(set.MissWorst.Values)},
		{Scenario: fmt.Sprintf("miss_both_%d_%d", bestN, worstN), Days: bestN + worstN, AnnualisedReturn: AnnualizedReturn(set.MissBoth.Values)},
	}

	for _, q := range quantiles {
		n := int(math.Round(float64(returns.Len()) * (1 - q)))
		if n < 1 {
			continue
		}
		sc, err := Scenarios(returns, n, n)
		if err != nil {
			return nil, err
		}
		label := strconv.FormatFloat(q, 'g', -1, 64)
		rows = append(rows,
			stats.ScenarioRow{Scenario: "miss_best_" + label, Days: n, AnnualisedReturn: AnnualizedReturn(sc.MissBest.Values)},
			stats.ScenarioRow{Scenario: "miss_worst_" + label, Days: n, AnnualisedReturn: AnnualizedReturn(sc.MissWorst.Values)},
			stats.ScenarioRow{Scenario: "miss_both_" + label, Days: 2 * n, AnnualisedReturn: AnnualizedReturn(sc.MissBoth.Values)},
		)
	}
	return rows, nil
}
