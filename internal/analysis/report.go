package analysis

import (
	"strconv"

	"blackswans/domain/market"
	"blackswans/domain/stats"
	"blackswans/internal/errors"
	"blackswans/internal/series"
)

// AnalysisParams is the parameter bundle of one descriptive analysis run
type AnalysisParams struct {
	Quantiles []float64
	Window    int
	BestN     int
	WorstN    int
}

// DefaultAnalysisParams mirrors the command-line defaults
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		Quantiles: []float64{0.99, 0.999},
		Window:    200,
		BestN:     10,
		WorstN:    10,
	}
}

// Validate rejects parameter bundles before any computation
func (p AnalysisParams) Validate() error {
	if len(p.Quantiles) == 0 {
		return errors.InvalidParameter("at least one quantile is required")
	}
	for _, q := range p.Quantiles {
		if err := ValidateQuantile(q); err != nil {
			return err
		}
	}
	if p.Window < 1 {
		return errors.InvalidParameter("window must be >= 1, got %d", p.Window)
	}
	if p.BestN < 0 || p.WorstN < 0 {
		return errors.InvalidParameter("best and worst counts must be >= 0, got %d and %d", p.BestN, p.WorstN)
	}
	return nil
}

// AnalysisReport is the full descriptive picture of one price series
type AnalysisReport struct {
	Period              string                     `json:"period"`
	TradingDays         int                        `json:"n_trading_days"`
	Window              int                        `json:"ma_window"`
	OutlierStats        []stats.OutlierStats       `json:"outlier_stats"`
	Scenarios           []stats.ScenarioRow        `json:"scenarios"`
	RegimePerformance   []stats.RegimePerformance  `json:"regime_performance"`
	OutlierRegimeCounts []stats.RegimeOutlierCount `json:"outlier_regime_counts"`
}

// Analyze runs tails, scenarios and regimes over one price series
func Analyze(prices market.PriceSeries, params AnalysisParams) (AnalysisReport, error) {
	if err := params.Validate(); err != nil {
		return AnalysisReport{}, err
	}
	returns, err := series.FromPrices(prices)
	if err != nil {
		return AnalysisReport{}, err
	}

	outliers, err := IdentifyAll(returns, params.Quantiles)
	if err != nil {
		return AnalysisReport{}, err
	}
	scenarios, err := ScenarioTable(returns, params.BestN, params.WorstN, params.Quantiles)
	if err != nil {
		return AnalysisReport{}, err
	}
	regimes, err := Classify(prices, params.Window)
	if err != nil {
		return AnalysisReport{}, err
	}

	counts := make([]stats.RegimeOutlierCount, 0, len(params.Quantiles))
	for _, q := range params.Quantiles {
		down, up, err := OutlierRegimeCounts(returns, regimes, q)
		if err != nil {
			return AnalysisReport{}, err
		}
		counts = append(counts, stats.RegimeOutlierCount{Quantile: q, Down: down, Up: up})
	}

	return AnalysisReport{
		Period:              returns.Period(),
		TradingDays:         returns.Len(),
		Window:              params.Window,
		OutlierStats:        outliers,
		Scenarios:           scenarios,
		RegimePerformance:   Performance(returns, regimes),
		OutlierRegimeCounts: counts,
	}, nil
}

// ChartParams controls chart payload construction
type ChartParams struct {
	Window           int
	Quantile         float64
	Bins             int
	MaxRegularPoints int
	ImpactDays       []int
}

// DefaultChartParams mirrors the chart endpoint defaults
func DefaultChartParams() ChartParams {
	return ChartParams{
		Window:           200,
		Quantile:         0.99,
		Bins:             80,
		MaxRegularPoints: 4500,
		ImpactDays:       []int{5, 10, 20, 50},
	}
}

// ChartPoint is one plotted day. Regime is nil during the moving-average warm-up.
type ChartPoint struct {
	Date      string  `json:"date"`
	Return    float64 `json:"ret"`
	IsOutlier bool    `json:"is_outlier"`
	Regime    *int    `json:"regime"`
}

// Chart is the chart-ready view of a price series
type Chart struct {
	Period          string               `json:"period"`
	TradingDays     int                  `json:"n_trading_days"`
	ThresholdLow    float64              `json:"threshold_low"`
	ThresholdHigh   float64              `json:"threshold_high"`
	Returns         []ChartPoint         `json:"returns"`
	Histogram       []stats.HistogramBin `json:"histogram"`
	ScenarioImpacts map[string]float64   `json:"scenario_impacts"`
}

// ChartData builds the plotted series, return histogram and best-day impacts.
// Regular days are thinned to roughly MaxRegularPoints; outlier days are always kept.
// Impacts are the CAGR lost by missing the N best days, in percentage points.
func ChartData(prices market.PriceSeries, params ChartParams) (Chart, error) {
	if err := ValidateQuantile(params.Quantile); err != nil {
		return Chart{}, err
	}
	if params.Window < 1 {
		return Chart{}, errors.InvalidParameter("window must be >= 1, got %d", params.Window)
	}
	returns, err := series.FromPrices(prices)
	if err != nil {
		return Chart{}, err
	}
	low, high, err := Thresholds(returns.Values, params.Quantile)
	if err != nil {
		return Chart{}, err
	}
	regimes, err := Classify(prices, params.Window)
	if err != nil {
		return Chart{}, err
	}
	lookup := regimes.Lookup()

	regular := 0
	for _, v := range returns.Values {
		if !IsOutlier(v, low, high) {
			regular++
		}
	}
	step := 1
	if params.MaxRegularPoints > 0 {
		step = max(1, regular/params.MaxRegularPoints)
	}

	points := make([]ChartPoint, 0, regular/step+1)
	seen := 0
	for i, v := range returns.Values {
		outlier := IsOutlier(v, low, high)
		if !outlier {
			keep := seen%step == 0
			seen++
			if !keep {
				continue
			}
		}
		p := ChartPoint{
			Date:      returns.Dates[i].Format(market.DateLayout),
			Return:    v,
			IsOutlier: outlier,
		}
		if l, ok := lookup[returns.Dates[i]]; ok && l.Known() {
			label := int(l)
			p.Regime = &label
		}
		points = append(points, p)
	}

	baseline := AnnualizedReturn(returns.Values)
	impacts := make(map[string]float64, len(params.ImpactDays))
	for _, n := range params.ImpactDays {
		set, err := Scenarios(returns, n, n)
		if err != nil {
			return Chart{}, err
		}
		impacts[strconv.Itoa(n)] = (baseline - AnnualizedReturn(set.MissBest.Values)) * 100
	}

	return Chart{
		Period:          returns.Period(),
		TradingDays:     returns.Len(),
		ThresholdLow:    low,
		ThresholdHigh:   high,
		Returns:         points,
		Histogram:       Histogram(returns.Values, params.Bins),
		ScenarioImpacts: impacts,
	}, nil
}
