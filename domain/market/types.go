package market

import (
	"time"
)

// DateLayout is the calendar-day format used for every date crossing a boundary
const DateLayout = "2006-01-02"

// PriceSeries is an ordered daily close series.
// INVARIANTS (enforced by the loader, relied upon by the core):
// - Dates strictly increasing, no duplicates
// - len(Dates) == len(Closes)
type PriceSeries struct {
	Dates  []time.Time `json:"dates"`
	Closes []float64   `json:"closes"`
}

// Len returns the number of observations
func (p PriceSeries) Len() int {
	return len(p.Closes)
}

// ReturnSeries is an ordered daily simple-return series.
// Values[i] is the return earned on Dates[i] relative to the previous close.
type ReturnSeries struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations
func (r ReturnSeries) Len() int {
	return len(r.Values)
}

// Clone returns a deep copy so callers can mutate values freely
func (r ReturnSeries) Clone() ReturnSeries {
	dates := make([]time.Time, len(r.Dates))
	copy(dates, r.Dates)
	values := make([]float64, len(r.Values))
	copy(values, r.Values)
	return ReturnSeries{Dates: dates, Values: values}
}

// Index maps each date to its position in the series
func (r ReturnSeries) Index() map[time.Time]int {
	idx := make(map[time.Time]int, len(r.Dates))
	for i, d := range r.Dates {
		idx[d] = i
	}
	return idx
}

// Period renders the covered date range as "start to end"
func (r ReturnSeries) Period() string {
	if len(r.Dates) == 0 {
		return ""
	}
	return r.Dates[0].Format(DateLayout) + " to " + r.Dates[len(r.Dates)-1].Format(DateLayout)
}

// Regime is a binary trend label; RegimeUnknown marks the moving-average warm-up
type Regime int8

const (
	RegimeUnknown Regime = -1
	RegimeDown    Regime = 0
	RegimeUp      Regime = 1
)

// Known reports whether the label carries a trend state
func (r Regime) Known() bool {
	return r == RegimeDown || r == RegimeUp
}

// String returns the row label used in regime tables
func (r Regime) String() string {
	switch r {
	case RegimeDown:
		return "downtrend"
	case RegimeUp:
		return "uptrend"
	default:
		return "unknown"
	}
}

// RegimeSeries holds one label per price date
type RegimeSeries struct {
	Dates  []time.Time `json:"dates"`
	Labels []Regime    `json:"labels"`
	Window int         `json:"window"`
}

// Lookup maps each date to its label
func (rs RegimeSeries) Lookup() map[time.Time]Regime {
	m := make(map[time.Time]Regime, len(rs.Dates))
	for i, d := range rs.Dates {
		m[d] = rs.Labels[i]
	}
	return m
}

// Totals counts known labels by state
func (rs RegimeSeries) Totals() (down, up int) {
	for _, l := range rs.Labels {
		switch l {
		case RegimeDown:
			down++
		case RegimeUp:
			up++
		}
	}
	return down, up
}

// ScenarioSet is the four counterfactual paths of a best/worst-day removal.
// All four share the source series' date index.
type ScenarioSet struct {
	All       ReturnSeries `json:"all"`
	MissBest  ReturnSeries `json:"miss_best"`
	MissWorst ReturnSeries `json:"miss_worst"`
	MissBoth  ReturnSeries `json:"miss_both"`
}
