// Package testkit generates deterministic synthetic index data for tests and demos.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"blackswans/domain/market"

	"github.com/xuri/excelize/v2"
)

// MarketConfig configures the regime-switching index generator.
// Calm days drift up with low volatility; stressed days drift down with high
// volatility and Student-t(3) shocks, so extremes concentrate in downtrends.
type MarketConfig struct {
	Days       int
	Seed       int64
	StartDate  time.Time
	StartPrice float64

	CalmDrift    float64
	CalmVol      float64
	StressDrift  float64
	StressVol    float64
	SwitchToBear float64 // daily probability calm -> stressed
	SwitchToBull float64 // daily probability stressed -> calm
}

// DefaultMarketConfig returns parameters that give an equity-like path
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		Days:         3000,
		Seed:         42,
		StartDate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		StartPrice:   100,
		CalmDrift:    0.0007,
		CalmVol:      0.007,
		StressDrift:  -0.0012,
		StressVol:    0.02,
		SwitchToBear: 0.004,
		SwitchToBull: 0.01,
	}
}

// Market is a generated price path
type Market struct {
	Prices   market.PriceSeries
	Stressed []bool
}

// GenerateMarket builds a synthetic close series on business days
func GenerateMarket(cfg MarketConfig) (*Market, error) {
	if cfg.Days < 2 {
		return nil, fmt.Errorf("days must be >= 2")
	}
	if cfg.StartPrice <= 0 {
		return nil, fmt.Errorf("start price must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	dates := BusinessDays(cfg.StartDate, cfg.Days)
	closes := make([]float64, cfg.Days)
	stressed := make([]bool, cfg.Days)

	closes[0] = cfg.StartPrice
	inStress := false
	for t := 1; t < cfg.Days; t++ {
		if inStress {
			if rng.Float64() < cfg.SwitchToBull {
				inStress = false
			}
		} else if rng.Float64() < cfg.SwitchToBear {
			inStress = true
		}
		stressed[t] = inStress

		var r float64
		if inStress {
			r = cfg.StressDrift + cfg.StressVol*studentT3(rng)
		} else {
			r = cfg.CalmDrift + cfg.CalmVol*rng.NormFloat64()
		}
		// keep prices positive on pathological draws
		r = math.Max(r, -0.5)
		closes[t] = closes[t-1] * (1 + r)
	}

	return &Market{
		Prices:   market.PriceSeries{Dates: dates, Closes: closes},
		Stressed: stressed,
	}, nil
}

// studentT3 draws a unit-variance Student-t variate with 3 degrees of freedom
func studentT3(rng *rand.Rand) float64 {
	z := rng.NormFloat64()
	chi := 0.0
	for i := 0; i < 3; i++ {
		g := rng.NormFloat64()
		chi += g * g
	}
	return z / math.Sqrt(chi/3) / math.Sqrt(3)
}

// BusinessDays returns n consecutive weekdays starting at (or after) start
func BusinessDays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for len(dates) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

// PricesFromReturns compounds returns from a starting price of 100.
// The result has len(returns)+1 points; the first date precedes the first return.
func PricesFromReturns(returns []float64) market.PriceSeries {
	dates := BusinessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), len(returns)+1)
	closes := make([]float64, len(returns)+1)
	closes[0] = 100
	for i, r := range returns {
		closes[i+1] = closes[i] * (1 + r)
	}
	return market.PriceSeries{Dates: dates, Closes: closes}
}

// Returns builds a return series on business days from raw values
func Returns(values ...float64) market.ReturnSeries {
	dates := BusinessDays(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), len(values))
	v := make([]float64, len(values))
	copy(v, values)
	return market.ReturnSeries{Dates: dates, Values: v}
}

// Constant returns n copies of d
func Constant(n int, d float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// Linear returns n evenly spaced closes from start to end inclusive
func Linear(start, end float64, n int) market.PriceSeries {
	dates := BusinessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	closes := make([]float64, n)
	for i := range closes {
		if n == 1 {
			closes[i] = start
			continue
		}
		closes[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	return market.PriceSeries{Dates: dates, Closes: closes}
}

// WriteCSV stores prices as a Date,Close file
func WriteCSV(path string, p market.PriceSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Close"}); err != nil {
		return err
	}
	for i, d := range p.Dates {
		if err := w.Write([]string{d.Format(market.DateLayout), strconv.FormatFloat(p.Closes[i], 'f', 4, 64)}); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteXLSX stores prices on Sheet1 as Date / Adj Close columns
func WriteXLSX(path string, p market.PriceSeries) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Adj Close"}); err != nil {
		return err
	}
	for i, d := range p.Dates {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{d.Format(market.DateLayout), p.Closes[i]}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
