// Package series converts raw price data into the return series every
// analysis consumes. It is the one place where tabular input is narrowed
// to a single close column.
package series

import (
	"math"
	"strconv"
	"strings"
	"time"

	"blackswans/domain/market"
	"blackswans/internal/errors"
)

// Column names tried, in order, when selecting the close column from a table
var closeColumns = []string{"Close", "Adj Close"}

// Table is a column-bearing price table as produced by a file loader.
// Cells are kept as text so coercion happens in exactly one place.
type Table struct {
	Dates   []time.Time
	Columns map[string][]string
}

// SelectClose picks the close column of a table and coerces it to a price series.
// "Close" wins over "Adj Close"; a table with exactly one column uses that column.
// Cells that do not parse as numbers are dropped together with their date.
func SelectClose(t Table) (market.PriceSeries, error) {
	var cells []string
	for _, name := range closeColumns {
		if col, ok := t.Columns[name]; ok {
			cells = col
			break
		}
	}
	if cells == nil {
		if len(t.Columns) != 1 {
			return market.PriceSeries{}, errors.InvalidParameter("no Close column among %d columns", len(t.Columns))
		}
		for _, col := range t.Columns {
			cells = col
		}
	}
	if len(cells) != len(t.Dates) {
		return market.PriceSeries{}, errors.InvalidParameter("close column has %d cells for %d dates", len(cells), len(t.Dates))
	}

	out := market.PriceSeries{
		Dates:  make([]time.Time, 0, len(cells)),
		Closes: make([]float64, 0, len(cells)),
	}
	for i, cell := range cells {
		v, ok := parseNumber(cell)
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, t.Dates[i])
		out.Closes = append(out.Closes, v)
	}
	return out, nil
}

// parseNumber accepts plain and thousands-separated decimals
func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CleanPrices drops missing, non-finite and non-positive closes.
// Returns are then defined between prices adjacent after cleaning.
func CleanPrices(p market.PriceSeries) market.PriceSeries {
	out := market.PriceSeries{
		Dates:  make([]time.Time, 0, len(p.Closes)),
		Closes: make([]float64, 0, len(p.Closes)),
	}
	for i, c := range p.Closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			continue
		}
		out.Dates = append(out.Dates, p.Dates[i])
		out.Closes = append(out.Closes, c)
	}
	return out
}

// FromPrices computes daily simple returns, r[i] = p[i]/p[i-1] - 1.
// The first cleaned date has no return and is dropped.
func FromPrices(p market.PriceSeries) (market.ReturnSeries, error) {
	if len(p.Dates) != len(p.Closes) {
		return market.ReturnSeries{}, errors.InvalidParameter("price series has %d dates for %d closes", len(p.Dates), len(p.Closes))
	}
	clean := CleanPrices(p)
	if clean.Len() < 2 {
		return market.ReturnSeries{}, errors.InsufficientData("need at least 2 valid prices, got %d", clean.Len())
	}

	n := clean.Len() - 1
	out := market.ReturnSeries{
		Dates:  make([]time.Time, 0, n),
		Values: make([]float64, 0, n),
	}
	for i := 1; i < clean.Len(); i++ {
		r := clean.Closes[i]/clean.Closes[i-1] - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out.Dates = append(out.Dates, clean.Dates[i])
		out.Values = append(out.Values, r)
	}
	return out, nil
}

// FromTable is SelectClose followed by FromPrices
func FromTable(t Table) (market.PriceSeries, market.ReturnSeries, error) {
	prices, err := SelectClose(t)
	if err != nil {
		return market.PriceSeries{}, market.ReturnSeries{}, err
	}
	returns, err := FromPrices(prices)
	if err != nil {
		return market.PriceSeries{}, market.ReturnSeries{}, err
	}
	return CleanPrices(prices), returns, nil
}
