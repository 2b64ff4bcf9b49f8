// Package pricefile reads daily price files (.csv or .xlsx) into price series
// and maps ticker codes to the files of a data directory.
package pricefile

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"blackswans/domain/market"
	"blackswans/internal/errors"
	"blackswans/internal/series"

	"github.com/xuri/excelize/v2"
)

// header names recognised as the date column; otherwise column 0 is used
var dateColumns = []string{"Date", "date", "DATE"}

var dateLayouts = []string{
	market.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts ISO dates with optional time part and returns midnight UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.InvalidParameter("invalid date %q, expected YYYY-MM-DD", s)
}

// Load reads path and returns its close series restricted to [start, end].
// A zero start or end leaves that side open.
func Load(path string, start, end time.Time) (market.PriceSeries, error) {
	table, err := ReadTable(path)
	if err != nil {
		return market.PriceSeries{}, err
	}
	prices, err := series.SelectClose(table)
	if err != nil {
		return market.PriceSeries{}, errors.Wrapf(err, "select close column of %s", filepath.Base(path))
	}
	return Between(prices, start, end), nil
}

// Between keeps observations with start <= date <= end
func Between(p market.PriceSeries, start, end time.Time) market.PriceSeries {
	out := market.PriceSeries{
		Dates:  make([]time.Time, 0, p.Len()),
		Closes: make([]float64, 0, p.Len()),
	}
	for i, d := range p.Dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Closes = append(out.Closes, p.Closes[i])
	}
	return out
}

// ReadTable loads every column of a price file keyed by header. Rows are
// sorted by date; for repeated dates the last row wins. Rows whose date
// does not parse are skipped.
func ReadTable(path string) (series.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return series.Table{}, errors.NotFound("price file " + filepath.Base(path))
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return series.Table{}, errors.InvalidInput("unsupported price file type: " + filepath.Ext(path))
	}
	if err != nil {
		return series.Table{}, err
	}
	if len(rows) < 2 {
		return series.Table{}, errors.InsufficientData("%s must have a header row and at least one data row", filepath.Base(path))
	}
	return buildTable(rows), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read CSV file"))
	}
	return rows, nil
}

// readXLSX reads the first sheet of a workbook
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open Excel file"))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read %s", sheets[0]))
	}
	return rows, nil
}

type record struct {
	date  time.Time
	cells []string
}

func buildTable(rows [][]string) series.Table {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	dateCol := 0
	for _, name := range dateColumns {
		if i := indexOf(header, name); i >= 0 {
			dateCol = i
			break
		}
	}

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if dateCol >= len(row) {
			continue
		}
		d, err := ParseDate(row[dateCol])
		if err != nil {
			continue
		}
		records = append(records, record{date: d, cells: row})
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].date.Before(records[b].date) })

	// collapse runs of equal dates onto their last row
	deduped := records[:0]
	for i, rec := range records {
		if i+1 < len(records) && records[i+1].date.Equal(rec.date) {
			continue
		}
		deduped = append(deduped, rec)
	}

	table := series.Table{
		Dates:   make([]time.Time, len(deduped)),
		Columns: make(map[string][]string, len(header)),
	}
	for j, name := range header {
		if j == dateCol || name == "" {
			continue
		}
		table.Columns[name] = make([]string, len(deduped))
	}
	for i, rec := range deduped {
		table.Dates[i] = rec.date
		for j, name := range header {
			col, ok := table.Columns[name]
			if !ok || j == dateCol {
				continue
			}
			if j < len(rec.cells) {
				col[i] = strings.TrimSpace(rec.cells[j])
			}
		}
	}
	return table
}

func indexOf(items []string, want string) int {
	for i, s := range items {
		if s == want {
			return i
		}
	}
	return -1
}
