package pricefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"blackswans/internal/errors"
	"blackswans/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2010-03-04", " 2010-03-04 ", "2010-03-04 16:00:00", "2010-03-04T16:00:00Z"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, day("2010-03-04"), got, s)
	}
	_, err := ParseDate("03/04/2010")
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}

func TestLoad_CSVSortsDedupesAndFilters(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "idx.csv", `Date,Open,Close
2020-01-06,1,103
2020-01-02,1,100
2020-01-03,1,101
2020-01-03,1,101.5
not-a-date,1,999
2020-01-07,1,n/a
2020-01-08,1,"1,050.25"
`)

	p, err := Load(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("2020-01-02"), day("2020-01-03"), day("2020-01-06"), day("2020-01-08")}, p.Dates)
	assert.Equal(t, []float64{100, 101.5, 103, 1050.25}, p.Closes)

	p, err = Load(path, day("2020-01-03"), day("2020-01-06"))
	require.NoError(t, err)
	assert.Equal(t, []float64{101.5, 103}, p.Closes)
}

func TestLoad_AdjCloseFallbackAndFirstColumnDates(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "adj.csv", "Day,Adj Close\n2021-05-03,10\n2021-05-04,11\n")

	p, err := Load(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, p.Closes)
	assert.Equal(t, day("2021-05-03"), p.Dates[0])
}

func TestLoad_XLSXMatchesCSV(t *testing.T) {
	dir := t.TempDir()
	m, err := testkit.GenerateMarket(testkit.MarketConfig{
		Days: 30, Seed: 3, StartDate: day("2001-01-01"), StartPrice: 50,
		CalmDrift: 0.001, CalmVol: 0.01, StressDrift: -0.001, StressVol: 0.02,
		SwitchToBear: 0.1, SwitchToBull: 0.1,
	})
	require.NoError(t, err)

	csvPath := filepath.Join(dir, "m.csv")
	xlsxPath := filepath.Join(dir, "m.xlsx")
	require.NoError(t, testkit.WriteCSV(csvPath, m.Prices))
	require.NoError(t, testkit.WriteXLSX(xlsxPath, m.Prices))

	fromCSV, err := Load(csvPath, time.Time{}, time.Time{})
	require.NoError(t, err)
	fromXLSX, err := Load(xlsxPath, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, m.Prices.Dates, fromCSV.Dates)
	assert.Equal(t, fromCSV.Dates, fromXLSX.Dates)
	require.Len(t, fromXLSX.Closes, 30)
	for i := range fromCSV.Closes {
		assert.InDelta(t, m.Prices.Closes[i], fromXLSX.Closes[i], 1e-6)
		assert.InDelta(t, m.Prices.Closes[i], fromCSV.Closes[i], 1e-4)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.csv"), time.Time{}, time.Time{})
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = Load(write(t, dir, "p.txt", "x"), time.Time{}, time.Time{})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = Load(write(t, dir, "h.csv", "Date,Close\n"), time.Time{}, time.Time{})
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientData))

	_, err = Load(write(t, dir, "two.csv", "Date,Open,High\n2020-01-02,1,2\n"), time.Time{}, time.Time{})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}

func TestCatalog_ResolveAndAvailable(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "_GSPC_1928-09-01_to_2010-12-31.csv", "Date,Close\n2010-01-04,1\n")

	c := NewCatalog(dir, nil)
	assert.Len(t, c.Codes(), 12)

	e, err := c.Resolve("sp500")
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", e.Symbol)
	assert.Equal(t, "1928-09-01", e.StartDate)
	assert.Equal(t, "2010-12-31", e.EndDate)
	assert.Equal(t, filepath.Join(dir, "_GSPC_1928-09-01_to_2010-12-31.csv"), e.DataFile)

	_, err = c.Resolve("nikkei")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	_, err = c.Resolve("moon")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "sp500")

	avail := c.Available()
	require.Len(t, avail, 1)
	assert.Equal(t, "sp500", avail[0].Code)
}

func TestCatalog_RejectsEscape(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(dir, []Ticker{{Code: "evil", Symbol: "X", File: "../outside.csv"}})
	_, err := c.Resolve("evil")
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	file := write(t, dir, "tickers.yaml", `tickers:
  - code: demo
    symbol: DEMO
    file: DEMO_2000-01-01_to_2001-01-01.csv
`)
	write(t, dir, "DEMO_2000-01-01_to_2001-01-01.csv", "Date,Close\n2000-01-03,1\n")

	c, err := LoadCatalog(dir, file)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, c.Codes())
	e, err := c.Resolve("demo")
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", e.StartDate)

	bad := write(t, dir, "bad.yaml", "tickers:\n  - code: x\n")
	_, err = LoadCatalog(dir, bad)
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))

	def, err := LoadCatalog(dir, "")
	require.NoError(t, err)
	assert.Len(t, def.Codes(), 12)
}

func TestRangeFromName(t *testing.T) {
	s, e := rangeFromName("EEM_1988-01-01_to_2010-12-31.csv")
	assert.Equal(t, "1988-01-01", s)
	assert.Equal(t, "2010-12-31", e)
	s, e = rangeFromName("prices.csv")
	assert.Empty(t, s)
	assert.Empty(t, e)
}

func TestSanitizeTicker(t *testing.T) {
	assert.Equal(t, "^GSPC", SanitizeTicker("^GSPC"))
	assert.Equal(t, "BRK-B", SanitizeTicker("BRK-B"))
	assert.Equal(t, "___etc_passwd", SanitizeTicker("../etc/passwd"))
	assert.Equal(t, "a_b", SanitizeTicker("a b"))
	assert.Equal(t, "_GSPC_2000-01-01_to_2001-01-01.csv", CacheFileName("^GSPC", "2000-01-01", "2001-01-01"))
}
