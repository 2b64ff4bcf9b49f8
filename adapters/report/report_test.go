package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blackswans/domain/stats"
	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleSummary() *verdict.ValidationSummary {
	p1 := 0.001
	p3 := 0.2
	details := []verdict.ClaimVerdict{
		{
			ID: verdict.ClaimFatTails, Claim: "Market returns are fat-tailed", Status: verdict.StatusConfirmed, PValue: &p1,
			FatTails: &verdict.FatTailsEvidence{ExcessKurtosis: 5, Skewness: math.NaN(), Observations: 100},
		},
		{
			ID: verdict.ClaimOutsizedInfluence, Claim: "Extreme days have outsized influence on returns", Status: verdict.StatusConfirmed,
			Influence: &verdict.InfluenceEvidence{
				Scenarios: []verdict.InfluenceRow{
					{Days: 5, PctOfTotal: 5, CAGRAll: 0.07, CAGRMissBest: 0.05, ImpactMissBest: 0.02},
					{Days: 10, PctOfTotal: 10, CAGRAll: 0.07, CAGRMissBest: 0.03, ImpactMissBest: 0.04},
				},
				MainDays: 10,
			},
		},
		{
			ID: verdict.ClaimClustering, Claim: "Outliers cluster during bear markets", Status: verdict.StatusNotConfirmed, PValue: &p3,
			Clustering: &verdict.ClusteringEvidence{
				Sensitivity: []verdict.ClusteringRow{
					{Window: 200, Quantile: 0.99, OutliersDown: 3, OutliersUp: 1, TotalDown: 40, TotalUp: 60, PctOutliersInDowntrend: 75,
						ChiSquare: stats.StatTestResult{Statistic: 1.5, PValue: 0.2}, ZTest: stats.StatTestResult{Statistic: 1.1, PValue: 0.27}},
				},
			},
		},
		{
			ID: verdict.ClaimTrendFollowing, Claim: "Trend-following reduces worst volatility", Status: verdict.StatusConfirmed,
			TrendFollowing: &verdict.TrendFollowingEvidence{
				Backtests: []verdict.BacktestRow{{Window: 200, Days: 80, TimeInMarket: 0.6, StrategyMaxDrawdown: -0.1, BuyHoldMaxDrawdown: -0.3, StrategySharpe: math.NaN()}},
			},
		},
	}
	s := &verdict.ValidationSummary{
		RunID:       "run-1",
		Ticker:      "^TEST",
		Period:      "2020-01-02 to 2020-06-30",
		TradingDays: 100,
		Claims:      map[verdict.ClaimID]verdict.Status{},
		Details:     details,
	}
	for _, d := range details {
		s.Claims[d.ID] = d.Status
	}
	return s
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestWriteValidationTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	paths, err := WriteValidationTables(dir, sampleSummary())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "clustering_sensitivity.csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "backtest_results.csv"), paths[1])
	assert.Equal(t, filepath.Join(dir, "scenario_sensitivity.csv"), paths[2])

	lines := readLines(t, paths[0])
	require.Len(t, lines, 2)
	assert.Equal(t, "ma_window,quantile,outliers_down,outliers_up,total_down,total_up,pct_outliers_in_downtrend,chi2_statistic,chi2_p_value,z_statistic,z_p_value", lines[0])
	assert.Equal(t, "200,0.99,3,1,40,60,75,1.5,0.2,1.1,0.27", lines[1])

	lines = readLines(t, paths[1])
	require.Len(t, lines, 2)
	assert.Equal(t, "200,80,0.6,0,0,0,,-0.3,-0.1,0,0", lines[1])

	lines = readLines(t, paths[2])
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "10,10,0.07,0.03,"))
}

func TestValidationTables_MissingEvidenceGivesHeaderOnly(t *testing.T) {
	s := &verdict.ValidationSummary{}
	for _, tbl := range ValidationTables(s) {
		assert.NotEmpty(t, tbl.Headers)
		assert.Empty(t, tbl.Rows)
	}
}

func TestWriteSummaryJSON_NaNIsNull(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSummaryJSON(dir, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryFile), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Equal(t, "^TEST", doc["ticker"])
	assert.Equal(t, float64(100), doc["n_trading_days"])
	claims := doc["claims"].(map[string]any)
	assert.Equal(t, "CONFIRMED", claims["1_fat_tails"])
	assert.Equal(t, "NOT CONFIRMED", claims["3_clustering"])

	details := doc["details"].([]any)
	require.Len(t, details, 4)
	fat := details[0].(map[string]any)["fat_tails"].(map[string]any)
	assert.Nil(t, fat["skewness"])
	assert.Equal(t, float64(5), fat["excess_kurtosis"])
	assert.Nil(t, details[1].(map[string]any)["p_value"])
}

func TestWriteValidationWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation.xlsx")
	require.NoError(t, WriteValidationWorkbook(path, sampleSummary()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "clustering_sensitivity", "backtest_results", "scenario_sensitivity"}, f.GetSheetList())

	rows, err := f.GetRows("summary")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"claim_id", "claim", "verdict", "p_value"}, rows[0])
	assert.Equal(t, "1_fat_tails", rows[1][0])
	assert.Equal(t, "CONFIRMED", rows[1][2])
	// missing p-value stays blank
	if len(rows[2]) > 3 {
		assert.Empty(t, rows[2][3])
	}

	v, err := f.GetCellValue("clustering_sensitivity", "C2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestWriteWorkbook_NoTables(t *testing.T) {
	assert.Error(t, WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil))
}

func TestWriteAnalysisTables(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)
	r, err := analysis.Analyze(m.Prices, analysis.DefaultAnalysisParams())
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := WriteAnalysisTables(dir, r)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{"outlier_stats.csv", "return_scenarios.csv", "regime_performance.csv", "outlier_regime_counts.csv"}, names)

	assert.Len(t, readLines(t, paths[0]), 1+len(r.OutlierStats))
	scen := readLines(t, paths[1])
	assert.Len(t, scen, 1+len(r.Scenarios))
	assert.True(t, strings.HasPrefix(scen[1], "all,"))
	regimes := readLines(t, paths[2])
	require.Len(t, regimes, 3)
	assert.True(t, strings.HasPrefix(regimes[1], "downtrend,"))
	assert.Equal(t, "quantile,down,up", readLines(t, paths[3])[0])
}
