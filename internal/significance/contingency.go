package significance

import (
	"fmt"
	"math"

	"blackswans/domain/stats"
)

const (
	testChiSquare     = "chi_square_regime_clustering"
	testTwoProportion = "two_proportion_z_test"
)

// ChiSquareClustering tests whether outliers are spread across regimes in
// proportion to the days spent in each. The 2x2 table is
//
//	[[outDown, outUp], [totDown-outDown, totUp-outUp]]
//
// and the statistic carries the Yates continuity correction (one degree of freedom).
func ChiSquareClustering(outDown, outUp, totDown, totUp int) stats.StatTestResult {
	observed := [2][2]float64{
		{float64(outDown), float64(outUp)},
		{float64(totDown - outDown), float64(totUp - outUp)},
	}
	rowSum := [2]float64{observed[0][0] + observed[0][1], observed[1][0] + observed[1][1]}
	colSum := [2]float64{observed[0][0] + observed[1][0], observed[0][1] + observed[1][1]}
	total := rowSum[0] + rowSum[1]

	degenerate := stats.StatTestResult{
		TestName:   testChiSquare,
		Statistic:  0,
		PValue:     1,
		Conclusion: "Cannot compute: zero expected frequency in contingency table",
	}
	if total <= 0 {
		return degenerate
	}

	chi2 := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowSum[i] * colSum[j] / total
			if expected <= 0 {
				return degenerate
			}
			diff := observed[i][j] - expected
			// move each observation up to 0.5 toward its expectation
			adj := math.Abs(diff) - math.Min(0.5, math.Abs(diff))
			chi2 += adj * adj / expected
		}
	}

	p := NewDistributions().ChiSquarePValue(chi2, 1)

	pctDown := 0.0
	if outliers := outDown + outUp; outliers > 0 {
		pctDown = float64(outDown) / float64(outliers) * 100
	}

	var conclusion string
	switch {
	case p < 0.001:
		conclusion = fmt.Sprintf("Highly significant clustering (p<0.001): %.1f%% of outliers in downtrends", pctDown)
	case p < 0.05:
		conclusion = fmt.Sprintf("Significant clustering (p=%.4f): %.1f%% of outliers in downtrends", p, pctDown)
	default:
		conclusion = fmt.Sprintf("No significant clustering (p=%.4f)", p)
	}

	return stats.StatTestResult{
		TestName:   testChiSquare,
		Statistic:  chi2,
		PValue:     p,
		Conclusion: conclusion,
	}
}

// TwoProportionZTest compares the outlier rate in downtrends with the rate in
// uptrends using the pooled-proportion standard error. A zero standard error,
// including an empty regime, yields z=0 and p=1.
func TwoProportionZTest(outDown, outUp, totDown, totUp int) stats.StatTestResult {
	if totDown <= 0 || totUp <= 0 {
		return zeroStandardError()
	}

	p1 := float64(outDown) / float64(totDown)
	p2 := float64(outUp) / float64(totUp)
	pooled := float64(outDown+outUp) / float64(totDown+totUp)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(totDown) + 1/float64(totUp)))
	if se == 0 || math.IsNaN(se) {
		return zeroStandardError()
	}

	z := (p1 - p2) / se
	p := NewDistributions().NormalTwoSidedPValue(z)

	ratio := math.Inf(1)
	if p2 > 0 {
		ratio = p1 / p2
	}
	return stats.StatTestResult{
		TestName:   testTwoProportion,
		Statistic:  z,
		PValue:     p,
		Conclusion: fmt.Sprintf("Outlier rate %.2fx higher in downtrends (p=%.4f, z=%.2f)", ratio, p, z),
	}
}

func zeroStandardError() stats.StatTestResult {
	return stats.StatTestResult{
		TestName:   testTwoProportion,
		Statistic:  0,
		PValue:     1,
		Conclusion: "Cannot compute: zero standard error",
	}
}
