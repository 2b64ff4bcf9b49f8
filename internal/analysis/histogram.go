package analysis

import (
	"math"
	"sort"

	"blackswans/domain/stats"

	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"
)

// Histogram bins daily returns, expressed in percent, into equal-width bins
// spanning the sample range. Each bin also carries the count a normal with the
// sample mean and standard deviation (ddof=1) would put there.
func Histogram(returns []float64, bins int) []stats.HistogramBin {
	if len(returns) == 0 || bins < 1 {
		return nil
	}

	pct := make([]float64, len(returns))
	for i, r := range returns {
		pct[i] = r * 100
	}
	sort.Float64s(pct)

	lo, hi := pct[0], pct[len(pct)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	width := edges[1] - edges[0]

	// the top edge is inclusive
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := gstat.Histogram(nil, dividers, pct, nil)

	mu := gstat.Mean(pct, nil)
	sigma := 0.0
	if len(pct) > 1 {
		sigma = gstat.StdDev(pct, nil)
	}
	n := float64(len(pct))

	out := make([]stats.HistogramBin, bins)
	for i := range out {
		center := (edges[i] + edges[i+1]) / 2
		expected := 0.0
		if sigma > 0 {
			z := (center - mu) / sigma
			expected = n * width * math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
		}
		out[i] = stats.HistogramBin{
			BinCenter:      center,
			Count:          int(counts[i]),
			NormalExpected: expected,
		}
	}
	return out
}
