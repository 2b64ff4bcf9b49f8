package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// Quantile returns the p-quantile of values by linear interpolation between
// order statistics (position h = (n-1)p, the common "type 7" definition).
// Values are not modified. Empty input gives NaN.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, p)
}

// QuantileSorted is Quantile for input already in ascending order
func QuantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Summary is the location/spread triple reported for every subset of returns.
// All fields are NaN for an empty subset.
type Summary struct {
	Mean   float64
	Median float64
	Std    float64 // population (ddof=0)
}

// Summarize computes mean, median and population standard deviation
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{Mean: math.NaN(), Median: math.NaN(), Std: math.NaN()}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		mean = math.NaN()
	}
	median, err := stats.Median(values)
	if err != nil {
		median = math.NaN()
	}
	std, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		std = math.NaN()
	}
	return Summary{Mean: mean, Median: median, Std: std}
}

// minOrNaN and maxOrNaN guard floats.Min/Max, which panic on empty input
func minOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return floats.Min(values)
}

func maxOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return floats.Max(values)
}
