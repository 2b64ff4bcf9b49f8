package significance

import (
	"math"

	gstat "gonum.org/v1/gonum/stat"
)

// centralMoments returns the biased second, third and fourth central moments
func centralMoments(values []float64) (m2, m3, m4 float64) {
	return gstat.Moment(2, values, nil), gstat.Moment(3, values, nil), gstat.Moment(4, values, nil)
}

// ExcessKurtosis is m4/m2^2 - 3 with biased moments, so a normal sample scores
// near zero and fat tails score positive. NaN for fewer than two values or no variance.
func ExcessKurtosis(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m2, _, m4 := centralMoments(values)
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

// Skewness is m3/m2^1.5 with biased moments
func Skewness(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m2, m3, _ := centralMoments(values)
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}
