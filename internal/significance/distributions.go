// Package significance implements the hypothesis tests and performance
// measures used to judge the return claims: contingency tests, normality
// tests, moments, bootstrap intervals, drawdown, Sharpe and the trend backtest.
package significance

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the reference distributions behind every p-value
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// ChiSquarePValue is the upper-tail probability of a chi-square statistic
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return chiDist.Survival(chiSquare)
}

// NormalTwoSidedPValue is P(|Z| >= |z|) for a standard normal Z
func (d *Distributions) NormalTwoSidedPValue(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

// NormalQuantile computes the inverse CDF of the standard normal
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormalUpperTail is P(Z > x) for a standard normal Z
func (d *Distributions) NormalUpperTail(x float64) float64 {
	return distuv.UnitNormal.Survival(x)
}

// FittedNormalCDF evaluates the CDF of N(mu, sigma^2) at x
func (d *Distributions) FittedNormalCDF(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
}

// KolmogorovSurvival is the asymptotic Kolmogorov upper tail P(K > lambda).
// Small lambda uses the Jacobi-theta form of the CDF, which converges quickly there.
func (d *Distributions) KolmogorovSurvival(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	if lambda < 1.18 {
		cdf := 0.0
		w := math.Pi * math.Pi / (8 * lambda * lambda)
		for k := 1; k <= 20; k += 2 {
			cdf += math.Exp(-float64(k*k) * w)
		}
		cdf *= math.Sqrt(2*math.Pi) / lambda
		return clampProbability(1 - cdf)
	}
	sf := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * lambda * lambda)
		sf += sign * term
		if term < 1e-16 {
			break
		}
		sign = -sign
	}
	return clampProbability(2 * sf)
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
