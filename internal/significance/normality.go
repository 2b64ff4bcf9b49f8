package significance

import (
	"fmt"
	"math"
	"sort"

	"blackswans/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	gstat "gonum.org/v1/gonum/stat"
)

const (
	normalityAlpha = 0.05

	// Shapiro-Wilk is only run inside this sample-size range
	shapiroMinN = 3
	shapiroMaxN = 5000

	// above this size the KS p-value switches to the asymptotic form
	ksExactMaxN = 1000
)

// NormalityTests runs Kolmogorov-Smirnov against a normal fitted to the
// sample's mean and population standard deviation, Jarque-Bera, and
// Shapiro-Wilk when the sample size is within [3, 5000].
func NormalityTests(values []float64) stats.NormalityResult {
	res := stats.NormalityResult{
		KolmogorovSmirnov: KolmogorovSmirnov(values),
		JarqueBera:        JarqueBera(values),
		SampleSize:        len(values),
	}
	if n := len(values); n >= shapiroMinN && n <= shapiroMaxN {
		sw := ShapiroWilk(values)
		res.ShapiroWilk = &sw
	}
	return res
}

func normalityConclusion(p float64, label string, stat float64, format string) string {
	verb := "Fail to reject"
	if p < normalityAlpha {
		verb = "Reject"
	}
	return fmt.Sprintf("%s normality (%s stat="+format+")", verb, label, stat)
}

func undefinedNormality(name string) stats.StatTestResult {
	return stats.StatTestResult{
		TestName:   name,
		Statistic:  math.NaN(),
		PValue:     math.NaN(),
		Conclusion: "Cannot compute: too few observations or zero variance",
	}
}

// KolmogorovSmirnov is the one-sample two-sided KS test against N(mean, popstd)
func KolmogorovSmirnov(values []float64) stats.StatTestResult {
	const name = "kolmogorov_smirnov"
	n := len(values)
	if n < 2 {
		return undefinedNormality(name)
	}
	mu := gstat.Mean(values, nil)
	sigma, err := mstats.StandardDeviationPopulation(values)
	if err != nil || sigma == 0 || math.IsNaN(sigma) {
		return undefinedNormality(name)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	dist := NewDistributions()
	nf := float64(n)
	d := 0.0
	for i, x := range sorted {
		cdf := dist.FittedNormalCDF(x, mu, sigma)
		d = math.Max(d, math.Max(float64(i+1)/nf-cdf, cdf-float64(i)/nf))
	}

	var p float64
	if n <= ksExactMaxN {
		p = clampProbability(1 - kolmogorovCDF(n, d))
	} else {
		// Stephens' small-sample correction to the limiting distribution
		en := math.Sqrt(nf)
		p = dist.KolmogorovSurvival((en + 0.12 + 0.11/en) * d)
	}

	return stats.StatTestResult{
		TestName:   name,
		Statistic:  d,
		PValue:     p,
		Conclusion: normalityConclusion(p, "KS", d, "%.4f"),
	}
}

// kolmogorovCDF is P(D_n < d) by the Marsaglia-Tsang-Wang matrix method,
// with their closed-form shortcut in the far upper tail.
func kolmogorovCDF(n int, d float64) float64 {
	if d <= 0 {
		return 0
	}
	if d >= 1 {
		return 1
	}
	nf := float64(n)
	s := d * d * nf
	if s > 7.24 || (s > 3.76 && n > 99) {
		return 1 - 2*math.Exp(-(2.000071+0.331/math.Sqrt(nf)+1.409/nf)*s)
	}

	k := int(nf*d) + 1
	m := 2*k - 1
	h := float64(k) - nf*d

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 >= 0 {
				H.Set(i, j, 1)
			}
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 > 0 {
				v := H.At(i, j)
				for g := 2; g <= i-j+1; g++ {
					v /= float64(g)
				}
				H.Set(i, j, v)
			}
		}
	}

	Q, eQ := matrixPower(H, 0, n)
	v := Q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		v = v * float64(i) / nf
		if v < 1e-140 {
			v *= 1e140
			eQ -= 140
		}
	}
	return clampProbability(v * math.Pow(10, float64(eQ)))
}

// matrixPower raises A (scaled by 10^eA) to the n-th power by repeated
// squaring, rescaling by 1e-140 whenever the centre element overflows.
func matrixPower(A *mat.Dense, eA, n int) (*mat.Dense, int) {
	m, _ := A.Dims()
	if n == 1 {
		return mat.DenseCopyOf(A), eA
	}
	V, eV := matrixPower(A, eA, n/2)
	var B mat.Dense
	B.Mul(V, V)
	eB := 2 * eV

	out := mat.NewDense(m, m, nil)
	var e int
	if n%2 == 0 {
		out.Copy(&B)
		e = eB
	} else {
		out.Mul(A, &B)
		e = eA + eB
	}
	if out.At(m/2, m/2) > 1e140 {
		out.Scale(1e-140, out)
		e += 140
	}
	return out, e
}

// JarqueBera tests skewness and excess kurtosis jointly against zero;
// the statistic n/6*(S^2 + K^2/4) is chi-square with two degrees of freedom.
func JarqueBera(values []float64) stats.StatTestResult {
	const name = "jarque_bera"
	n := len(values)
	skew := Skewness(values)
	kurt := ExcessKurtosis(values)
	if n < 2 || math.IsNaN(skew) || math.IsNaN(kurt) {
		return undefinedNormality(name)
	}

	jb := float64(n) / 6 * (skew*skew + kurt*kurt/4)
	p := NewDistributions().ChiSquarePValue(jb, 2)

	return stats.StatTestResult{
		TestName:   name,
		Statistic:  jb,
		PValue:     p,
		Conclusion: normalityConclusion(p, "JB", jb, "%.1f"),
	}
}

// Shapiro-Wilk coefficients from Royston (1995), algorithm AS R94
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	out := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		out = out*x + c[i]
	}
	return out
}

// ShapiroWilk computes the W statistic and its p-value (Royston 1995).
// Defined for 3 <= n <= 5000 and a non-zero range.
func ShapiroWilk(values []float64) stats.StatTestResult {
	const name = "shapiro_wilk"
	n := len(values)
	if n < shapiroMinN || n > shapiroMaxN {
		return undefinedNormality(name)
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	if x[n-1]-x[0] < 1e-19 {
		return undefinedNormality(name)
	}

	dist := NewDistributions()
	nn2 := n / 2
	a := make([]float64, nn2+1) // 1-based

	an := float64(n)
	if n == 3 {
		a[1] = math.Sqrt(0.5)
	} else {
		an25 := an + 0.25
		m := make([]float64, nn2+1)
		summ2 := 0.0
		for i := 1; i <= nn2; i++ {
			m[i] = dist.NormalQuantile((float64(i) - 0.375) / an25)
			summ2 += m[i] * m[i]
		}
		summ2 *= 2
		ssumm2 := math.Sqrt(summ2)
		rsn := 1 / math.Sqrt(an)
		a1 := poly(swC1, rsn) - m[1]/ssumm2

		i1 := 2
		var fac float64
		if n > 5 {
			i1 = 3
			a2 := -m[2]/ssumm2 + poly(swC2, rsn)
			fac = math.Sqrt((summ2 - 2*m[1]*m[1] - 2*m[2]*m[2]) / (1 - 2*a1*a1 - 2*a2*a2))
			a[2] = a2
		} else {
			fac = math.Sqrt((summ2 - 2*m[1]*m[1]) / (1 - 2*a1*a1))
		}
		a[1] = a1
		for i := i1; i <= nn2; i++ {
			a[i] = -m[i] / fac
		}
	}

	mean := gstat.Mean(x, nil)
	ssq := 0.0
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}
	num := 0.0
	for i := 1; i <= nn2; i++ {
		num += a[i] * (x[n-i] - x[i-1])
	}
	w := math.Min(num*num/ssq, 1)

	var p float64
	switch {
	case n == 3:
		const pi6 = 6 / math.Pi
		const stqr = math.Pi / 3
		p = math.Max(pi6*(math.Asin(math.Sqrt(w))-stqr), 0)
	case n <= 11:
		y := math.Log(1 - w)
		gamma := poly(swG, an)
		if y >= gamma {
			p = 1e-99
			break
		}
		y = -math.Log(gamma - y)
		mu := poly(swC3, an)
		s := math.Exp(poly(swC4, an))
		p = dist.NormalUpperTail((y - mu) / s)
	default:
		y := math.Log(1 - w)
		xx := math.Log(an)
		mu := poly(swC5, xx)
		s := math.Exp(poly(swC6, xx))
		p = dist.NormalUpperTail((y - mu) / s)
	}
	p = clampProbability(p)

	return stats.StatTestResult{
		TestName:   name,
		Statistic:  w,
		PValue:     p,
		Conclusion: normalityConclusion(p, "SW", w, "%.4f"),
	}
}
