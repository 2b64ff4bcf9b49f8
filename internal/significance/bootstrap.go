package significance

import (
	"math/rand"

	"blackswans/domain/stats"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"

	mstats "github.com/montanaflynn/stats"
)

// Statistic maps a sample to a scalar
type Statistic func(values []float64) float64

// Bootstrap computes a percentile confidence interval for fn by resampling
// values with replacement. Draws come from a generator seeded with seed and
// consumed strictly in order, so equal inputs give bit-identical results.
func Bootstrap(values []float64, fn Statistic, resamples int, confidence float64, seed int64) (stats.BootstrapResult, error) {
	if resamples <= 0 {
		return stats.BootstrapResult{}, errors.InvalidParameter("resamples must be > 0, got %d", resamples)
	}
	if confidence <= 0 || confidence >= 1 {
		return stats.BootstrapResult{}, errors.InvalidParameter("confidence must be in (0,1), got %v", confidence)
	}
	if fn == nil {
		return stats.BootstrapResult{}, errors.InvalidParameter("statistic function is required")
	}
	n := len(values)
	if n == 0 {
		return stats.BootstrapResult{}, errors.InsufficientData("cannot bootstrap an empty sample")
	}

	rng := rand.New(rand.NewSource(seed))
	sample := make([]float64, n)
	boot := make([]float64, resamples)
	for i := range boot {
		for j := range sample {
			sample[j] = values[rng.Intn(n)]
		}
		boot[i] = fn(sample)
	}

	alpha := 1 - confidence
	stdErr, err := mstats.StandardDeviationPopulation(boot)
	if err != nil {
		return stats.BootstrapResult{}, errors.Wrap(err, "bootstrap standard error")
	}

	return stats.BootstrapResult{
		PointEstimate: fn(values),
		CILower:       analysis.Quantile(boot, alpha/2),
		CIUpper:       analysis.Quantile(boot, 1-alpha/2),
		Confidence:    confidence,
		Resamples:     resamples,
		StdError:      stdErr,
		Seed:          seed,
	}, nil
}
