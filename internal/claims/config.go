package claims

import (
	"slices"

	"blackswans/internal/analysis"
	"blackswans/internal/errors"
)

// Config holds the decision thresholds and sweeps of the four claims.
// The defaults reproduce the reference study; every cut-off is adjustable.
type Config struct {
	Alpha float64

	InfluenceDayCounts []int
	InfluenceMainN     int
	InfluenceThreshold float64
	BootstrapResamples int
	Confidence         float64
	Seed               int64

	Windows          []int
	ClusterQuantiles []float64
	MainWindow       int
	MainQuantile     float64

	// MaxWeight caps the summed compute weight of claims running at once
	MaxWeight int64
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		Alpha:              0.05,
		InfluenceDayCounts: []int{5, 10, 20, 50},
		InfluenceMainN:     10,
		InfluenceThreshold: 0.005,
		BootstrapResamples: 1000,
		Confidence:         0.95,
		Seed:               42,
		Windows:            []int{50, 100, 200, 300},
		ClusterQuantiles:   []float64{0.95, 0.99, 0.999},
		MainWindow:         200,
		MainQuantile:       0.99,
		MaxWeight:          8,
	}
}

// Validate checks that the configuration is internally consistent
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return errors.InvalidParameter("alpha must be in (0,1), got %v", c.Alpha)
	}
	for _, n := range c.InfluenceDayCounts {
		if n < 0 {
			return errors.InvalidParameter("influence day counts must be >= 0, got %d", n)
		}
	}
	if !slices.Contains(c.InfluenceDayCounts, c.InfluenceMainN) {
		return errors.InvalidParameter("main influence count %d is not among %v", c.InfluenceMainN, c.InfluenceDayCounts)
	}
	if c.BootstrapResamples <= 0 {
		return errors.InvalidParameter("bootstrap resamples must be > 0, got %d", c.BootstrapResamples)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return errors.InvalidParameter("confidence must be in (0,1), got %v", c.Confidence)
	}
	for _, w := range c.Windows {
		if w < 1 {
			return errors.InvalidParameter("window must be >= 1, got %d", w)
		}
	}
	for _, q := range c.ClusterQuantiles {
		if err := analysis.ValidateQuantile(q); err != nil {
			return err
		}
	}
	if !slices.Contains(c.Windows, c.MainWindow) {
		return errors.InvalidParameter("main window %d is not among %v", c.MainWindow, c.Windows)
	}
	if !slices.Contains(c.ClusterQuantiles, c.MainQuantile) {
		return errors.InvalidParameter("main quantile %v is not among %v", c.MainQuantile, c.ClusterQuantiles)
	}
	if c.MaxWeight < 1 {
		return errors.InvalidParameter("max weight must be >= 1, got %d", c.MaxWeight)
	}
	return nil
}
