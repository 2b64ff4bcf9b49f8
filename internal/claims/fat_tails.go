package claims

import (
	"math"

	"blackswans/domain/verdict"
	"blackswans/internal/errors"
	"blackswans/internal/significance"

	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"
)

// FatTails checks that daily returns are heavier-tailed than a normal:
// confirmed iff excess kurtosis > 0 and Jarque-Bera rejects normality.
type FatTails struct {
	Config Config
}

func (FatTails) ID() verdict.ClaimID { return verdict.ClaimFatTails }
func (FatTails) Name() string        { return "Market returns are fat-tailed" }
func (FatTails) Weight() int64       { return 1 }

func (c FatTails) Evaluate(in Input) (verdict.ClaimVerdict, error) {
	values := in.Returns.Values
	if len(values) < 2 {
		return verdict.ClaimVerdict{}, errors.InsufficientData("fat-tail check needs at least 2 returns, got %d", len(values))
	}

	normality := significance.NormalityTests(values)
	kurt := significance.ExcessKurtosis(values)
	skew := significance.Skewness(values)

	// extremes in units of the sample standard deviation (ddof=1)
	mu, sigma := gstat.MeanStdDev(values, nil)
	maxSigma, minSigma := math.NaN(), math.NaN()
	if sigma > 0 {
		maxSigma = (floats.Max(values) - mu) / sigma
		minSigma = (floats.Min(values) - mu) / sigma
	}

	jb := normality.JarqueBera
	confirmed := kurt > 0 && jb.PValue < c.Config.Alpha

	return verdict.ClaimVerdict{
		ID:     c.ID(),
		Claim:  c.Name(),
		Status: verdict.StatusOf(confirmed),
		PValue: pvalue(jb.PValue),
		FatTails: &verdict.FatTailsEvidence{
			Normality:      normality,
			ExcessKurtosis: kurt,
			Skewness:       skew,
			MaxReturnSigma: maxSigma,
			MinReturnSigma: minSigma,
			Observations:   len(values),
		},
	}, nil
}
