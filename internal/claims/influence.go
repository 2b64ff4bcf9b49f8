package claims

import (
	"math"

	"blackswans/domain/market"
	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"
	"blackswans/internal/significance"
)

// OutsizedInfluence checks that a handful of days drive long-run growth:
// confirmed iff missing the InfluenceMainN best days moves CAGR by more than
// InfluenceThreshold.
type OutsizedInfluence struct {
	Config Config
}

func (OutsizedInfluence) ID() verdict.ClaimID { return verdict.ClaimOutsizedInfluence }
func (OutsizedInfluence) Name() string        { return "Extreme days have outsized influence on returns" }
func (OutsizedInfluence) Weight() int64       { return 4 }

func (c OutsizedInfluence) Evaluate(in Input) (verdict.ClaimVerdict, error) {
	n := in.Returns.Len()
	if n == 0 {
		return verdict.ClaimVerdict{}, errors.InsufficientData("influence check needs returns")
	}
	full := analysis.AnnualizedReturn(in.Returns.Values)

	rows := make([]verdict.InfluenceRow, 0, len(c.Config.InfluenceDayCounts))
	main := -1
	for _, days := range c.Config.InfluenceDayCounts {
		set, err := analysis.Scenarios(in.Returns, days, days)
		if err != nil {
			return verdict.ClaimVerdict{}, err
		}
		missBest := analysis.AnnualizedReturn(set.MissBest.Values)
		missWorst := analysis.AnnualizedReturn(set.MissWorst.Values)
		if days == c.Config.InfluenceMainN {
			main = len(rows)
		}
		rows = append(rows, verdict.InfluenceRow{
			Days:            days,
			PctOfTotal:      float64(days) / float64(n) * 100,
			CAGRAll:         full,
			CAGRMissBest:    missBest,
			CAGRMissWorst:   missWorst,
			CAGRMissBoth:    analysis.AnnualizedReturn(set.MissBoth.Values),
			ImpactMissBest:  full - missBest,
			ImpactMissWorst: missWorst - full,
		})
	}
	if main < 0 {
		return verdict.ClaimVerdict{}, errors.InvalidParameter("no scenario row for %d days", c.Config.InfluenceMainN)
	}

	ci, err := significance.Bootstrap(
		in.Returns.Values,
		missBestImpact(c.Config.InfluenceMainN),
		c.Config.BootstrapResamples,
		c.Config.Confidence,
		c.Config.Seed,
	)
	if err != nil {
		return verdict.ClaimVerdict{}, errors.Wrap(err, "bootstrap of best-day impact")
	}

	confirmed := math.Abs(rows[main].ImpactMissBest) > c.Config.InfluenceThreshold

	return verdict.ClaimVerdict{
		ID:     c.ID(),
		Claim:  c.Name(),
		Status: verdict.StatusOf(confirmed),
		Influence: &verdict.InfluenceEvidence{
			Scenarios: rows,
			MainDays:  c.Config.InfluenceMainN,
			Threshold: c.Config.InfluenceThreshold,
			Bootstrap: ci,
		},
	}, nil
}

// missBestImpact is the CAGR lost by sitting out the days best days of a sample
func missBestImpact(days int) significance.Statistic {
	return func(sample []float64) float64 {
		set, err := analysis.Scenarios(market.ReturnSeries{Values: sample}, days, days)
		if err != nil {
			return math.NaN()
		}
		return analysis.AnnualizedReturn(sample) - analysis.AnnualizedReturn(set.MissBest.Values)
	}
}
