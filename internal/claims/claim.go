// Package claims judges the four return claims. Each claim is an independent,
// stateless check over the same immutable input; the Validator runs them
// concurrently and assembles the summary in a fixed order.
package claims

import (
	"blackswans/domain/market"
	"blackswans/domain/verdict"
)

// Input is the shared, read-only data every claim evaluates
type Input struct {
	Prices  market.PriceSeries
	Returns market.ReturnSeries
}

// Claim is one empirical assertion with a decision rule
type Claim interface {
	ID() verdict.ClaimID
	Name() string
	// Weight is the relative compute cost used for throttling
	Weight() int64
	Evaluate(in Input) (verdict.ClaimVerdict, error)
}

// All returns the four claims in reporting order
func All(cfg Config) []Claim {
	return []Claim{
		FatTails{Config: cfg},
		OutsizedInfluence{Config: cfg},
		Clustering{Config: cfg},
		TrendFollowing{Config: cfg},
	}
}

func pvalue(p float64) *float64 {
	return &p
}
