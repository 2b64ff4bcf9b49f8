package claims

import (
	"context"
	"time"

	"blackswans/domain/market"
	"blackswans/domain/verdict"
	"blackswans/internal/errors"
	"blackswans/internal/series"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Validator evaluates every claim over one price series
type Validator struct {
	cfg    Config
	claims []Claim
	sem    *semaphore.Weighted
	logger zerolog.Logger
}

// Option customises a Validator
type Option func(*Validator)

// WithLogger routes per-claim progress lines to l
func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithClaims replaces the default claim set
func WithClaims(cs ...Claim) Option {
	return func(v *Validator) { v.claims = cs }
}

// NewValidator creates a validator; claims share a weighted semaphore sized
// by cfg.MaxWeight so heavy checks don't all run at once.
func NewValidator(cfg Config, opts ...Option) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &Validator{
		cfg:    cfg,
		claims: All(cfg),
		sem:    semaphore.NewWeighted(cfg.MaxWeight),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Config returns the thresholds in use
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate builds returns once and runs all claims concurrently. Verdicts
// come back in claim order regardless of completion order; the first claim
// error cancels the rest.
func (v *Validator) Validate(ctx context.Context, ticker string, prices market.PriceSeries) (*verdict.ValidationSummary, error) {
	returns, err := series.FromPrices(prices)
	if err != nil {
		return nil, err
	}
	in := Input{Prices: series.CleanPrices(prices), Returns: returns}

	runID := uuid.NewString()
	log := v.logger.With().Str("run_id", runID).Str("ticker", ticker).Logger()
	log.Info().Int("n_trading_days", returns.Len()).Int("claims", len(v.claims)).Msg("validation started")
	start := time.Now()

	results := make([]verdict.ClaimVerdict, len(v.claims))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range v.claims {
		g.Go(func() error {
			weight := min(c.Weight(), v.cfg.MaxWeight)
			if err := v.sem.Acquire(gctx, weight); err != nil {
				return errors.Wrapf(err, "claim %s not started", c.ID())
			}
			defer v.sem.Release(weight)

			began := time.Now()
			res, err := c.Evaluate(in)
			if err != nil {
				log.Error().Err(err).Str("claim", string(c.ID())).Msg("claim failed")
				return errors.Wrapf(err, "claim %s", c.ID())
			}
			log.Info().
				Str("claim", string(c.ID())).
				Str("verdict", string(res.Status)).
				Dur("took", time.Since(began)).
				Msg("claim evaluated")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &verdict.ValidationSummary{
		RunID:       runID,
		Ticker:      ticker,
		Period:      returns.Period(),
		TradingDays: returns.Len(),
		Claims:      make(map[verdict.ClaimID]verdict.Status, len(results)),
		Details:     results,
	}
	for _, r := range results {
		summary.Claims[r.ID] = r.Status
	}

	log.Info().
		Int("confirmed", summary.ConfirmedCount()).
		Dur("took", time.Since(start)).
		Msg("validation finished")
	return summary, nil
}
