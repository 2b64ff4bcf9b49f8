package claims

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blackswans/domain/verdict"
	"blackswans/internal/errors"
	"blackswans/internal/testkit"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaim struct {
	id      verdict.ClaimID
	weight  int64
	delay   time.Duration
	err     error
	running *atomic.Int64
	peak    *atomic.Int64
}

func (s stubClaim) ID() verdict.ClaimID { return s.id }
func (s stubClaim) Name() string        { return "stub " + string(s.id) }
func (s stubClaim) Weight() int64       { return s.weight }

func (s stubClaim) Evaluate(Input) (verdict.ClaimVerdict, error) {
	if s.running != nil {
		now := s.running.Add(s.weight)
		for {
			p := s.peak.Load()
			if now <= p || s.peak.CompareAndSwap(p, now) {
				break
			}
		}
		defer s.running.Add(-s.weight)
	}
	time.Sleep(s.delay)
	if s.err != nil {
		return verdict.ClaimVerdict{}, s.err
	}
	return verdict.ClaimVerdict{ID: s.id, Claim: s.Name(), Status: verdict.StatusConfirmed}, nil
}

func TestNewValidator_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 0
	_, err := NewValidator(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}

func TestValidate_GeneratedMarket(t *testing.T) {
	m, err := testkit.GenerateMarket(testkit.DefaultMarketConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	v, err := NewValidator(fastConfig(), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)

	summary, err := v.Validate(context.Background(), "TEST", m.Prices)
	require.NoError(t, err)

	assert.Equal(t, "TEST", summary.Ticker)
	assert.Equal(t, m.Prices.Len()-1, summary.TradingDays)
	assert.Equal(t, "1990-01-02 to "+m.Prices.Dates[len(m.Prices.Dates)-1].Format("2006-01-02"), summary.Period)
	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err)

	require.Len(t, summary.Details, 4)
	require.Len(t, summary.Claims, 4)
	for i, d := range summary.Details {
		assert.Equal(t, verdict.ClaimOrder[i], d.ID)
		assert.Equal(t, d.Status, summary.Claims[d.ID])
	}
	fat, ok := summary.Verdict(verdict.ClaimFatTails)
	require.True(t, ok)
	assert.True(t, fat.Confirmed())

	logs := buf.String()
	assert.Equal(t, 4, strings.Count(logs, `"message":"claim evaluated"`))
	assert.Contains(t, logs, `"run_id":"`+summary.RunID+`"`)
	assert.Contains(t, logs, `"message":"validation finished"`)
}

func TestValidate_KeepsOrderWhenClaimsFinishOutOfOrder(t *testing.T) {
	ids := []verdict.ClaimID{"a", "b", "c"}
	v, err := NewValidator(DefaultConfig(), WithClaims(
		stubClaim{id: ids[0], weight: 1, delay: 30 * time.Millisecond},
		stubClaim{id: ids[1], weight: 1, delay: 10 * time.Millisecond},
		stubClaim{id: ids[2], weight: 1},
	))
	require.NoError(t, err)

	summary, err := v.Validate(context.Background(), "X", testkit.Linear(100, 110, 20))
	require.NoError(t, err)
	require.Len(t, summary.Details, 3)
	for i, d := range summary.Details {
		assert.Equal(t, ids[i], d.ID)
	}
	assert.Equal(t, 3, summary.ConfirmedCount())
}

func TestValidate_WeightCapsConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWeight = 3
	var running, peak atomic.Int64

	cs := make([]Claim, 0, 6)
	for _, id := range []verdict.ClaimID{"a", "b", "c", "d", "e", "f"} {
		cs = append(cs, stubClaim{id: id, weight: 2, delay: 5 * time.Millisecond, running: &running, peak: &peak})
	}
	v, err := NewValidator(cfg, WithClaims(cs...))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), "X", testkit.Linear(100, 110, 20))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Equal(t, int64(0), running.Load())
}

func TestValidate_OverweightClaimStillRuns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWeight = 1
	v, err := NewValidator(cfg, WithClaims(stubClaim{id: "heavy", weight: 10}))
	require.NoError(t, err)

	summary, err := v.Validate(context.Background(), "X", testkit.Linear(100, 110, 20))
	require.NoError(t, err)
	assert.Len(t, summary.Details, 1)
}

func TestValidate_ClaimErrorKeepsCode(t *testing.T) {
	v, err := NewValidator(DefaultConfig(), WithClaims(
		stubClaim{id: "ok", weight: 1},
		stubClaim{id: "bad", weight: 1, err: errors.DegenerateInput("flat series")},
	))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), "X", testkit.Linear(100, 110, 20))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeDegenerateInput))
	assert.Contains(t, err.Error(), "claim bad")
}

func TestValidate_CanceledContext(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.Validate(ctx, "X", testkit.Linear(100, 110, 20))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_TooFewPrices(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), "X", testkit.Linear(100, 100, 1))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientData))
}
