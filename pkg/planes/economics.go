package planes

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/session"
)

// Economics throttles sessions by estimated token burn rate. Each request
// appends an estimated token count to the session's sliding window; the
// effective rate is the window sum divided by the window duration, so
// bursts are smoothed rather than bucketed.
type Economics struct {
	thresholds    config.Thresholds
	window        time.Duration
	charsPerToken float64
	clock         session.Clock
}

// NewEconomics creates the economics plane. Non-positive window or
// charsPerToken values fall back to the defaults; a nil clock uses the
// system clock.
func NewEconomics(th config.Thresholds, window time.Duration, charsPerToken float64, clk session.Clock) *Economics {
	if window <= 0 {
		window = config.DefaultBurnWindow
	}
	if charsPerToken <= 0 {
		charsPerToken = config.DefaultCharsPerToken
	}
	if clk == nil {
		clk = session.SystemClock()
	}
	return &Economics{thresholds: th, window: window, charsPerToken: charsPerToken, clock: clk}
}

// Config implements Plane.
func (p *Economics) Config() PlaneConfig {
	return PlaneConfig{Name: "economics", Phase: PhasePostEconomics}
}

// Evaluate implements Plane.
func (p *Economics) Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error) {
	tokens := EstimateTokens(ev.Prompt(), p.charsPerToken)
	now := p.clock.Now()

	if err := ev.Update(ctx, func(s *session.Session) {
		s.RecordBurn(now, tokens, p.window)
	}); err != nil {
		return nil, fmt.Errorf("economics burn record: %w", err)
	}

	rate := ev.Session().BurnRate(now, p.window)
	limit := p.thresholds.MaxBurnRate

	result := &PlaneResult{PlaneName: "economics"}
	if rate > limit {
		overshoot := (rate - limit) / limit
		risk := 0.5 + overshoot/2
		if risk > 1.0 {
			risk = 1.0
		}
		result.Passed = false
		result.RiskScore = risk
		result.Details = fmt.Sprintf("burn rate %.1f tokens/s exceeds limit %.1f tokens/s", rate, limit)
	} else {
		result.Passed = true
		result.Details = fmt.Sprintf("burn rate %.1f tokens/s within limit %.1f tokens/s", rate, limit)
	}
	return result, nil
}

// EstimateTokens converts prompt length to an estimated token count using
// a deterministic characters-per-token proxy. Every prompt costs at least
// one token.
func EstimateTokens(prompt string, charsPerToken float64) int64 {
	if charsPerToken <= 0 {
		charsPerToken = config.DefaultCharsPerToken
	}
	tokens := int64(float64(len(prompt))/charsPerToken + 0.5)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
