package planes

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/session"
)

// Identity scores the caller's trust and detects fingerprint drift.
//
// The client fingerprint is a hash over IP address, user agent, and TLS
// fingerprint. The first request of a session baselines the hash without
// penalty. A later mismatch costs a fixed trust penalty, replaces the
// stored hash, and marks the evaluation as a drift event; the runner maps
// drift to a CHALLENGE so the session owner can re-authenticate instead
// of being denied outright. Trust never recovers on its own.
type Identity struct {
	thresholds config.Thresholds
	clock      session.Clock
}

// NewIdentity creates the identity plane. A nil clock uses the system
// clock.
func NewIdentity(th config.Thresholds, clk session.Clock) *Identity {
	if clk == nil {
		clk = session.SystemClock()
	}
	return &Identity{thresholds: th, clock: clk}
}

// Config implements Plane.
func (p *Identity) Config() PlaneConfig {
	return PlaneConfig{Name: "identity", Phase: PhasePostIdentity}
}

// Evaluate implements Plane.
func (p *Identity) Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error) {
	fp := ev.Attributes().Fingerprint()
	now := p.clock.Now()

	drift := false
	err := ev.Update(ctx, func(s *session.Session) {
		drift = false
		switch {
		case s.FingerprintHash == "":
			s.FingerprintHash = fp
		case s.FingerprintHash != fp:
			s.AdjustTrust(-session.DriftPenalty)
			s.FingerprintHash = fp
			drift = true
		}
		s.LastSeenAt = now
	})
	if err != nil {
		return nil, fmt.Errorf("identity update: %w", err)
	}

	trust := ev.Session().TrustScore
	th := p.thresholds

	result := &PlaneResult{PlaneName: "identity", Drift: drift}
	switch {
	case trust >= th.TrustFull:
		result.Passed = true
		result.RiskScore = 0
		result.Details = fmt.Sprintf("trust score %d at or above full threshold %d", trust, th.TrustFull)
	case trust >= th.TrustDegraded:
		result.Passed = true
		result.RiskScore = float64(th.TrustFull-trust) / float64(th.TrustFull-th.TrustDegraded) * th.DegradeCutoff
		result.Details = fmt.Sprintf("trust score %d in degraded band [%d, %d)", trust, th.TrustDegraded, th.TrustFull)
	default:
		result.Passed = false
		result.RiskScore = 1.0
		result.Details = fmt.Sprintf("trust score %d below degraded threshold %d", trust, th.TrustDegraded)
	}
	if drift {
		result.Details = fmt.Sprintf("fingerprint drift detected, trust score reduced to %d", trust)
	}
	return result, nil
}
