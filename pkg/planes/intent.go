package planes

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/planes/patterns"
)

// Intent scans the prompt for cognitive threats: authority spoofing,
// coercion, emotional manipulation, and privilege escalation. It holds no
// session state.
//
// The risk score is the strongest category match, with a small stacking
// bonus when three or more distinct categories match at once: combined
// techniques signal a deliberate attack rather than an unlucky phrasing.
// The plane fails when the score reaches the mode's intent sensitivity,
// so a lower sensitivity value widens the blocking region.
// Stacking: matching stackingCategories or more distinct categories adds
// stackingBonus per category beyond the threshold, capped at 1.0.
const (
	stackingCategories = 3
	stackingBonus      = 0.05
)

type Intent struct {
	thresholds config.Thresholds
	patterns   *patterns.Provider
}

// NewIntent creates the intent plane. A nil provider serves the built-in
// pattern tables.
func NewIntent(th config.Thresholds, prov *patterns.Provider) *Intent {
	if prov == nil {
		prov = patterns.NewProvider(nil)
	}
	return &Intent{thresholds: th, patterns: prov}
}

// Config implements Plane.
func (p *Intent) Config() PlaneConfig {
	return PlaneConfig{Name: "intent", Phase: PhasePostIntent}
}

// Evaluate implements Plane.
func (p *Intent) Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error) {
	matches := p.patterns.Current().MatchIntent(ev.Normalized())

	best := patterns.CategoryMatch{}
	for _, m := range matches {
		if m.Weight > best.Weight {
			best = m
		}
	}

	risk := best.Weight
	if len(matches) >= stackingCategories {
		risk += stackingBonus * float64(len(matches)-stackingCategories+1)
		if risk > 1.0 {
			risk = 1.0
		}
	}

	result := &PlaneResult{PlaneName: "intent", RiskScore: risk}
	sens := p.thresholds.IntentSensitivity
	switch {
	case risk == 0:
		result.Passed = true
		result.Details = "no intent categories matched"
	case risk >= sens:
		result.Passed = false
		result.Details = fmt.Sprintf("intent category %s matched with risk %.2f at or above sensitivity %.2f", best.Category, risk, sens)
	default:
		result.Passed = true
		result.Details = fmt.Sprintf("intent category %s matched with risk %.2f below sensitivity %.2f", best.Category, risk, sens)
	}
	return result, nil
}
