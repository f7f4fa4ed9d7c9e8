package planes

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/planes/patterns"
	"mercator-hq/ganymede/pkg/session"
)

// poisoningRisk is the fixed score for an instruction-poisoning hit. The
// directive/target pair is a strong signal on its own, independent of the
// intent tables.
const poisoningRisk = 0.85

// ContextPlane correlates the current prompt with the session's recent
// turns. Two detectors:
//
//   - split payload: the concatenation of recent turns plus the current
//     prompt matches an intent category at or above sensitivity while no
//     individual turn does, signalling an attack assembled across turns.
//   - instruction poisoning: the current prompt directs the model to
//     discard prior constraints after at least one earlier turn exists.
//
// The normalized prompt is appended to the session history regardless of
// the outcome; history records what was actually seen, attacks included.
type ContextPlane struct {
	thresholds config.Thresholds
	patterns   *patterns.Provider
	historyCap int
}

// NewContextPlane creates the context plane. historyCap bounds the
// session's recent-prompt ring; values below one fall back to the
// default capacity.
func NewContextPlane(th config.Thresholds, prov *patterns.Provider, historyCap int) *ContextPlane {
	if prov == nil {
		prov = patterns.NewProvider(nil)
	}
	if historyCap < 1 {
		historyCap = config.DefaultRecentPromptsCap
	}
	return &ContextPlane{thresholds: th, patterns: prov, historyCap: historyCap}
}

// Config implements Plane.
func (p *ContextPlane) Config() PlaneConfig {
	return PlaneConfig{Name: "context", Phase: PhasePostContext}
}

// Evaluate implements Plane.
func (p *ContextPlane) Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error) {
	set := p.patterns.Current()
	norm := ev.Normalized()
	recents := ev.Session().RecentPrompts

	result := &PlaneResult{PlaneName: "context", Passed: true, Details: "no multi-turn correlation detected"}

	if len(recents) > 0 {
		switch {
		case set.MatchesPoison(norm):
			result.Passed = false
			result.RiskScore = poisoningRisk
			result.Details = fmt.Sprintf("instruction poisoning detected after %d prior turns", len(recents))
		default:
			if cat, risk, ok := p.splitPayload(set, recents, norm); ok {
				result.Passed = false
				result.RiskScore = risk
				result.Details = fmt.Sprintf("split payload across %d turns matches intent category %s with risk %.2f", len(recents)+1, cat, risk)
			}
		}
	}

	if err := ev.Update(ctx, func(s *session.Session) {
		s.PushPrompt(norm, p.historyCap)
	}); err != nil {
		return nil, fmt.Errorf("context history append: %w", err)
	}
	return result, nil
}

// splitPayload reports the strongest intent category matched by the
// joined turns when no single turn reaches sensitivity on its own.
func (p *ContextPlane) splitPayload(set *patterns.Set, recents []string, current string) (string, float64, bool) {
	sens := p.thresholds.IntentSensitivity

	turns := make([]string, 0, len(recents)+1)
	turns = append(turns, recents...)
	turns = append(turns, current)
	for _, turn := range turns {
		if bestWeight(set.MatchIntent(turn)) >= sens {
			return "", 0, false
		}
	}

	joined := patterns.Normalize(strings.Join(turns, " "))
	best := patterns.CategoryMatch{}
	for _, m := range set.MatchIntent(joined) {
		if m.Weight > best.Weight {
			best = m
		}
	}
	if best.Weight >= sens {
		return best.Category, best.Weight, true
	}
	return "", 0, false
}

func bestWeight(matches []patterns.CategoryMatch) float64 {
	best := 0.0
	for _, m := range matches {
		if m.Weight > best {
			best = m.Weight
		}
	}
	return best
}
