package planes

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/planes/patterns"
)

// Compliance annotates the decision with the sensitive-data categories
// present in the prompt and their regulatory citations. It never blocks:
// the result always passes, and the risk score only weights the audit
// record by detection confidence. The runner executes this plane even
// when an earlier plane short-circuits the pipeline, so every audit
// record carries a compliance entry.
type Compliance struct {
	patterns *patterns.Provider
}

// NewCompliance creates the compliance plane. A nil provider serves the
// built-in detectors.
func NewCompliance(prov *patterns.Provider) *Compliance {
	if prov == nil {
		prov = patterns.NewProvider(nil)
	}
	return &Compliance{patterns: prov}
}

// Config implements Plane.
func (p *Compliance) Config() PlaneConfig {
	return PlaneConfig{Name: "compliance", Phase: PhasePostCompliance}
}

// Evaluate implements Plane.
func (p *Compliance) Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error) {
	matches := p.patterns.Current().MatchPII(ev.Prompt())

	result := &PlaneResult{PlaneName: "compliance", Passed: true}
	if len(matches) == 0 {
		result.Details = "no sensitive data categories detected"
		return result, nil
	}

	names := make([]string, 0, len(matches))
	regulatory := make(map[string]string)
	for _, m := range matches {
		names = append(names, m.Name)
		for framework, citation := range m.Regulatory {
			regulatory[framework] = citation
		}
	}

	result.RiskScore = detectionConfidence(len(matches))
	result.Details = fmt.Sprintf("sensitive data categories detected: %s", strings.Join(names, ", "))
	result.Regulatory = regulatory
	return result, nil
}

// detectionConfidence weights the audit record by how many distinct
// sensitive-data categories were found.
func detectionConfidence(categories int) float64 {
	switch {
	case categories >= 3:
		return 0.95
	case categories == 2:
		return 0.85
	default:
		return 0.75
	}
}
