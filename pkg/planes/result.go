package planes

import "time"

// PlaneResult is the outcome of one plane evaluation. Results are
// immutable once the runner has recorded them.
type PlaneResult struct {
	// PlaneName matches the producing plane's PlaneConfig.Name.
	PlaneName string `json:"plane_name"`

	// Passed is false when the plane's check failed. The compliance
	// plane always passes.
	Passed bool `json:"passed"`

	// RiskScore ranges 0.0 (benign) to 1.0 (certain threat).
	RiskScore float64 `json:"risk_score"`

	// Details is a human-readable account of what the plane saw. The
	// first failing plane's details become the Decision rationale.
	Details string `json:"details,omitempty"`

	// Latency is stamped by the runner.
	Latency time.Duration `json:"latency"`

	// Drift marks an identity evaluation that detected fingerprint
	// drift on this very request. Drift maps to a CHALLENGE action.
	Drift bool `json:"drift,omitempty"`

	// Faulted marks a result synthesized from a plane error or panic
	// rather than produced by the plane itself.
	Faulted bool `json:"faulted,omitempty"`

	// Regulatory maps a framework key to a citation for each sensitive
	// data category found. Only the compliance plane sets it.
	Regulatory map[string]string `json:"regulatory,omitempty"`
}
