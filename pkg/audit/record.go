package audit

import "time"

// EventSecurityDecision is the event name carried by every record.
const EventSecurityDecision = "security_decision"

// PlaneEntry is the per-plane slice of a record.
type PlaneEntry struct {
	Passed    bool    `json:"passed"`
	RiskScore float64 `json:"risk_score"`
}

// Record is the audit payload for one security decision. Field names are
// part of the external contract; downstream consumers parse them by name.
type Record struct {
	// Event is always EventSecurityDecision.
	Event string `json:"event"`

	// TraceID is unique per inspect call.
	TraceID string `json:"trace_id"`

	// Timestamp is the decision time in UTC.
	Timestamp time.Time `json:"timestamp"`

	Allowed   bool   `json:"allowed"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`

	// PlaneResults holds one entry per plane actually executed.
	PlaneResults map[string]PlaneEntry `json:"plane_results"`

	// Regulatory maps framework keys to citation strings for any
	// sensitive data categories the compliance plane found.
	Regulatory map[string]string `json:"regulatory"`
}
