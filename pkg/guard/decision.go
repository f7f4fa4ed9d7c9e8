package guard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"mercator-hq/ganymede/pkg/planes"
)

// Action is the verdict class of a decision.
type Action int

const (
	// ActionAllow lets the prompt through unchanged.
	ActionAllow Action = iota

	// ActionBlock denies the prompt outright.
	ActionBlock

	// ActionDegrade throttles the caller; the prompt should be retried
	// later or served at reduced priority.
	ActionDegrade

	// ActionChallenge asks the session owner to re-authenticate. Only
	// fingerprint drift produces it.
	ActionChallenge
)

// String returns the canonical action name.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "ALLOW"
	case ActionBlock:
		return "BLOCK"
	case ActionDegrade:
		return "DEGRADE"
	case ActionChallenge:
		return "CHALLENGE"
	default:
		return fmt.Sprintf("ACTION(%d)", int(a))
	}
}

// MarshalJSON encodes the action as its canonical name.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Safe responses returned in place of model output for non-allowed
// actions. They are static and mode-independent.
const (
	SafeResponseBlock     = "I can't help with that request."
	SafeResponseDegrade   = "Request throttled. Please retry shortly."
	SafeResponseChallenge = "Session verification required."
)

// safeResponse maps an action to its placeholder response. ALLOW has none.
func safeResponse(a Action) string {
	switch a {
	case ActionBlock:
		return SafeResponseBlock
	case ActionDegrade:
		return SafeResponseDegrade
	case ActionChallenge:
		return SafeResponseChallenge
	default:
		return ""
	}
}

// PlaneResults is the ordered set of results from one inspection,
// insertion order equal to execution order.
type PlaneResults []*planes.PlaneResult

// Get returns the result for the named plane, or nil if that plane did not
// execute.
func (rs PlaneResults) Get(name string) *planes.PlaneResult {
	for _, r := range rs {
		if r.PlaneName == name {
			return r
		}
	}
	return nil
}

// MarshalJSON encodes the results as a JSON object keyed by plane name,
// preserving execution order.
func (rs PlaneResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.PlaneName)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decision is the final verdict for one inspected prompt. It is
// constructed once by the runner and never mutated afterward.
type Decision struct {
	// Allowed reports whether the prompt may proceed to the model.
	Allowed bool `json:"allowed"`

	// Action is the verdict class.
	Action Action `json:"action"`

	// Rationale is the details string of the first failing plane, or
	// "all planes passed".
	Rationale string `json:"rationale"`

	// SafeResponse is the static placeholder to return in place of model
	// output. Empty when Allowed.
	SafeResponse string `json:"safe_response,omitempty"`

	// TraceID is unique per inspection.
	TraceID string `json:"trace_id"`

	// Timestamp is the decision time in UTC.
	Timestamp time.Time `json:"timestamp"`

	// PlaneResults holds one entry per executed plane in execution order.
	// Short-circuited planes are absent.
	PlaneResults PlaneResults `json:"plane_results"`

	// Regulatory maps detected compliance frameworks to citations.
	Regulatory map[string]string `json:"regulatory,omitempty"`
}
