package guard

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Inspect and InspectBatch after Close.
var ErrClosed = errors.New("guard closed")

// ConfigError reports invalid guard construction or registry mutation. It
// is the only error surfaced at setup time; request-time paths never
// produce it.
type ConfigError struct {
	// Field is the configuration or registry field at fault, as a dotted
	// path (e.g. "session.backend", "plane.name").
	Field string

	// Reason describes what is wrong with the field.
	Reason string
}

// Error returns the error message for this configuration error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("guard config: %s: %s", e.Field, e.Reason)
}

// PlaneFault wraps an unexpected failure inside a plane evaluation. The
// runner converts it into a failed, faulted PlaneResult; it never
// propagates to callers and exists so fault details carry the plane name
// through logs and decisions.
type PlaneFault struct {
	// Plane is the name of the faulting plane.
	Plane string

	// Err is the recovered failure.
	Err error
}

// Error returns the error message for this plane fault.
func (e *PlaneFault) Error() string {
	return fmt.Sprintf("plane %s fault: %v", e.Plane, e.Err)
}

// Unwrap returns the recovered failure.
func (e *PlaneFault) Unwrap() error {
	return e.Err
}
