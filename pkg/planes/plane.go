package planes

import "context"

// DefaultPriority is assumed when a PlaneConfig leaves Priority at zero.
const DefaultPriority = 100

// PlaneConfig describes where a plane sits in the pipeline.
type PlaneConfig struct {
	// Name identifies the plane. It must be unique across the registry
	// and keys the plane's entry in Decision.PlaneResults.
	Name string

	// Phase is the insertion point relative to the built-in planes.
	Phase Phase

	// Priority orders plugins within a phase; lower runs first. Zero
	// means DefaultPriority. Ties run in registration order.
	Priority int
}

// Plane is a policy evaluator in the inspection pipeline. Built-in planes
// and plugins implement the same interface; the runner dispatches them as
// one homogeneous ordered sequence.
//
// Evaluate must return either a result or an error. Errors and panics are
// recovered by the runner into a failed, faulted PlaneResult; they never
// reach the caller. Evaluate must honor ctx cancellation on any blocking
// work.
type Plane interface {
	Config() PlaneConfig
	Evaluate(ctx context.Context, ev *Evaluation) (*PlaneResult, error)
}
