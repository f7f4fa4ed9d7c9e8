// Package metrics provides Prometheus collectors for guard decisions,
// plane evaluations, session store operations, and audit emission.
//
// All metrics carry the "ganymede_guard_" prefix. Collectors register
// against a caller-supplied registry so embedding applications control
// exposition; NewMetrics(nil) creates a private registry, which keeps
// tests and multiple guard instances from colliding.
//
// A nil *Metrics is valid everywhere: every Record method is a no-op on
// a nil receiver, so callers that run without metrics pass nil instead
// of guarding every call site.
//
// Example:
//
//	m := metrics.NewMetrics(nil)
//	http.Handle("/metrics", m.Handler())
package metrics
