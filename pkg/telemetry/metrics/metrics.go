package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ganymede"
	subsystem = "guard"
)

// Plane evaluation outcomes.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeFault = "fault"
)

// Store operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics tracks guard pipeline activity.
//
// Metrics:
//   - ganymede_guard_decisions_total: Inspection decisions by action
//   - ganymede_guard_plane_evaluations_total: Plane evaluations by plane and outcome
//   - ganymede_guard_plane_risk_score: Risk score distribution per plane
//   - ganymede_guard_plane_duration_seconds: Evaluation latency per plane
//   - ganymede_guard_store_operations_total: Session store operations by result
//   - ganymede_guard_audit_dropped_total: Audit records dropped under backpressure
type Metrics struct {
	registry *prometheus.Registry

	decisionsTotal        *prometheus.CounterVec
	planeEvaluationsTotal *prometheus.CounterVec
	planeRiskScore        *prometheus.HistogramVec
	planeDuration         *prometheus.HistogramVec
	storeOperationsTotal  *prometheus.CounterVec
	auditDroppedTotal     prometheus.Counter
}

// NewMetrics creates and registers the guard collectors with the provided
// registry. A nil registry gets a fresh private one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decisions_total",
				Help:      "Total number of inspection decisions by action",
			},
			[]string{"action"},
		),

		planeEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plane_evaluations_total",
				Help:      "Total number of plane evaluations by outcome",
			},
			[]string{"plane", "outcome"},
		),

		planeRiskScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plane_risk_score",
				Help:      "Distribution of plane risk scores",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"plane"},
		),

		planeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plane_duration_seconds",
				Help:      "Duration of plane evaluation in seconds",
				// Plane evaluations are in-process pattern work (< 16ms)
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
			[]string{"plane"},
		),

		storeOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "store_operations_total",
				Help:      "Total number of session store operations by result",
			},
			[]string{"op", "result"},
		),

		auditDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_dropped_total",
				Help:      "Total number of audit records dropped under backpressure",
			},
		),
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.planeEvaluationsTotal,
		m.planeRiskScore,
		m.planeDuration,
		m.storeOperationsTotal,
		m.auditDroppedTotal,
	)

	return m
}

// RecordDecision records a completed inspection decision.
//
// Parameters:
//   - action: Decision action ("ALLOW", "BLOCK", "DEGRADE", "CHALLENGE")
func (m *Metrics) RecordDecision(action string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(action).Inc()
}

// RecordPlaneEvaluation records a single plane evaluation.
//
// Parameters:
//   - plane: Plane name (e.g., "identity", "intent")
//   - outcome: OutcomePass, OutcomeFail, or OutcomeFault
//   - risk: Risk score in [0, 1]
//   - duration: Evaluation duration
func (m *Metrics) RecordPlaneEvaluation(plane, outcome string, risk float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.planeEvaluationsTotal.WithLabelValues(plane, outcome).Inc()
	m.planeRiskScore.WithLabelValues(plane).Observe(risk)
	m.planeDuration.WithLabelValues(plane).Observe(duration.Seconds())
}

// RecordStoreOperation records a session store operation.
//
// Parameters:
//   - op: Operation name (e.g., "get", "create", "update")
//   - result: ResultOK or ResultError
func (m *Metrics) RecordStoreOperation(op, result string) {
	if m == nil {
		return
	}
	m.storeOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordAuditDrop records an audit record dropped because the emitter
// buffer was full.
func (m *Metrics) RecordAuditDrop() {
	if m == nil {
		return
	}
	m.auditDroppedTotal.Inc()
}

// Registry returns the Prometheus registry backing these collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
