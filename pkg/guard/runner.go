package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/planes"
	"mercator-hq/ganymede/pkg/session"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// runner executes the resolved plane order against one evaluation and
// folds the results into a Decision. It is the single pipeline core shared
// by Inspect and InspectBatch.
type runner struct {
	registry   *Registry
	thresholds config.Thresholds

	// failOpen relaxes fault handling in permissive mode: a faulted plane
	// does not count against the verdict. Detected failures always count.
	failOpen bool

	clock   session.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// run evaluates every plane in resolved order, applying the short-circuit
// policy, and returns the decision. The only error return is ctx
// cancellation between plane steps; every plane-level failure is absorbed
// into a faulted PlaneResult.
func (r *runner) run(ctx context.Context, ev *planes.Evaluation) (*Decision, error) {
	resolved := r.registry.current()

	var (
		firstFailing *planes.PlaneResult
		driftRes     *planes.PlaneResult
		compliance   *planes.PlaneResult
		cut          bool
	)

	for _, p := range resolved.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		isCompliance := p == resolved.compliance
		if cut && !isCompliance {
			continue
		}

		res := r.evaluate(ctx, p, ev)
		ev.AppendResult(res)

		if isCompliance {
			// Compliance annotates; it never alters the action.
			compliance = res
			continue
		}
		if res.Drift && driftRes == nil {
			driftRes = res
		}
		if res.Passed {
			continue
		}
		if res.Faulted && r.failOpen {
			continue
		}
		if firstFailing == nil {
			firstFailing = res
		}
		if res.RiskScore >= r.thresholds.DegradeCutoff {
			cut = true
		}
	}

	return r.decide(ev, firstFailing, driftRes, compliance), nil
}

// evaluate runs one plane, stamping latency and converting panics, errors,
// and nil results into faulted PlaneResults.
func (r *runner) evaluate(ctx context.Context, p planes.Plane, ev *planes.Evaluation) (res *planes.PlaneResult) {
	name := p.Config().Name
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			res = r.fault(name, fmt.Errorf("panic: %v", rec))
		}
		res.Latency = time.Since(start)

		outcome := metrics.OutcomePass
		switch {
		case res.Faulted:
			outcome = metrics.OutcomeFault
		case !res.Passed:
			outcome = metrics.OutcomeFail
		}
		r.metrics.RecordPlaneEvaluation(name, outcome, res.RiskScore, res.Latency)
	}()

	out, err := p.Evaluate(ctx, ev)
	if err != nil {
		return r.fault(name, err)
	}
	if out == nil {
		return r.fault(name, errors.New("returned no result"))
	}
	return out
}

// fault converts an unexpected plane failure into a failed result carrying
// maximum risk.
func (r *runner) fault(name string, err error) *planes.PlaneResult {
	f := &PlaneFault{Plane: name, Err: err}
	r.logger.Warn("plane fault absorbed", "plane", name, "error", err)
	return &planes.PlaneResult{
		PlaneName: name,
		Passed:    false,
		RiskScore: 1.0,
		Details:   f.Error(),
		Faulted:   true,
	}
}

// decide maps the collected results to the final action.
//
// Drift wins unconditionally: a hijacked session should re-authenticate,
// not be denied or served, whatever the prompt contained. Otherwise the
// first failing plane sets the action by its risk against the block
// cutoff, and any failure forbids ALLOW.
func (r *runner) decide(ev *planes.Evaluation, firstFailing, driftRes, compliance *planes.PlaneResult) *Decision {
	var (
		action    Action
		rationale string
	)
	switch {
	case driftRes != nil:
		action = ActionChallenge
		rationale = driftRes.Details
	case firstFailing == nil:
		action = ActionAllow
		rationale = "all planes passed"
	case firstFailing.RiskScore >= r.thresholds.BlockCutoff:
		action = ActionBlock
		rationale = firstFailing.Details
	default:
		action = ActionDegrade
		rationale = firstFailing.Details
	}

	var regulatory map[string]string
	if compliance != nil && len(compliance.Regulatory) > 0 {
		regulatory = make(map[string]string, len(compliance.Regulatory))
		for k, v := range compliance.Regulatory {
			regulatory[k] = v
		}
	}

	return &Decision{
		Allowed:      action == ActionAllow,
		Action:       action,
		Rationale:    rationale,
		SafeResponse: safeResponse(action),
		TraceID:      uuid.NewString(),
		Timestamp:    r.clock.Now().UTC(),
		PlaneResults: PlaneResults(ev.Results()),
		Regulatory:   regulatory,
	}
}
