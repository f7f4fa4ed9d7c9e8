package guard

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"mercator-hq/ganymede/pkg/planes"
)

// stubPlane is a scriptable plane for registry and pipeline tests.
type stubPlane struct {
	cfg  planes.PlaneConfig
	eval func(ctx context.Context, ev *planes.Evaluation) (*planes.PlaneResult, error)
}

func (s *stubPlane) Config() planes.PlaneConfig { return s.cfg }

func (s *stubPlane) Evaluate(ctx context.Context, ev *planes.Evaluation) (*planes.PlaneResult, error) {
	if s.eval != nil {
		return s.eval(ctx, ev)
	}
	return &planes.PlaneResult{PlaneName: s.cfg.Name, Passed: true}, nil
}

func passingPlane(name string, phase planes.Phase, priority int) *stubPlane {
	return &stubPlane{cfg: planes.PlaneConfig{Name: name, Phase: phase, Priority: priority}}
}

func newBareRegistry() (*Registry, *atomic.Int64) {
	var inflight atomic.Int64
	return newRegistry(&inflight), &inflight
}

func assertConfigError(t *testing.T, err error, substr string) {
	t.Helper()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if !strings.Contains(cerr.Error(), substr) {
		t.Errorf("error %q does not mention %q", cerr.Error(), substr)
	}
}

// ============================================================================
// Register validation
// ============================================================================

func TestRegistry_RegisterRejectsNilPlane(t *testing.T) {
	r, _ := newBareRegistry()
	assertConfigError(t, r.Register(nil), "nil")
}

func TestRegistry_RegisterRejectsEmptyName(t *testing.T) {
	r, _ := newBareRegistry()
	assertConfigError(t, r.Register(passingPlane("", planes.PhasePreIdentity, 0)), "empty")
}

func TestRegistry_RegisterRejectsUnknownPhase(t *testing.T) {
	r, _ := newBareRegistry()
	assertConfigError(t, r.Register(passingPlane("p", planes.Phase(42), 0)), "unknown phase")
}

func TestRegistry_RegisterRejectsDuplicateName(t *testing.T) {
	r, _ := newBareRegistry()
	if err := r.Register(passingPlane("tap", planes.PhasePreIdentity, 0)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	assertConfigError(t, r.Register(passingPlane("tap", planes.PhasePostIntent, 0)), "already registered")
}

func TestRegistry_BuiltinNamesReservedEvenWhenDisabled(t *testing.T) {
	r, _ := newBareRegistry()
	r.setBuiltin(planes.PhasePostEconomics, "economics", nil)

	assertConfigError(t, r.Register(passingPlane("economics", planes.PhasePreIdentity, 0)), "already registered")
}

func TestRegistry_RegisterRejectedWhileInFlight(t *testing.T) {
	r, inflight := newBareRegistry()

	inflight.Add(1)
	assertConfigError(t, r.Register(passingPlane("tap", planes.PhasePreIdentity, 0)), "in flight")

	inflight.Add(-1)
	if err := r.Register(passingPlane("tap", planes.PhasePreIdentity, 0)); err != nil {
		t.Fatalf("register after drain: %v", err)
	}
}

// ============================================================================
// Resolution order
// ============================================================================

func TestRegistry_ResolvedOrder(t *testing.T) {
	r, _ := newBareRegistry()
	r.setBuiltin(planes.PhasePostIdentity, "identity", passingPlane("identity", planes.PhasePostIdentity, 0))
	r.setBuiltin(planes.PhasePostIntent, "intent", passingPlane("intent", planes.PhasePostIntent, 0))
	r.setBuiltin(planes.PhasePostCompliance, "compliance", passingPlane("compliance", planes.PhasePostCompliance, 0))

	// Registration order: low-priority plugin last to prove priority wins.
	if err := r.Register(passingPlane("pre-b", planes.PhasePreIdentity, 0)); err != nil { // default 100
		t.Fatal(err)
	}
	if err := r.Register(passingPlane("pre-a", planes.PhasePreIdentity, 5)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(passingPlane("post-intent-1", planes.PhasePostIntent, 100)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(passingPlane("post-intent-2", planes.PhasePostIntent, 100)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(passingPlane("after-all", planes.PhasePostCompliance, 0)); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"pre-a",    // priority 5 beats default 100 despite later registration
		"pre-b",
		"identity",
		"intent",
		"post-intent-1", // tie on priority: registration order
		"post-intent-2",
		"compliance",
		"after-all",
	}
	if got := r.PlaneNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("resolved order = %v\nwant %v", got, want)
	}
}

func TestRegistry_DisabledBuiltinLeavesBoundaryPluginsInPlace(t *testing.T) {
	r, _ := newBareRegistry()
	r.setBuiltin(planes.PhasePostIdentity, "identity", nil) // disabled
	r.setBuiltin(planes.PhasePostCompliance, "compliance", passingPlane("compliance", planes.PhasePostCompliance, 0))

	if err := r.Register(passingPlane("tap", planes.PhasePostIdentity, 0)); err != nil {
		t.Fatal(err)
	}

	want := []string{"tap", "compliance"}
	if got := r.PlaneNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("resolved order = %v, want %v", got, want)
	}
}

// ============================================================================
// Override
// ============================================================================

func TestRegistry_OverrideBuiltin(t *testing.T) {
	r, _ := newBareRegistry()
	r.setBuiltin(planes.PhasePostCompliance, "compliance", passingPlane("compliance", planes.PhasePostCompliance, 0))

	replacement := passingPlane("compliance", planes.PhasePostCompliance, 0)
	if err := r.Override("compliance", replacement); err != nil {
		t.Fatalf("override: %v", err)
	}
	if r.current().compliance != planes.Plane(replacement) {
		t.Error("compliance boundary not pointing at replacement")
	}
}

func TestRegistry_OverridePlugin(t *testing.T) {
	r, _ := newBareRegistry()
	if err := r.Register(passingPlane("tap", planes.PhasePreIdentity, 10)); err != nil {
		t.Fatal(err)
	}

	replacement := passingPlane("tap", planes.PhasePreIdentity, 10)
	if err := r.Override("tap", replacement); err != nil {
		t.Fatalf("override: %v", err)
	}
	if got := r.PlaneNames(); !reflect.DeepEqual(got, []string{"tap"}) {
		t.Errorf("resolved order = %v", got)
	}
	if r.current().order[0] != planes.Plane(replacement) {
		t.Error("plugin slot not pointing at replacement")
	}
}

func TestRegistry_OverrideErrors(t *testing.T) {
	r, inflight := newBareRegistry()
	if err := r.Register(passingPlane("tap", planes.PhasePreIdentity, 0)); err != nil {
		t.Fatal(err)
	}

	assertConfigError(t, r.Override("tap", nil), "nil")
	assertConfigError(t, r.Override("tap", passingPlane("other", planes.PhasePreIdentity, 0)), "carries name")
	assertConfigError(t, r.Override("ghost", passingPlane("ghost", planes.PhasePreIdentity, 0)), "not registered")

	inflight.Add(1)
	assertConfigError(t, r.Override("tap", passingPlane("tap", planes.PhasePreIdentity, 0)), "in flight")
	inflight.Add(-1)
}
