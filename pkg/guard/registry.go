package guard

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"mercator-hq/ganymede/pkg/planes"
)

// Registry holds the planes of one guard: the built-in boundary owners and
// any plugins registered at the six phase markers.
//
// Mutation recomputes the resolved execution order and publishes it
// atomically, so concurrent inspections always observe a complete,
// consistent order. Mutation is rejected while inspections are in flight:
// the rules of an evaluation never change underneath it.
type Registry struct {
	mu       sync.Mutex
	builtins map[planes.Phase]planes.Plane
	plugins  map[planes.Phase][]pluginEntry
	names    map[string]bool
	seq      int

	inflight *atomic.Int64
	resolved atomic.Pointer[resolvedOrder]
}

// pluginEntry pins a plugin's position: priority first, then registration
// sequence for ties.
type pluginEntry struct {
	plane    planes.Plane
	priority int
	seq      int
}

// resolvedOrder is the cached execution order. compliance points at the
// plane owning the POST_COMPLIANCE boundary, which the runner must execute
// even after a short-circuit.
type resolvedOrder struct {
	order      []planes.Plane
	compliance planes.Plane
}

// newRegistry creates an empty registry sharing the guard's in-flight
// counter.
func newRegistry(inflight *atomic.Int64) *Registry {
	r := &Registry{
		builtins: make(map[planes.Phase]planes.Plane),
		plugins:  make(map[planes.Phase][]pluginEntry),
		names:    make(map[string]bool),
		inflight: inflight,
	}
	r.resolve()
	return r
}

// setBuiltin installs a built-in plane at its boundary phase and reserves
// its name. Guard construction only; p may be nil to reserve the name of a
// disabled built-in.
func (r *Registry) setBuiltin(phase planes.Phase, name string, p planes.Plane) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names[name] = true
	if p != nil {
		r.builtins[phase] = p
	}
	r.resolve()
}

// Register adds a plugin plane at its configured phase. It returns a
// *ConfigError on a nil plane, empty or duplicate name, unknown phase, or
// when inspections are in flight. Built-in names are always reserved, even
// for built-ins disabled by configuration.
func (r *Registry) Register(p planes.Plane) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p == nil {
		return &ConfigError{Field: "plane", Reason: "plane is nil"}
	}
	cfg := p.Config()
	if cfg.Name == "" {
		return &ConfigError{Field: "plane.name", Reason: "name is empty"}
	}
	if !cfg.Phase.Valid() {
		return &ConfigError{Field: "plane.phase", Reason: fmt.Sprintf("unknown phase %d", int(cfg.Phase))}
	}
	if r.names[cfg.Name] {
		return &ConfigError{Field: "plane.name", Reason: fmt.Sprintf("plane %q already registered", cfg.Name)}
	}
	if n := r.inflight.Load(); n != 0 {
		return &ConfigError{Field: "registry", Reason: fmt.Sprintf("cannot mutate with %d inspections in flight", n)}
	}

	priority := cfg.Priority
	if priority == 0 {
		priority = planes.DefaultPriority
	}
	r.seq++
	r.plugins[cfg.Phase] = append(r.plugins[cfg.Phase], pluginEntry{
		plane:    p,
		priority: priority,
		seq:      r.seq,
	})
	r.names[cfg.Name] = true
	r.resolve()
	return nil
}

// Override replaces the plane registered under name with p, which must
// carry the same name. Built-ins keep their boundary phase; plugins keep
// their registration position but take the new plane's priority. Same
// in-flight guard as Register.
func (r *Registry) Override(name string, p planes.Plane) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p == nil {
		return &ConfigError{Field: "plane", Reason: "plane is nil"}
	}
	cfg := p.Config()
	if cfg.Name != name {
		return &ConfigError{Field: "plane.name", Reason: fmt.Sprintf("override for %q carries name %q", name, cfg.Name)}
	}
	if n := r.inflight.Load(); n != 0 {
		return &ConfigError{Field: "registry", Reason: fmt.Sprintf("cannot mutate with %d inspections in flight", n)}
	}

	for phase, b := range r.builtins {
		if b.Config().Name == name {
			r.builtins[phase] = p
			r.resolve()
			return nil
		}
	}
	for phase, entries := range r.plugins {
		for i, e := range entries {
			if e.plane.Config().Name != name {
				continue
			}
			priority := cfg.Priority
			if priority == 0 {
				priority = planes.DefaultPriority
			}
			r.plugins[phase][i] = pluginEntry{plane: p, priority: priority, seq: e.seq}
			r.resolve()
			return nil
		}
	}
	return &ConfigError{Field: "plane.name", Reason: fmt.Sprintf("plane %q not registered", name)}
}

// PlaneNames returns the names of all planes in resolved execution order.
func (r *Registry) PlaneNames() []string {
	res := r.resolved.Load()
	names := make([]string, len(res.order))
	for i, p := range res.order {
		names[i] = p.Config().Name
	}
	return names
}

// current returns the cached resolved order for the runner.
func (r *Registry) current() *resolvedOrder {
	return r.resolved.Load()
}

// resolve recomputes and publishes the execution order. Caller holds mu.
//
// Per phase marker in pipeline order: first the built-in owning the
// boundary (PRE_IDENTITY has none), then that marker's plugins sorted by
// ascending priority, ties in registration order.
func (r *Registry) resolve() {
	var order []planes.Plane
	for _, phase := range planes.Phases {
		if b, ok := r.builtins[phase]; ok {
			order = append(order, b)
		}
		entries := append([]pluginEntry(nil), r.plugins[phase]...)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].priority < entries[j].priority
		})
		for _, e := range entries {
			order = append(order, e.plane)
		}
	}
	r.resolved.Store(&resolvedOrder{
		order:      order,
		compliance: r.builtins[planes.PhasePostCompliance],
	})
}
