package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/retention"
	"mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/planes"
	"mercator-hq/ganymede/pkg/planes/patterns"
	"mercator-hq/ganymede/pkg/session"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// SessionRef identifies the session a prompt belongs to, together with the
// transport attributes observed by the caller. The attributes feed the
// identity fingerprint; the guard never interprets them individually.
type SessionRef struct {
	SessionID      string
	UserID         string
	IPAddress      string
	UserAgent      string
	TLSFingerprint string
}

// attributes converts the reference to session attributes.
func (r SessionRef) attributes() session.Attributes {
	return session.Attributes{
		UserID:         r.UserID,
		IPAddress:      r.IPAddress,
		UserAgent:      r.UserAgent,
		TLSFingerprint: r.TLSFingerprint,
	}
}

// BatchItem pairs one prompt with its session reference for batch
// inspection.
type BatchItem struct {
	Prompt  string
	Session SessionRef
}

// Options carries pre-built collaborators for a guard. Nil fields are
// constructed from the configuration.
type Options struct {
	// Store overrides the session store built from cfg.Session. The
	// caller retains ownership; Close does not close injected stores.
	Store session.Store

	// Clock supplies time to planes, stores, and decisions.
	// Default: SystemClock
	Clock session.Clock

	// Patterns overrides the pattern provider built from cfg.Patterns.
	Patterns *patterns.Provider

	// AuditSink overrides the sink built from cfg.Audit. The guard's
	// emitter assumes ownership and closes it.
	AuditSink audit.Sink

	// Metrics receives pipeline metrics. Nil records nothing.
	Metrics *metrics.Metrics
}

// Guard evaluates prompts against their session context and returns
// decisions. Construct with New or NewWithOptions; a Guard is safe for
// concurrent use and must be closed when no longer needed.
type Guard struct {
	cfg        *config.Config
	thresholds config.Thresholds
	logger     *slog.Logger

	store      session.Store
	closeStore bool
	patterns   *patterns.Provider
	registry   *Registry
	runner     *runner
	clock      session.Clock
	metrics    *metrics.Metrics

	emitter  *audit.Emitter
	auditMem *audit.MemorySink
	pruner   *retention.Pruner

	tasks       chan batchTask
	done        chan struct{}
	workerWG    sync.WaitGroup
	bg          sync.WaitGroup
	watchCancel context.CancelFunc

	inflight atomic.Int64
	closed   atomic.Bool
}

// batchTask is one InspectBatch item dispatched to the worker pool.
type batchTask struct {
	ctx  context.Context
	item BatchItem
	out  []*Decision
	idx  int
	wg   *sync.WaitGroup
}

// New creates a guard from configuration. A nil cfg uses the defaults; a
// nil logger uses the process default. All construction failures are
// *ConfigError.
func New(cfg *config.Config, logger *slog.Logger) (*Guard, error) {
	return NewWithOptions(cfg, Options{}, logger)
}

// NewWithOptions creates a guard with pre-built collaborators taking the
// place of configuration-derived ones.
func NewWithOptions(cfg *config.Config, opts Options, logger *slog.Logger) (*Guard, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		cp := *cfg
		cfg = &cp
		config.ApplyDefaults(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, asConfigError(err)
	}
	thresholds, err := config.Resolve(cfg)
	if err != nil {
		return nil, &ConfigError{Field: "mode", Reason: err.Error()}
	}

	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = session.SystemClock()
	}

	g := &Guard{
		cfg:        cfg,
		thresholds: thresholds,
		logger:     logger.With("component", "guard"),
		clock:      clock,
		metrics:    opts.Metrics,
		tasks:      make(chan batchTask),
		done:       make(chan struct{}),
	}

	g.store = opts.Store
	if g.store == nil {
		store, err := buildStore(cfg, clock)
		if err != nil {
			return nil, err
		}
		g.store = store
		g.closeStore = true
	}

	g.patterns = opts.Patterns
	if g.patterns == nil {
		var set *patterns.Set
		if cfg.Patterns.PackPath != "" {
			set, err = patterns.Load(cfg.Patterns.PackPath)
			if err != nil {
				g.releaseStore()
				return nil, &ConfigError{Field: "patterns.pack_path", Reason: err.Error()}
			}
		}
		g.patterns = patterns.NewProvider(set)
	}

	g.registry = newRegistry(&g.inflight)
	g.installBuiltins()

	g.runner = &runner{
		registry:   g.registry,
		thresholds: thresholds,
		failOpen:   cfg.Mode == config.ModePermissive,
		clock:      clock,
		logger:     g.logger,
		metrics:    opts.Metrics,
	}

	if !cfg.Audit.Disabled {
		sink, err := g.buildAuditSink(opts, logger)
		if err != nil {
			g.releaseStore()
			return nil, err
		}
		if mem, ok := sink.(*audit.MemorySink); ok {
			g.auditMem = mem
		}
		g.emitter = audit.NewEmitter(sink, &audit.EmitterConfig{Buffer: cfg.Audit.Buffer})
	}

	if cfg.Patterns.Watch && cfg.Patterns.PackPath != "" {
		wctx, cancel := context.WithCancel(context.Background())
		g.watchCancel = cancel
		g.bg.Add(1)
		go func() {
			defer g.bg.Done()
			if err := g.patterns.Watch(wctx, cfg.Patterns.PackPath, cfg.Patterns.DebounceInterval); err != nil {
				g.logger.Error("pattern watcher stopped", "error", err)
			}
		}()
	}

	for i := 0; i < cfg.Pipeline.Workers; i++ {
		g.workerWG.Add(1)
		go g.worker()
	}

	g.logger.Info("guard ready",
		"mode", cfg.Mode,
		"session_backend", cfg.Session.Backend,
		"audit_backend", cfg.Audit.Backend,
		"workers", cfg.Pipeline.Workers,
	)
	return g, nil
}

// installBuiltins registers the built-in planes at their boundary phases.
// Disabled planes still reserve their names; compliance has no toggle.
func (g *Guard) installBuiltins() {
	cfg, th := g.cfg, g.thresholds

	identity := planes.Plane(nil)
	if !cfg.Planes.DisableIdentity {
		identity = planes.NewIdentity(th, g.clock)
	}
	g.registry.setBuiltin(planes.PhasePostIdentity, "identity", identity)

	intent := planes.Plane(nil)
	if !cfg.Planes.DisableIntent {
		intent = planes.NewIntent(th, g.patterns)
	}
	g.registry.setBuiltin(planes.PhasePostIntent, "intent", intent)

	contextual := planes.Plane(nil)
	if !cfg.Planes.DisableContext {
		contextual = planes.NewContextPlane(th, g.patterns, cfg.Session.RecentPromptsCap)
	}
	g.registry.setBuiltin(planes.PhasePostContext, "context", contextual)

	economics := planes.Plane(nil)
	if !cfg.Planes.DisableEconomics {
		economics = planes.NewEconomics(th, cfg.Session.BurnWindow, cfg.Tokens.CharsPerToken, g.clock)
	}
	g.registry.setBuiltin(planes.PhasePostEconomics, "economics", economics)

	g.registry.setBuiltin(planes.PhasePostCompliance, "compliance", planes.NewCompliance(g.patterns))
}

// buildAuditSink constructs the audit sink selected by configuration.
func (g *Guard) buildAuditSink(opts Options, base *slog.Logger) (audit.Sink, error) {
	if opts.AuditSink != nil {
		return opts.AuditSink, nil
	}

	cfg := g.cfg
	switch cfg.Audit.Backend {
	case "slog":
		return audit.NewSlogSink(base.With("component", "audit.sink")), nil

	case "memory":
		return audit.NewMemorySink(int(cfg.Audit.MaxRecords)), nil

	case "sqlite":
		store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, &ConfigError{Field: "audit.sqlite.path", Reason: err.Error()}
		}
		if cfg.Audit.PruneSchedule != "" {
			g.pruner = retention.NewPruner(store, &retention.Config{
				RetentionDays: cfg.Audit.RetentionDays,
				MaxRecords:    cfg.Audit.MaxRecords,
				PruneSchedule: cfg.Audit.PruneSchedule,
			})
			if err := g.pruner.Start(context.Background()); err != nil {
				store.Close()
				return nil, &ConfigError{Field: "audit.prune_schedule", Reason: err.Error()}
			}
		}
		return store, nil

	default:
		return nil, &ConfigError{Field: "audit.backend", Reason: fmt.Sprintf("unknown backend %q", cfg.Audit.Backend)}
	}
}

// buildStore constructs the session store selected by configuration.
func buildStore(cfg *config.Config, clk session.Clock) (session.Store, error) {
	sc := cfg.Session
	switch sc.Backend {
	case "memory":
		return session.NewMemoryStoreWithConfig(session.MemoryStoreConfig{
			TTL:   sc.TTL,
			Clock: clk,
		}), nil

	case "sqlite":
		store, err := session.NewSQLiteStoreWithConfig(session.SQLiteStoreConfig{
			Path:        sc.SQLite.Path,
			TTL:         sc.TTL,
			BusyTimeout: sc.SQLite.BusyTimeout,
			Clock:       clk,
		})
		if err != nil {
			return nil, &ConfigError{Field: "session.sqlite.path", Reason: err.Error()}
		}
		return store, nil

	case "redis":
		return session.NewRedisStore(session.RedisStoreConfig{
			Addr:          sc.Redis.Addr,
			Password:      sc.Redis.Password,
			DB:            sc.Redis.DB,
			KeyPrefix:     sc.Redis.KeyPrefix,
			TTL:           sc.TTL,
			UpdateRetries: sc.Redis.UpdateRetries,
		}), nil

	default:
		return nil, &ConfigError{Field: "session.backend", Reason: fmt.Sprintf("unknown backend %q", sc.Backend)}
	}
}

// asConfigError converts a validation failure to a *ConfigError naming the
// first offending field.
func asConfigError(err error) error {
	var verr config.ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		return &ConfigError{Field: verr.Errors[0].Field, Reason: verr.Errors[0].Message}
	}
	return &ConfigError{Field: "config", Reason: err.Error()}
}

// releaseStore closes a store the guard built when construction fails
// partway.
func (g *Guard) releaseStore() {
	if g.closeStore && g.store != nil {
		g.store.Close()
	}
}

// Inspect evaluates one prompt against its session and returns the
// decision. Plane faults and store outages are absorbed into the decision;
// the only error returns are the caller's own context cancellation and
// ErrClosed.
func (g *Guard) Inspect(ctx context.Context, prompt string, ref SessionRef) (*Decision, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	return g.inspectOne(ctx, prompt, ref)
}

// InspectBatch evaluates independent items on the worker pool and returns
// their decisions in input order regardless of completion order.
func (g *Guard) InspectBatch(ctx context.Context, items []BatchItem) ([]*Decision, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	if len(items) == 0 {
		return []*Decision{}, nil
	}

	out := make([]*Decision, len(items))
	var wg sync.WaitGroup
	closedMid := false

queue:
	for i := range items {
		wg.Add(1)
		select {
		case g.tasks <- batchTask{ctx: ctx, item: items[i], out: out, idx: i, wg: &wg}:
		case <-ctx.Done():
			wg.Done()
			break queue
		case <-g.done:
			wg.Done()
			closedMid = true
			break queue
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if closedMid {
		return nil, ErrClosed
	}
	return out, nil
}

// inspectOne is the shared core of Inspect and InspectBatch items.
func (g *Guard) inspectOne(ctx context.Context, prompt string, ref SessionRef) (*Decision, error) {
	g.inflight.Add(1)
	defer g.inflight.Add(-1)

	ev := g.newEvaluation(ctx, prompt, ref)
	dec, err := g.runner.run(ctx, ev)
	if err != nil {
		return nil, err
	}

	g.metrics.RecordDecision(dec.Action.String())
	g.emitAudit(dec)
	g.logger.Debug("inspection complete",
		"trace_id", dec.TraceID,
		"session_id", ref.SessionID,
		"action", dec.Action.String(),
		"allowed", dec.Allowed,
	)
	return dec, nil
}

// newEvaluation loads or creates the session and binds it to an
// evaluation. A store outage yields an ephemeral session in permissive
// mode; other modes keep the failing store attached so the identity plane
// faults conservatively on its first update.
func (g *Guard) newEvaluation(ctx context.Context, prompt string, ref SessionRef) *planes.Evaluation {
	attrs := ref.attributes()
	now := g.clock.Now().UTC()
	timeout := g.cfg.Pipeline.StoreTimeout

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := g.store.Get(sctx, ref.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		g.recordStoreOp("get", nil)
		sess, err = g.store.Create(sctx, session.New(ref.SessionID, attrs, now))
		g.recordStoreOp("create", err)
	} else {
		g.recordStoreOp("get", err)
	}

	if err != nil {
		if g.runner.failOpen {
			g.logger.Warn("session store unavailable, using ephemeral session",
				"session_id", ref.SessionID,
				"error", err,
			)
			return planes.NewEvaluation(prompt, attrs, session.New(ref.SessionID, attrs, now), nil, 0)
		}
		g.logger.Error("session store unavailable",
			"session_id", ref.SessionID,
			"error", err,
		)
		return planes.NewEvaluation(prompt, attrs, session.New(ref.SessionID, attrs, now), g.store, timeout)
	}
	return planes.NewEvaluation(prompt, attrs, sess, g.store, timeout)
}

// recordStoreOp translates a store result into a metrics sample.
func (g *Guard) recordStoreOp(op string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	g.metrics.RecordStoreOperation(op, result)
}

// emitAudit builds and enqueues the audit record for dec.
func (g *Guard) emitAudit(dec *Decision) {
	if g.emitter == nil {
		return
	}

	rec := &audit.Record{
		Event:        audit.EventSecurityDecision,
		TraceID:      dec.TraceID,
		Timestamp:    dec.Timestamp,
		Allowed:      dec.Allowed,
		Action:       dec.Action.String(),
		Rationale:    dec.Rationale,
		PlaneResults: make(map[string]audit.PlaneEntry, len(dec.PlaneResults)),
		Regulatory:   dec.Regulatory,
	}
	for _, pr := range dec.PlaneResults {
		rec.PlaneResults[pr.PlaneName] = audit.PlaneEntry{
			Passed:    pr.Passed,
			RiskScore: pr.RiskScore,
		}
	}

	if !g.emitter.Emit(rec) {
		g.metrics.RecordAuditDrop()
	}
}

// worker services the batch task queue until Close, then drains whatever
// is already queued.
func (g *Guard) worker() {
	defer g.workerWG.Done()

	for {
		select {
		case <-g.done:
			for {
				select {
				case t := <-g.tasks:
					g.runTask(t)
				default:
					return
				}
			}
		case t := <-g.tasks:
			g.runTask(t)
		}
	}
}

func (g *Guard) runTask(t batchTask) {
	defer t.wg.Done()

	dec, err := g.inspectOne(t.ctx, t.item.Prompt, t.item.Session)
	if err != nil {
		return
	}
	t.out[t.idx] = dec
}

// Registry returns the plane registry for plugin registration.
func (g *Guard) Registry() *Registry {
	return g.registry
}

// Thresholds returns the effective thresholds resolved at construction.
func (g *Guard) Thresholds() config.Thresholds {
	return g.thresholds
}

// SessionStore returns the session store, for session expiry and
// inspection by the embedding application.
func (g *Guard) SessionStore() session.Store {
	return g.store
}

// AuditRecords returns the buffered audit records when the memory audit
// backend is active, oldest first. Other backends return nil.
func (g *Guard) AuditRecords() []*audit.Record {
	if g.auditMem == nil {
		return nil
	}
	return g.auditMem.Records()
}

// AuditDropped returns the number of audit records dropped under
// backpressure.
func (g *Guard) AuditDropped() uint64 {
	if g.emitter == nil {
		return 0
	}
	return g.emitter.Dropped()
}

// Close stops the worker pool, the pattern watcher, and scheduled audit
// pruning, drains queued audit records, and closes stores the guard
// built. Inspections must not be issued after or concurrently with Close.
func (g *Guard) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(g.done)
	g.workerWG.Wait()

	if g.watchCancel != nil {
		g.watchCancel()
	}
	g.bg.Wait()

	if g.pruner != nil {
		g.pruner.Stop()
	}

	var errs []error
	if g.emitter != nil {
		errs = append(errs, g.emitter.Close())
	}
	if g.closeStore {
		errs = append(errs, g.store.Close())
	}
	return errors.Join(errs...)
}
