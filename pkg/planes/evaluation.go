package planes

import (
	"context"
	"time"

	"mercator-hq/ganymede/pkg/planes/patterns"
	"mercator-hq/ganymede/pkg/session"
)

// Evaluation carries one request through the pipeline. It is created per
// inspect call and is not safe for concurrent use; the runner hands it to
// one plane at a time.
type Evaluation struct {
	prompt     string
	normalized string
	attrs      session.Attributes

	sess         *session.Session
	store        session.Store
	storeTimeout time.Duration

	results []*PlaneResult
}

// NewEvaluation prepares an evaluation for prompt against sess. store may
// be nil, in which case the session is ephemeral and mutations apply only
// to the in-memory copy. storeTimeout bounds every store operation issued
// through Update; zero disables the bound.
func NewEvaluation(prompt string, attrs session.Attributes, sess *session.Session, store session.Store, storeTimeout time.Duration) *Evaluation {
	return &Evaluation{
		prompt:       prompt,
		normalized:   patterns.Normalize(prompt),
		attrs:        attrs,
		sess:         sess,
		store:        store,
		storeTimeout: storeTimeout,
	}
}

// Prompt returns the raw prompt under inspection.
func (ev *Evaluation) Prompt() string { return ev.prompt }

// Normalized returns the prompt lowercased with collapsed whitespace, the
// form the pattern tables match against.
func (ev *Evaluation) Normalized() string { return ev.normalized }

// Attributes returns the client attributes presented with this request.
func (ev *Evaluation) Attributes() session.Attributes { return ev.attrs }

// Session returns the current working view of the session. Update
// refreshes the view after every committed mutation, so planes later in
// the pipeline observe the effects of earlier ones.
func (ev *Evaluation) Session() *session.Session { return ev.sess }

// Ephemeral reports whether the session is detached from a store. The
// guard falls back to an ephemeral session when the store is unavailable
// in permissive mode.
func (ev *Evaluation) Ephemeral() bool { return ev.store == nil }

// Results returns the results recorded so far, in execution order.
// Callers must not modify the returned slice.
func (ev *Evaluation) Results() []*PlaneResult { return ev.results }

// AppendResult records a plane's result. Called by the runner only.
func (ev *Evaluation) AppendResult(r *PlaneResult) {
	ev.results = append(ev.results, r)
}

// Update applies fn to the session through the store's atomic
// read-modify-write primitive and refreshes the working view with the
// committed state. fn must be pure: distributed stores may re-run it on
// contention. For ephemeral sessions fn is applied directly to the
// detached copy.
func (ev *Evaluation) Update(ctx context.Context, fn func(*session.Session)) error {
	if ev.store == nil {
		fn(ev.sess)
		return nil
	}
	if ev.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ev.storeTimeout)
		defer cancel()
	}
	updated, err := ev.store.AtomicUpdate(ctx, ev.sess.ID, fn)
	if err != nil {
		return err
	}
	ev.sess = updated
	return nil
}
