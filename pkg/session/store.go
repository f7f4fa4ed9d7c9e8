package session

import (
	"context"
)

// Store persists sessions keyed by session ID.
//
// All implementations apply a TTL on create and refresh it on every update.
// AtomicUpdate is the only mutation path used at request time and must
// provide exclusive read-modify-write semantics: two concurrent updates
// against the same session never interleave.
type Store interface {
	// Get returns a copy of the session with the given ID.
	// Returns ErrSessionNotFound if the session does not exist or has
	// expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Create persists sess, applies the store TTL, and returns a copy.
	// An existing session with the same ID is replaced.
	Create(ctx context.Context, sess *Session) (*Session, error)

	// AtomicUpdate applies fn to the current session under exclusive
	// access, increments the session version, refreshes the TTL, and
	// returns a copy of the updated session. fn must be a pure function
	// of its argument: distributed stores may invoke it more than once
	// when retrying a contended compare-and-set.
	// Returns ErrSessionNotFound if the session does not exist.
	AtomicUpdate(ctx context.Context, id string, fn func(*Session)) (*Session, error)

	// Delete removes the session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the store's backing infrastructure is
	// reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
