package session

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by session stores.
var (
	// ErrSessionNotFound indicates the session does not exist or has
	// expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable indicates the store's backing infrastructure
	// could not be reached. The guard degrades per its mode when this
	// surfaces at request time.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrUpdateConflict indicates an atomic update exhausted its retry
	// budget without winning the compare-and-set race.
	ErrUpdateConflict = errors.New("session update conflict")

	// ErrStoreClosed indicates an operation was issued after Close.
	ErrStoreClosed = errors.New("session store closed")
)

// StoreError wraps a failure from a session store operation with the
// operation name for log and audit context.
type StoreError struct {
	// Op is the failing operation: "get", "create", "update", "delete",
	// or "ping".
	Op string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message for this store error.
func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// unavailable wraps err as a StoreError that matches ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return &StoreError{Op: op, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}
