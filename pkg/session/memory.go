package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using process-local memory.
// This is the default store and provides fast access with no persistence.
// All sessions are lost when the process exits.
//
// # Thread Safety
//
// The session map is guarded by a sync.RWMutex; every session entry carries
// its own mutex, so atomic updates against different sessions never block
// each other. Updates against the same session serialize on the entry lock.
//
// # Expiry
//
// Expiry is lazy: expired entries are treated as absent on access and
// removed. An optional background sweep reclaims memory for sessions that
// are never touched again.
type MemoryStore struct {
	// entries maps session ID to its locked entry.
	entries map[string]*memoryEntry

	// mu protects access to the entries map.
	mu sync.RWMutex

	ttl   time.Duration
	clock Clock

	done      chan struct{}
	closeOnce sync.Once
}

// memoryEntry owns one session. The entry mutex provides the per-session
// exclusive locking behind AtomicUpdate.
type memoryEntry struct {
	mu        sync.Mutex
	sess      *Session
	expiresAt time.Time
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// TTL is the session time-to-live. Default: 24 hours
	TTL time.Duration

	// SweepInterval is how often the background sweep removes expired
	// entries. Negative disables the sweep; expiry is then purely lazy.
	// Default: 1 minute
	SweepInterval time.Duration

	// Clock supplies time. Default: SystemClock
	Clock Clock
}

// NewMemoryStore creates a new in-memory session store with the given TTL
// and default settings.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{TTL: ttl})
}

// NewMemoryStoreWithConfig creates a new in-memory session store with
// custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     cfg.TTL,
		clock:   cfg.Clock,
		done:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go s.sweepLoop(cfg.SweepInterval)
	}

	return s
}

// Get returns a copy of the session with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := s.entry(id)
	if !ok {
		return nil, &StoreError{Op: "get", Err: ErrSessionNotFound}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s.expired(e) {
		s.removeEntry(id, e)
		return nil, &StoreError{Op: "get", Err: ErrSessionNotFound}
	}

	return e.sess.Clone(), nil
}

// Create persists sess with a fresh TTL, replacing any existing session
// with the same ID.
func (s *MemoryStore) Create(ctx context.Context, sess *Session) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := &memoryEntry{
		sess:      sess.Clone(),
		expiresAt: s.clock.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()

	return sess.Clone(), nil
}

// AtomicUpdate applies fn to the session under the per-session entry lock.
func (s *MemoryStore) AtomicUpdate(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := s.entry(id)
	if !ok {
		return nil, &StoreError{Op: "update", Err: ErrSessionNotFound}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s.expired(e) {
		s.removeEntry(id, e)
		return nil, &StoreError{Op: "update", Err: ErrSessionNotFound}
	}

	fn(e.sess)
	e.sess.Version++
	e.expiresAt = s.clock.Now().Add(s.ttl)

	return e.sess.Clone(), nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds for the memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close stops the background sweep. The store remains usable afterwards;
// expiry becomes purely lazy.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Len returns the number of live entries, counting expired entries that
// have not been swept yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// entry fetches the entry pointer for id under the map read lock.
func (s *MemoryStore) entry(id string) (*memoryEntry, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	return e, ok
}

// expired reports whether e is past its TTL. Caller holds e.mu.
func (s *MemoryStore) expired(e *memoryEntry) bool {
	return s.clock.Now().After(e.expiresAt)
}

// removeEntry deletes the entry from the map if it is still the current
// mapping for id. Caller holds e.mu; the map lock is always acquired after
// entry locks, never before.
func (s *MemoryStore) removeEntry(id string, e *memoryEntry) {
	s.mu.Lock()
	if cur, ok := s.entries[id]; ok && cur == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

// sweepLoop periodically removes expired entries until Close.
func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes all entries past their TTL.
func (s *MemoryStore) sweep() {
	s.mu.RLock()
	candidates := make(map[string]*memoryEntry, len(s.entries))
	for id, e := range s.entries {
		candidates[id] = e
	}
	s.mu.RUnlock()

	for id, e := range candidates {
		e.mu.Lock()
		if s.expired(e) {
			s.removeEntry(id, e)
		}
		e.mu.Unlock()
	}
}
