// Package session defines the per-conversation security state tracked by a
// Ganymede guard and the stores that persist it.
//
// A Session carries the trust score, client fingerprint, bounded prompt
// history, and token burn window for one conversation. Sessions are plain
// JSON-serializable values; all concurrency control lives in the Store.
//
// # Stores
//
// Three Store implementations are provided:
//
//   - MemoryStore: process-local, per-session exclusive locking, lazy TTL
//     expiry with an optional background sweep. The default.
//   - SQLiteStore: durable single-node storage for deployments that must
//     survive restarts.
//   - RedisStore: distributed storage for fleets that share sessions across
//     instances. Atomic updates run as a compare-and-set Lua script so two
//     concurrent updates against the same session never interleave.
//
// # Atomic Updates
//
// AtomicUpdate is the only mutation path used at request time. The store
// guarantees exclusive read-modify-write semantics: the supplied function
// observes a consistent session, and its result is persisted atomically with
// a refreshed TTL and an incremented version. Updates to different sessions
// never contend with each other in the memory store.
package session
