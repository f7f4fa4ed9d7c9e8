package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionUpdateScript performs the atomic read-modify-write behind
// RedisStore.AtomicUpdate. It replaces the session payload if and only if
// the stored version still matches the version the caller read, so two
// concurrent updates against the same session never interleave: the loser
// observes a version mismatch and retries against the fresh state.
//
// KEYS[1] session key
// ARGV[1] expected version
// ARGV[2] replacement JSON payload (version already incremented)
// ARGV[3] TTL in seconds (0 = no expiry)
//
// Returns 1 on success, 0 on version conflict, -1 when the key is absent.
var sessionUpdateScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
	return -1
end
local sess = cjson.decode(cur)
if tonumber(sess.version) ~= tonumber(ARGV[1]) then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'EX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore implements Store on a redis server, for fleets that share
// sessions across instances. Session values are stored as JSON strings
// under KeyPrefix + session ID with a server-side TTL.
type RedisStore struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	updateRetries int
}

// RedisStoreConfig configures the redis session store.
type RedisStoreConfig struct {
	// Addr is the host:port of the redis server. Default: "127.0.0.1:6379"
	Addr string

	// Password authenticates the connection. Default: ""
	Password string

	// DB selects the redis logical database. Default: 0
	DB int

	// KeyPrefix namespaces session keys. Default: "ganymede:session:"
	KeyPrefix string

	// TTL is the session time-to-live. Default: 24 hours
	TTL time.Duration

	// UpdateRetries bounds the compare-and-set retry loop under
	// contention. Default: 8
	UpdateRetries int
}

// NewRedisStore creates a redis session store with its own client.
func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg)
}

// NewRedisStoreWithClient creates a redis session store on an existing
// client. The store takes ownership of the client and closes it with Close.
func NewRedisStoreWithClient(client *redis.Client, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ganymede:session:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.UpdateRetries < 1 {
		cfg.UpdateRetries = 8
	}

	return &RedisStore{
		client:        client,
		keyPrefix:     cfg.KeyPrefix,
		ttl:           cfg.TTL,
		updateRetries: cfg.UpdateRetries,
	}
}

// Get returns the session stored under id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &StoreError{Op: "get", Err: ErrSessionNotFound}
		}
		return nil, unavailable("get", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("corrupt session payload: %w", err)}
	}
	return &sess, nil
}

// Create persists sess with a fresh TTL, replacing any existing session
// with the same ID.
func (s *RedisStore) Create(ctx context.Context, sess *Session) (*Session, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	if err := s.client.Set(ctx, s.key(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, unavailable("create", err)
	}
	return sess.Clone(), nil
}

// AtomicUpdate applies fn under compare-and-set semantics: read, mutate a
// private copy, then atomically swap via sessionUpdateScript. On version
// conflict the update is retried against the fresh state, so fn may be
// invoked more than once and must be pure.
func (s *RedisStore) AtomicUpdate(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	for attempt := 0; attempt < s.updateRetries; attempt++ {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		expect := cur.Version
		fn(cur)
		cur.Version = expect + 1

		payload, err := json.Marshal(cur)
		if err != nil {
			return nil, &StoreError{Op: "update", Err: err}
		}

		res, err := sessionUpdateScript.Run(ctx, s.client,
			[]string{s.key(id)}, expect, payload, s.ttlSeconds()).Result()
		if err != nil {
			return nil, unavailable("update", err)
		}

		outcome, ok := res.(int64)
		if !ok {
			return nil, &StoreError{Op: "update", Err: fmt.Errorf("unexpected script result %T", res)}
		}

		switch outcome {
		case 1:
			return cur, nil
		case -1:
			return nil, &StoreError{Op: "update", Err: ErrSessionNotFound}
		}
		// Version conflict: another writer won; reload and retry.
	}

	return nil, &StoreError{Op: "update", Err: ErrUpdateConflict}
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Ping reports whether the redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// ttlSeconds converts the TTL for the SET EX argument, rounding sub-second
// TTLs up so they never silently become "no expiry".
func (s *RedisStore) ttlSeconds() int64 {
	secs := int64(s.ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
