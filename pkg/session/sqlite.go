package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// This store provides durable sessions for single-instance deployments that
// must survive restarts. For multi-instance fleets use RedisStore.
//
// SQLite supports a single writer, so atomic updates serialize globally on
// a store-level mutex; the read-modify-write inside an update is executed
// in one transaction and is never interleaved with another update.
type SQLiteStore struct {
	db    *sql.DB
	ttl   time.Duration
	clock Clock

	// mu serializes read-modify-write transactions.
	mu sync.Mutex

	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	sweepStmt  *sql.Stmt

	done      chan struct{}
	closeOnce sync.Once
}

// SQLiteStoreConfig configures the SQLite session store.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	Path string

	// TTL is the session time-to-live. Default: 24 hours
	TTL time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// SweepInterval is how often expired rows are deleted. Negative
	// disables the sweep; expiry is then purely lazy.
	// Default: 1 minute
	SweepInterval time.Duration

	// Clock supplies time. Default: SystemClock
	Clock Clock
}

// NewSQLiteStore creates a SQLite session store at path with default
// settings.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{Path: path, TTL: ttl})
}

// NewSQLiteStoreWithConfig creates a SQLite session store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:    db,
		ttl:   cfg.TTL,
		clock: cfg.Clock,
		done:  make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	if cfg.SweepInterval > 0 {
		go s.sweepLoop(cfg.SweepInterval)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT data FROM sessions
		WHERE id = ? AND expires_at > ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.upsertStmt, err = s.db.Prepare(`
		INSERT INTO sessions (id, data, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM sessions WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.sweepStmt, err = s.db.Prepare(`
		DELETE FROM sessions WHERE expires_at <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep statement: %w", err)
	}

	return nil
}

// Get returns the session stored under id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var data string
	err := s.getStmt.QueryRowContext(ctx, id, s.clock.Now().UnixNano()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Op: "get", Err: ErrSessionNotFound}
		}
		return nil, unavailable("get", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("corrupt session payload: %w", err)}
	}
	return &sess, nil
}

// Create persists sess with a fresh TTL, replacing any existing session
// with the same ID.
func (s *SQLiteStore) Create(ctx context.Context, sess *Session) (*Session, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	expiresAt := s.clock.Now().Add(s.ttl).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.upsertStmt.ExecContext(ctx, sess.ID, string(payload), expiresAt); err != nil {
		return nil, unavailable("create", err)
	}
	return sess.Clone(), nil
}

// AtomicUpdate applies fn inside a single serialized read-modify-write.
func (s *SQLiteStore) AtomicUpdate(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.getStmt.QueryRowContext(ctx, id, s.clock.Now().UnixNano()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Op: "update", Err: ErrSessionNotFound}
		}
		return nil, unavailable("update", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, &StoreError{Op: "update", Err: fmt.Errorf("corrupt session payload: %w", err)}
	}

	fn(&sess)
	sess.Version++

	payload, err := json.Marshal(&sess)
	if err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}

	expiresAt := s.clock.Now().Add(s.ttl).UnixNano()
	if _, err := s.upsertStmt.ExecContext(ctx, id, string(payload), expiresAt); err != nil {
		return nil, unavailable("update", err)
	}

	return &sess, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.deleteStmt.ExecContext(ctx, id); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close stops the sweep goroutine and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.db.Close()
	})
	return err
}

// sweepLoop periodically deletes expired rows until Close.
func (s *SQLiteStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			_, _ = s.sweepStmt.Exec(s.clock.Now().UnixNano())
			s.mu.Unlock()
		}
	}
}
