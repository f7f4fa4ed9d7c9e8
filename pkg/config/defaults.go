package config

import "time"

// Default values for configuration fields.
const (
	// Mode defaults
	DefaultMode = ModeBalanced

	// Pipeline defaults
	DefaultWorkers      = 4
	DefaultStoreTimeout = 2 * time.Second

	// Session defaults
	DefaultSessionBackend   = "memory"
	DefaultSessionTTL       = 24 * time.Hour
	DefaultRecentPromptsCap = 10
	DefaultBurnWindow       = 10 * time.Second

	// Session store backend defaults
	DefaultSessionSQLitePath  = "data/sessions.db"
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultRedisAddr          = "127.0.0.1:6379"
	DefaultRedisKeyPrefix     = "ganymede:session:"
	DefaultRedisUpdateRetries = 8

	// Token estimator defaults
	DefaultCharsPerToken = 4.0

	// Pattern pack defaults
	DefaultPatternDebounce = 100 * time.Millisecond

	// Audit defaults
	DefaultAuditBuffer        = 256
	DefaultAuditBackend       = "slog"
	DefaultAuditRetentionDays = 90
	DefaultAuditSQLitePath    = "data/audit.db"
	DefaultAuditMaxOpenConns  = 10
	DefaultAuditMaxIdleConns  = 5
)

// DefaultConfig returns a configuration populated with every default value.
// The result is valid as-is and describes a balanced-mode guard with an
// in-memory session store and slog audit sink.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg with default values.
// Explicitly configured fields are never modified.
func ApplyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}

	// Pipeline defaults
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultWorkers
	}
	if cfg.Pipeline.StoreTimeout == 0 {
		cfg.Pipeline.StoreTimeout = DefaultStoreTimeout
	}

	// Session defaults
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = DefaultSessionBackend
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.RecentPromptsCap == 0 {
		cfg.Session.RecentPromptsCap = DefaultRecentPromptsCap
	}
	if cfg.Session.BurnWindow == 0 {
		cfg.Session.BurnWindow = DefaultBurnWindow
	}
	if cfg.Session.SQLite.Path == "" {
		cfg.Session.SQLite.Path = DefaultSessionSQLitePath
	}
	if cfg.Session.SQLite.BusyTimeout == 0 {
		cfg.Session.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Session.Redis.Addr == "" {
		cfg.Session.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Session.Redis.KeyPrefix == "" {
		cfg.Session.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Session.Redis.UpdateRetries == 0 {
		cfg.Session.Redis.UpdateRetries = DefaultRedisUpdateRetries
	}

	// Token estimator defaults
	if cfg.Tokens.CharsPerToken == 0 {
		cfg.Tokens.CharsPerToken = DefaultCharsPerToken
	}

	// Pattern pack defaults
	if cfg.Patterns.DebounceInterval == 0 {
		cfg.Patterns.DebounceInterval = DefaultPatternDebounce
	}

	// Audit defaults
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}
