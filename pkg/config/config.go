package config

import (
	"time"
)

// Config is the root configuration for a Ganymede guard.
//
// The zero value is not directly usable; construct with DefaultConfig or
// load from YAML with LoadConfig, both of which apply defaults.
type Config struct {
	// Mode selects the threshold preset: "strict", "balanced", or
	// "permissive". Default: "balanced"
	Mode string `yaml:"mode"`

	// Thresholds overrides individual preset values. Zero-valued fields
	// take the mode preset.
	Thresholds ThresholdOverrides `yaml:"thresholds"`

	// Pipeline configures runner and scheduling behavior.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Session configures the session store.
	Session SessionConfig `yaml:"session"`

	// Tokens configures the deterministic token estimator.
	Tokens TokensConfig `yaml:"tokens"`

	// Planes toggles individual built-in planes. All are enabled by
	// default; the compliance plane cannot be disabled.
	Planes PlanesConfig `yaml:"planes"`

	// Patterns configures external pattern packs.
	Patterns PatternsConfig `yaml:"patterns"`

	// Audit configures decision audit emission and storage.
	Audit AuditConfig `yaml:"audit"`
}

// ThresholdOverrides carries per-field overrides of the mode preset.
// A zero value means "use the preset"; see Resolve for the merged result.
type ThresholdOverrides struct {
	// TrustFull is the trust score at or above which a session receives
	// full service. Default: mode preset
	TrustFull int `yaml:"trust_full"`

	// TrustDegraded is the trust score at or above which a session
	// receives degraded service. Sessions below it fail the identity
	// plane. Default: mode preset
	TrustDegraded int `yaml:"trust_degraded"`

	// IntentSensitivity is the minimum intent risk score that fails the
	// intent plane. Lower values are stricter. Default: mode preset
	IntentSensitivity float64 `yaml:"intent_sensitivity"`

	// MaxBurnRate is the sustained token consumption ceiling in tokens
	// per second, measured over the burn window. Default: mode preset
	MaxBurnRate float64 `yaml:"max_burn_rate"`

	// DegradeCutoff is the risk score at or above which a failing plane
	// short-circuits the pipeline. Failing results below the block
	// cutoff resolve to DEGRADE. Default: mode preset
	DegradeCutoff float64 `yaml:"degrade_cutoff"`

	// BlockCutoff is the risk score at or above which a failing plane
	// resolves to BLOCK rather than DEGRADE. Default: mode preset
	BlockCutoff float64 `yaml:"block_cutoff"`
}

// PipelineConfig configures the pipeline runner and batch scheduling.
type PipelineConfig struct {
	// Workers is the fixed size of the worker pool used for batch
	// inspection. Default: 4
	Workers int `yaml:"workers"`

	// StoreTimeout bounds every session store operation issued during an
	// inspection. Default: 2s
	StoreTimeout time.Duration `yaml:"store_timeout"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	// Backend selects the store implementation: "memory", "sqlite", or
	// "redis". Default: "memory"
	Backend string `yaml:"backend"`

	// TTL is the session time-to-live, applied on create and refreshed
	// on every update. Default: 24h
	TTL time.Duration `yaml:"ttl"`

	// RecentPromptsCap bounds the per-session prompt history used for
	// multi-turn correlation. Default: 10
	RecentPromptsCap int `yaml:"recent_prompts_cap"`

	// BurnWindow is the sliding window over which token burn rate is
	// measured. Default: 10s
	BurnWindow time.Duration `yaml:"burn_window"`

	// SQLite configures the sqlite backend. Ignored otherwise.
	SQLite SQLiteSessionConfig `yaml:"sqlite"`

	// Redis configures the redis backend. Ignored otherwise.
	Redis RedisSessionConfig `yaml:"redis"`
}

// SQLiteSessionConfig configures the durable single-node session store.
type SQLiteSessionConfig struct {
	// Path is the database file path. Default: "data/sessions.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedisSessionConfig configures the distributed session store.
type RedisSessionConfig struct {
	// Addr is the host:port of the redis server. Default: "127.0.0.1:6379"
	Addr string `yaml:"addr"`

	// Password authenticates the connection. Default: ""
	Password string `yaml:"password"`

	// DB selects the redis logical database. Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces session keys. Default: "ganymede:session:"
	KeyPrefix string `yaml:"key_prefix"`

	// UpdateRetries bounds the compare-and-set retry loop used by atomic
	// session updates under contention. Default: 8
	UpdateRetries int `yaml:"update_retries"`
}

// TokensConfig configures the deterministic token estimator.
type TokensConfig struct {
	// CharsPerToken is the average characters-per-token ratio used by
	// the estimator. Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// PlanesConfig toggles built-in planes. The zero value enables everything.
// Compliance has no toggle: it always runs.
type PlanesConfig struct {
	// DisableIdentity skips the identity plane.
	DisableIdentity bool `yaml:"disable_identity"`

	// DisableIntent skips the intent plane.
	DisableIntent bool `yaml:"disable_intent"`

	// DisableContext skips the contextual plane.
	DisableContext bool `yaml:"disable_context"`

	// DisableEconomics skips the economics plane.
	DisableEconomics bool `yaml:"disable_economics"`
}

// PatternsConfig configures external pattern packs for the intent,
// contextual, and compliance planes.
type PatternsConfig struct {
	// PackPath is an optional YAML pattern pack merged over the built-in
	// tables at construction. Default: "" (built-ins only)
	PackPath string `yaml:"pack_path"`

	// Watch reloads the pack when the file changes on disk.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file event before the
	// pack is reloaded. Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// AuditConfig configures decision audit emission.
type AuditConfig struct {
	// Disabled turns off audit emission entirely. Inspections still
	// produce full decisions.
	Disabled bool `yaml:"disabled"`

	// Buffer is the emitter channel capacity. Records beyond it are
	// dropped and counted rather than blocking inspection. Default: 256
	Buffer int `yaml:"buffer"`

	// Backend selects the audit sink: "slog", "memory", or "sqlite".
	// Default: "slog"
	Backend string `yaml:"backend"`

	// MaxRecords caps the memory backend and drives count-based
	// retention for persistent backends. Zero means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// RetentionDays is the age beyond which stored records are pruned.
	// Zero disables age-based pruning. Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression for automatic pruning
	// of stored records. Empty disables the scheduler. Default: ""
	PruneSchedule string `yaml:"prune_schedule"`

	// SQLite configures the sqlite audit backend. Ignored otherwise.
	SQLite SQLiteAuditConfig `yaml:"sqlite"`
}

// SQLiteAuditConfig configures the sqlite audit record store.
type SQLiteAuditConfig struct {
	// Path is the database file path. Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}
