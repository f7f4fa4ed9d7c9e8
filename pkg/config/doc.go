// Package config provides configuration management for Ganymede guards.
//
// This package handles loading, validating, and resolving configuration from
// YAML files. It provides a type-safe configuration system with mode presets
// and sensible defaults.
//
// # Modes
//
// A guard runs in one of three modes that trade strictness for availability:
//
//   - strict: high trust bar, aggressive intent matching, tight burn limits
//   - balanced: the default posture for production traffic
//   - permissive: fail-open behavior, loose thresholds, for low-risk surfaces
//
// Each mode is a preset over the same threshold fields. Explicit values in
// the thresholds section override the preset field-by-field; zero values
// take the preset. Presets are resolved exactly once, when the guard is
// constructed, so mode semantics never shift mid-flight.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("ganymede.yaml")
//
// Loading applies defaults, then validates. Programmatic construction goes
// through DefaultConfig followed by field assignment:
//
//	cfg := config.DefaultConfig()
//	cfg.Mode = config.ModeStrict
//	cfg.Session.Backend = "redis"
//
// # Validation
//
// Validate collects every violation into a single ValidationError so a bad
// file reports all problems at once. Validation failures are setup-time
// errors; a validated configuration cannot produce configuration errors at
// request time.
package config
