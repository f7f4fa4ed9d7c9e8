package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "session.ttl").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateMode(cfg)...)
	errs = append(errs, validatePipeline(&cfg.Pipeline)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateMode checks the mode name and the resolved thresholds.
func validateMode(cfg *Config) []FieldError {
	var errs []FieldError

	t, err := Resolve(cfg)
	if err != nil {
		errs = append(errs, FieldError{
			Field:   "mode",
			Message: err.Error(),
		})
		return errs
	}

	if t.TrustFull < 1 || t.TrustFull > 100 {
		errs = append(errs, FieldError{
			Field:   "thresholds.trust_full",
			Message: fmt.Sprintf("must be within [1, 100], got %d", t.TrustFull),
		})
	}
	if t.TrustDegraded < 0 || t.TrustDegraded > 100 {
		errs = append(errs, FieldError{
			Field:   "thresholds.trust_degraded",
			Message: fmt.Sprintf("must be within [0, 100], got %d", t.TrustDegraded),
		})
	}
	if t.TrustFull <= t.TrustDegraded {
		errs = append(errs, FieldError{
			Field:   "thresholds.trust_full",
			Message: fmt.Sprintf("must be greater than trust_degraded (%d <= %d)", t.TrustFull, t.TrustDegraded),
		})
	}
	if t.IntentSensitivity <= 0 || t.IntentSensitivity > 1 {
		errs = append(errs, FieldError{
			Field:   "thresholds.intent_sensitivity",
			Message: fmt.Sprintf("must be within (0, 1], got %g", t.IntentSensitivity),
		})
	}
	if t.MaxBurnRate <= 0 {
		errs = append(errs, FieldError{
			Field:   "thresholds.max_burn_rate",
			Message: fmt.Sprintf("must be positive, got %g", t.MaxBurnRate),
		})
	}
	if t.DegradeCutoff <= 0 || t.DegradeCutoff > 1 {
		errs = append(errs, FieldError{
			Field:   "thresholds.degrade_cutoff",
			Message: fmt.Sprintf("must be within (0, 1], got %g", t.DegradeCutoff),
		})
	}
	if t.BlockCutoff <= 0 || t.BlockCutoff > 1 {
		errs = append(errs, FieldError{
			Field:   "thresholds.block_cutoff",
			Message: fmt.Sprintf("must be within (0, 1], got %g", t.BlockCutoff),
		})
	}
	if t.DegradeCutoff > t.BlockCutoff {
		errs = append(errs, FieldError{
			Field:   "thresholds.degrade_cutoff",
			Message: fmt.Sprintf("must not exceed block_cutoff (%g > %g)", t.DegradeCutoff, t.BlockCutoff),
		})
	}

	return errs
}

// validatePipeline checks runner and scheduling settings.
func validatePipeline(p *PipelineConfig) []FieldError {
	var errs []FieldError

	if p.Workers < 1 {
		errs = append(errs, FieldError{
			Field:   "pipeline.workers",
			Message: fmt.Sprintf("must be at least 1, got %d", p.Workers),
		})
	}
	if p.StoreTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "pipeline.store_timeout",
			Message: "must be positive",
		})
	}

	return errs
}

// validateSession checks session persistence settings.
func validateSession(s *SessionConfig) []FieldError {
	var errs []FieldError

	switch s.Backend {
	case "memory", "sqlite", "redis":
	default:
		errs = append(errs, FieldError{
			Field:   "session.backend",
			Message: fmt.Sprintf("must be one of memory, sqlite, redis; got %q", s.Backend),
		})
	}
	if s.TTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "session.ttl",
			Message: "must be positive",
		})
	}
	if s.RecentPromptsCap < 1 {
		errs = append(errs, FieldError{
			Field:   "session.recent_prompts_cap",
			Message: fmt.Sprintf("must be at least 1, got %d", s.RecentPromptsCap),
		})
	}
	if s.BurnWindow <= 0 {
		errs = append(errs, FieldError{
			Field:   "session.burn_window",
			Message: "must be positive",
		})
	}
	if s.Backend == "sqlite" && s.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "session.sqlite.path",
			Message: "required when backend is sqlite",
		})
	}
	if s.Backend == "redis" && s.Redis.Addr == "" {
		errs = append(errs, FieldError{
			Field:   "session.redis.addr",
			Message: "required when backend is redis",
		})
	}
	if s.Redis.UpdateRetries < 1 {
		errs = append(errs, FieldError{
			Field:   "session.redis.update_retries",
			Message: fmt.Sprintf("must be at least 1, got %d", s.Redis.UpdateRetries),
		})
	}

	return errs
}

// validateTokens checks the token estimator settings.
func validateTokens(t *TokensConfig) []FieldError {
	var errs []FieldError

	if t.CharsPerToken <= 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.chars_per_token",
			Message: fmt.Sprintf("must be positive, got %g", t.CharsPerToken),
		})
	}

	return errs
}

// validateAudit checks audit emission settings.
func validateAudit(a *AuditConfig) []FieldError {
	var errs []FieldError

	if a.Buffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer",
			Message: fmt.Sprintf("must be at least 1, got %d", a.Buffer),
		})
	}
	switch a.Backend {
	case "slog", "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("must be one of slog, memory, sqlite; got %q", a.Backend),
		})
	}
	if a.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.max_records",
			Message: fmt.Sprintf("must not be negative, got %d", a.MaxRecords),
		})
	}
	if a.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: fmt.Sprintf("must not be negative, got %d", a.RetentionDays),
		})
	}
	if a.Backend == "sqlite" && a.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.path",
			Message: "required when backend is sqlite",
		})
	}

	return errs
}
