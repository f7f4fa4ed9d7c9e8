package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "paranoid"
	cfg.Pipeline.Workers = -1
	cfg.Session.Backend = "etcd"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) < 3 {
		t.Errorf("expected at least 3 errors, got %d", len(validationErr.Errors))
	}

	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantError  bool
		errorField string
	}{
		{
			name:      "preset thresholds are valid",
			mutate:    func(cfg *Config) {},
			wantError: false,
		},
		{
			name: "trust_full above 100",
			mutate: func(cfg *Config) {
				cfg.Thresholds.TrustFull = 150
			},
			wantError:  true,
			errorField: "thresholds.trust_full",
		},
		{
			name: "trust_full not above trust_degraded",
			mutate: func(cfg *Config) {
				cfg.Thresholds.TrustFull = 30
				cfg.Thresholds.TrustDegraded = 30
			},
			wantError:  true,
			errorField: "thresholds.trust_full",
		},
		{
			name: "intent_sensitivity above 1",
			mutate: func(cfg *Config) {
				cfg.Thresholds.IntentSensitivity = 1.5
			},
			wantError:  true,
			errorField: "thresholds.intent_sensitivity",
		},
		{
			name: "negative max_burn_rate",
			mutate: func(cfg *Config) {
				cfg.Thresholds.MaxBurnRate = -1
			},
			wantError:  true,
			errorField: "thresholds.max_burn_rate",
		},
		{
			name: "degrade_cutoff above block_cutoff",
			mutate: func(cfg *Config) {
				cfg.Thresholds.DegradeCutoff = 0.9
				cfg.Thresholds.BlockCutoff = 0.6
			},
			wantError:  true,
			errorField: "thresholds.degrade_cutoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("expected error to mention %q, got: %v", tt.errorField, err)
				}
			} else if err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidate_Session(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name: "unknown backend",
			mutate: func(cfg *Config) {
				cfg.Session.Backend = "dynamodb"
			},
			errorField: "session.backend",
		},
		{
			name: "non-positive ttl",
			mutate: func(cfg *Config) {
				cfg.Session.TTL = -time.Second
			},
			errorField: "session.ttl",
		},
		{
			name: "zero recent prompts cap",
			mutate: func(cfg *Config) {
				cfg.Session.RecentPromptsCap = -1
			},
			errorField: "session.recent_prompts_cap",
		},
		{
			name: "non-positive burn window",
			mutate: func(cfg *Config) {
				cfg.Session.BurnWindow = -time.Second
			},
			errorField: "session.burn_window",
		},
		{
			name: "redis backend without addr",
			mutate: func(cfg *Config) {
				cfg.Session.Backend = "redis"
				cfg.Session.Redis.Addr = ""
			},
			errorField: "session.redis.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("expected error to mention %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Audit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Backend = "kafka"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "audit.backend") {
		t.Errorf("expected error to mention audit.backend, got: %v", err)
	}
}

func TestFieldError_Message(t *testing.T) {
	fe := FieldError{Field: "session.ttl", Message: "must be positive"}
	if fe.Error() != "session.ttl: must be positive" {
		t.Errorf("unexpected field error format: %s", fe.Error())
	}
}
