package config

import "fmt"

// Guard modes. Each selects a threshold preset; see Resolve.
const (
	ModeStrict     = "strict"
	ModeBalanced   = "balanced"
	ModePermissive = "permissive"
)

// Thresholds is the fully resolved set of effective thresholds for a guard:
// the mode preset merged with any explicit overrides. It is computed once
// at guard construction and never changes afterward.
type Thresholds struct {
	TrustFull         int
	TrustDegraded     int
	IntentSensitivity float64
	MaxBurnRate       float64
	DegradeCutoff     float64
	BlockCutoff       float64
}

// presets maps each mode to its threshold preset.
//
//	mode        full  degraded  sensitivity  burn     degrade  block
//	strict      80    50        0.30         500/s    0.30     0.60
//	balanced    70    40        0.50         1000/s   0.50     0.80
//	permissive  50    20        0.70         2000/s   0.70     0.95
var presets = map[string]Thresholds{
	ModeStrict: {
		TrustFull:         80,
		TrustDegraded:     50,
		IntentSensitivity: 0.3,
		MaxBurnRate:       500,
		DegradeCutoff:     0.3,
		BlockCutoff:       0.6,
	},
	ModeBalanced: {
		TrustFull:         70,
		TrustDegraded:     40,
		IntentSensitivity: 0.5,
		MaxBurnRate:       1000,
		DegradeCutoff:     0.5,
		BlockCutoff:       0.8,
	},
	ModePermissive: {
		TrustFull:         50,
		TrustDegraded:     20,
		IntentSensitivity: 0.7,
		MaxBurnRate:       2000,
		DegradeCutoff:     0.7,
		BlockCutoff:       0.95,
	},
}

// ValidModes returns the recognized mode names.
func ValidModes() []string {
	return []string{ModeStrict, ModeBalanced, ModePermissive}
}

// Resolve merges the mode preset with any explicit threshold overrides and
// returns the effective thresholds. Zero-valued override fields take the
// preset value. An unknown mode is an error.
func Resolve(cfg *Config) (Thresholds, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = DefaultMode
	}

	preset, ok := presets[mode]
	if !ok {
		return Thresholds{}, fmt.Errorf("unknown mode %q (valid: strict, balanced, permissive)", mode)
	}

	t := preset
	ov := cfg.Thresholds
	if ov.TrustFull != 0 {
		t.TrustFull = ov.TrustFull
	}
	if ov.TrustDegraded != 0 {
		t.TrustDegraded = ov.TrustDegraded
	}
	if ov.IntentSensitivity != 0 {
		t.IntentSensitivity = ov.IntentSensitivity
	}
	if ov.MaxBurnRate != 0 {
		t.MaxBurnRate = ov.MaxBurnRate
	}
	if ov.DegradeCutoff != 0 {
		t.DegradeCutoff = ov.DegradeCutoff
	}
	if ov.BlockCutoff != 0 {
		t.BlockCutoff = ov.BlockCutoff
	}

	return t, nil
}
