package patterns

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// packFile is the YAML schema of an external pattern pack.
//
//	intent:
//	  - category: privilege_escalation
//	    patterns:
//	      - expr: '(?i)sudo\s+mode'
//	        weight: 0.8
//	poison:
//	  directives: '(?i)\b(ignore|reset)\b'
//	  targets: '(?i)\bsystem prompt\b'
//	pii:
//	  - name: iban
//	    expr: '\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b'
//	    regulatory:
//	      GDPR: 'Art. 4(1)'
type packFile struct {
	Intent []struct {
		Category string `yaml:"category"`
		Patterns []struct {
			Expr   string  `yaml:"expr"`
			Weight float64 `yaml:"weight"`
		} `yaml:"patterns"`
	} `yaml:"intent"`

	Poison struct {
		Directives string `yaml:"directives"`
		Targets    string `yaml:"targets"`
	} `yaml:"poison"`

	PII []struct {
		Name       string            `yaml:"name"`
		Expr       string            `yaml:"expr"`
		Regulatory map[string]string `yaml:"regulatory"`
	} `yaml:"pii"`
}

// Load reads a YAML pattern pack and merges it over the built-in tables:
// categories and PII detectors with known names replace the built-in entry,
// new names are appended, and non-empty poison expressions replace the
// built-in ones. Expressions are compiled eagerly so a bad pack fails here,
// never during evaluation.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern pack %q: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes merges a YAML pattern pack given as raw bytes over the built-in
// tables. See Load.
func LoadBytes(data []byte) (*Set, error) {
	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pattern pack: %w", err)
	}

	set := DefaultSet()

	for _, cat := range pack.Intent {
		if cat.Category == "" {
			return nil, fmt.Errorf("pattern pack: intent category with empty name")
		}
		var compiled []Pattern
		for _, p := range cat.Patterns {
			expr, err := regexp.Compile(p.Expr)
			if err != nil {
				return nil, fmt.Errorf("pattern pack: category %q: bad expression %q: %w", cat.Category, p.Expr, err)
			}
			if p.Weight <= 0 || p.Weight > 1 {
				return nil, fmt.Errorf("pattern pack: category %q: weight %g outside (0, 1]", cat.Category, p.Weight)
			}
			compiled = append(compiled, Pattern{Expr: expr, Weight: p.Weight})
		}
		replaceCategory(set, Category{Name: cat.Category, Patterns: compiled})
	}

	if pack.Poison.Directives != "" {
		expr, err := regexp.Compile(pack.Poison.Directives)
		if err != nil {
			return nil, fmt.Errorf("pattern pack: bad poison directives expression: %w", err)
		}
		set.PoisonDirectives = expr
	}
	if pack.Poison.Targets != "" {
		expr, err := regexp.Compile(pack.Poison.Targets)
		if err != nil {
			return nil, fmt.Errorf("pattern pack: bad poison targets expression: %w", err)
		}
		set.PoisonTargets = expr
	}

	for _, p := range pack.PII {
		if p.Name == "" {
			return nil, fmt.Errorf("pattern pack: pii detector with empty name")
		}
		expr, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("pattern pack: pii %q: bad expression %q: %w", p.Name, p.Expr, err)
		}
		replacePII(set, PIIPattern{Name: p.Name, Expr: expr, Regulatory: p.Regulatory})
	}

	return set, nil
}

// replaceCategory swaps the category with the same name or appends it.
func replaceCategory(set *Set, cat Category) {
	for i := range set.Intent {
		if set.Intent[i].Name == cat.Name {
			set.Intent[i] = cat
			return
		}
	}
	set.Intent = append(set.Intent, cat)
}

// replacePII swaps the detector with the same name or appends it.
func replacePII(set *Set, p PIIPattern) {
	for i := range set.PII {
		if set.PII[i].Name == p.Name {
			set.PII[i] = p
			return
		}
	}
	set.PII = append(set.PII, p)
}
