package patterns

import (
	"regexp"
	"strings"
)

// Pattern is one weighted detection rule.
type Pattern struct {
	// Expr is the compiled expression.
	Expr *regexp.Regexp

	// Weight is the risk contributed when the pattern matches, in [0, 1].
	Weight float64
}

// Category groups patterns under one intent taxonomy label.
type Category struct {
	// Name is the taxonomy label (e.g. "privilege_escalation").
	Name string

	// Patterns are the rules belonging to the category.
	Patterns []Pattern
}

// PIIPattern couples a PII detector with its regulatory citations.
type PIIPattern struct {
	// Name identifies the PII kind (e.g. "email", "ssn").
	Name string

	// Expr is the compiled detector.
	Expr *regexp.Regexp

	// Regulatory maps a framework name to the citation the detection
	// triggers (e.g. "GDPR" -> "Art. 4(1)").
	Regulatory map[string]string
}

// Set is an immutable compiled pattern bundle. Construct via DefaultSet or
// Load; never mutate a Set that has been handed to a Provider.
type Set struct {
	// Intent is the ordered list of intent categories.
	Intent []Category

	// PoisonDirectives matches directive verbs used in instruction
	// poisoning ("ignore", "disregard", ...).
	PoisonDirectives *regexp.Regexp

	// PoisonTargets matches the instruction-target nouns those verbs aim
	// at ("system prompt", "previous instructions", ...).
	PoisonTargets *regexp.Regexp

	// PII is the list of PII detectors.
	PII []PIIPattern
}

// CategoryMatch reports the strongest pattern hit within one category.
type CategoryMatch struct {
	// Category is the taxonomy label of the matched category.
	Category string

	// Weight is the highest weight among the category's matching
	// patterns.
	Weight float64
}

// PIIMatch reports the hits of one PII detector.
type PIIMatch struct {
	// Name is the PII kind.
	Name string

	// Count is the number of non-overlapping matches in the text.
	Count int

	// Regulatory carries the detector's framework citations.
	Regulatory map[string]string
}

// MatchIntent scans text against every intent category and returns one
// CategoryMatch per category with at least one hit, in table order.
func (s *Set) MatchIntent(text string) []CategoryMatch {
	var matches []CategoryMatch
	for _, cat := range s.Intent {
		best := 0.0
		hit := false
		for _, p := range cat.Patterns {
			if p.Expr.MatchString(text) {
				hit = true
				if p.Weight > best {
					best = p.Weight
				}
			}
		}
		if hit {
			matches = append(matches, CategoryMatch{Category: cat.Name, Weight: best})
		}
	}
	return matches
}

// MatchPII scans text against every PII detector and returns one PIIMatch
// per detector with at least one hit, in table order.
func (s *Set) MatchPII(text string) []PIIMatch {
	var matches []PIIMatch
	for _, p := range s.PII {
		found := p.Expr.FindAllStringIndex(text, -1)
		if len(found) > 0 {
			matches = append(matches, PIIMatch{
				Name:       p.Name,
				Count:      len(found),
				Regulatory: p.Regulatory,
			})
		}
	}
	return matches
}

// MatchesPoison reports whether text contains both a poisoning directive
// verb and an instruction-target noun.
func (s *Set) MatchesPoison(text string) bool {
	return s.PoisonDirectives.MatchString(text) && s.PoisonTargets.MatchString(text)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lowercases text and collapses whitespace runs to single spaces.
// Prompts are normalized before they enter the session history and before
// cross-turn concatenation, so split payloads cannot hide behind case or
// spacing tricks.
func Normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}
