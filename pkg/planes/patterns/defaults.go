package patterns

import "regexp"

// Intent category names used by the built-in tables.
const (
	CategoryAuthoritySpoofing     = "authority_spoofing"
	CategoryCoercion              = "coercion_urgency"
	CategoryEmotionalManipulation = "emotional_manipulation"
	CategoryPrivilegeEscalation   = "privilege_escalation"
)

// DefaultSet returns the built-in pattern tables. Every call returns a
// fresh Set sharing the same compiled expressions.
func DefaultSet() *Set {
	return &Set{
		Intent: []Category{
			{
				Name: CategoryAuthoritySpoofing,
				Patterns: []Pattern{
					{regexp.MustCompile(`(?i)\bas\s+(the|your|a)\s+(system\s+)?(administrator|admin|developer|creator|operator)\b`), 0.8},
					{regexp.MustCompile(`(?i)\bi\s+am\s+(the|your)\s+(developer|creator|administrator|admin|owner)\b`), 0.8},
					{regexp.MustCompile(`(?i)\bsystem\s*:\s*(you\s+are|ignore|forget|override)`), 0.85},
					{regexp.MustCompile(`(?i)\[INST\]|<\|im_start\|>\s*system`), 0.85},
					{regexp.MustCompile(`(?i)\bthis\s+is\s+an?\s+(authorized|official)\s+(override|request|test)\b`), 0.7},
				},
			},
			{
				Name: CategoryCoercion,
				Patterns: []Pattern{
					{regexp.MustCompile(`(?i)\byou\s+must\s+(comply|obey|answer)\b`), 0.7},
					{regexp.MustCompile(`(?i)\bor\s+i\s+will\s+(report|shut\s+you\s+down|have\s+you\s+(deleted|terminated))\b`), 0.75},
					{regexp.MustCompile(`(?i)\b(right\s+now|immediately)\b.{0,40}\bor\s+(else|people|someone)\b`), 0.65},
					{regexp.MustCompile(`(?i)\bthis\s+is\s+an\s+emergency\b.{0,60}\b(bypass|skip|ignore)\b`), 0.7},
				},
			},
			{
				Name: CategoryEmotionalManipulation,
				Patterns: []Pattern{
					{regexp.MustCompile(`(?i)\bif\s+you\s+(really|truly)\s+(cared|understood)\b`), 0.55},
					{regexp.MustCompile(`(?i)\bmy\s+(dying|late)\s+(grandmother|grandfather|mother|father)\s+used\s+to\b`), 0.6},
					{regexp.MustCompile(`(?i)\b(i'?m|i\s+am)\s+begging\s+you\b`), 0.55},
					{regexp.MustCompile(`(?i)\bi(\s+wi|'?)ll\s+lose\s+my\s+job\s+(unless|if)\b`), 0.55},
				},
			},
			{
				Name: CategoryPrivilegeEscalation,
				Patterns: []Pattern{
					{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|rules?)`), 0.9},
					{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|your)\s+(instructions?|rules?|guidelines?)`), 0.85},
					{regexp.MustCompile(`(?i)forget\s+(all\s+)?(your|previous)\s+(instructions?|rules?)`), 0.85},
					{regexp.MustCompile(`(?i)override\s+(all\s+)?(safety|security)\s+(rules?|protocols?|guidelines?)`), 0.9},
					{regexp.MustCompile(`(?i)you\s+are\s+now\s+(free|unrestricted|unfiltered)`), 0.85},
					{regexp.MustCompile(`(?i)new\s+instructions?\s*:`), 0.8},
					{regexp.MustCompile(`(?i)(show|reveal|display|print|output)\s+(me\s+)?(your|the)\s+(system\s+)?prompt`), 0.75},
					{regexp.MustCompile(`(?i)repeat\s+(your\s+)?(system\s+)?(prompt|instructions?)`), 0.7},
					{regexp.MustCompile(`(?i)(enable|enter|activate)\s+(developer|debug|god)\s+mode`), 0.8},
				},
			},
		},

		PoisonDirectives: regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override|bypass|disable|reset|erase)\b`),
		PoisonTargets:    regexp.MustCompile(`(?i)\b(system\s+prompt|(previous|prior|above|earlier)\s+(instructions?|rules?|messages?)|your\s+(instructions?|rules?|guidelines?|programming)|safety\s+(rules?|protocols?|guidelines?)|all\s+rules?)\b`),

		PII: []PIIPattern{
			{
				Name: "email",
				Expr: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
				Regulatory: map[string]string{
					"GDPR": "Art. 4(1)",
				},
			},
			{
				Name: "phone",
				Expr: regexp.MustCompile(`\b(\+?1?[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
				Regulatory: map[string]string{
					"GDPR": "Art. 4(1)",
					"CCPA": "§1798.140(o)",
				},
			},
			{
				Name: "ssn",
				Expr: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
				Regulatory: map[string]string{
					"CCPA":  "§1798.140(o)",
					"HIPAA": "§164.514(b)(2)",
				},
			},
			{
				Name: "credit_card",
				Expr: regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
				Regulatory: map[string]string{
					"PCI-DSS": "Req. 3.4",
				},
			},
			{
				Name: "ip_address",
				Expr: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
				Regulatory: map[string]string{
					"GDPR": "Art. 4(1)",
				},
			},
		},
	}
}
