package planes

// Phase is an insertion point in the pipeline relative to the built-in
// planes. Plugins registered at a phase run after the built-in plane whose
// boundary the phase names and before the next built-in.
type Phase int

const (
	// PhasePreIdentity runs before any built-in plane.
	PhasePreIdentity Phase = iota
	// PhasePostIdentity runs after the Identity plane.
	PhasePostIdentity
	// PhasePostIntent runs after the Intent plane.
	PhasePostIntent
	// PhasePostContext runs after the Context plane.
	PhasePostContext
	// PhasePostEconomics runs after the Economics plane.
	PhasePostEconomics
	// PhasePostCompliance runs after the Compliance plane.
	PhasePostCompliance
)

// Phases lists all phase markers in pipeline order.
var Phases = []Phase{
	PhasePreIdentity,
	PhasePostIdentity,
	PhasePostIntent,
	PhasePostContext,
	PhasePostEconomics,
	PhasePostCompliance,
}

// String returns the canonical marker name.
func (p Phase) String() string {
	switch p {
	case PhasePreIdentity:
		return "PRE_IDENTITY"
	case PhasePostIdentity:
		return "POST_IDENTITY"
	case PhasePostIntent:
		return "POST_INTENT"
	case PhasePostContext:
		return "POST_CONTEXT"
	case PhasePostEconomics:
		return "POST_ECONOMICS"
	case PhasePostCompliance:
		return "POST_COMPLIANCE"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether p is one of the six defined markers.
func (p Phase) Valid() bool {
	return p >= PhasePreIdentity && p <= PhasePostCompliance
}
