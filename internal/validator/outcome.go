package validator

// Outcome is the terminal state of one validation pass.
type Outcome int

const (
	// OutcomeSkipped means the project was closed; nothing was read or written.
	OutcomeSkipped Outcome = iota
	// OutcomeSuppressed means the ignore flag is set; any marker was cleared.
	OutcomeSuppressed
	// OutcomeIndeterminate means the location could not be resolved; nothing changed.
	OutcomeIndeterminate
	// OutcomeConsistent means names match; any marker was cleared.
	OutcomeConsistent
	// OutcomeFlagged means names differ and the marker is present.
	OutcomeFlagged
	// OutcomeFlaggedAfterPrompt means the user was asked, declined, and the marker is present.
	OutcomeFlaggedAfterPrompt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeIndeterminate:
		return "indeterminate"
	case OutcomeConsistent:
		return "consistent"
	case OutcomeFlagged:
		return "flagged"
	case OutcomeFlaggedAfterPrompt:
		return "flagged-after-declined-prompt"
	default:
		return "unknown"
	}
}

// HasMarker reports whether the outcome leaves the project with a mismatch marker.
func (o Outcome) HasMarker() bool {
	return o == OutcomeFlagged || o == OutcomeFlaggedAfterPrompt
}
