package model

// Severity represents the risk level of a detected violation.
// This allows categorizing violations by their legal and privacy impact.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// the canonical report representation when needed.
type Severity int

const (
	// SeverityLow indicates minor issues with limited legal exposure.
	// Nothing in the built-in rule set currently emits LOW, but custom
	// rule datasets may.
	SeverityLow Severity = iota

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: missing consent banner, PII embedded in tracking requests.
	SeverityMedium

	// SeverityHigh indicates serious issues that constitute clear
	// non-compliance. Examples: trackers ignoring the opt-out signal,
	// temporal leaks, a missing opt-out link on required pages.
	SeverityHigh
)

// String returns the canonical representation of the severity level.
// This is the value used in serialized violations and reports.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a canonical severity string back to a Severity.
// Unknown strings map to SeverityLow so that a malformed rule dataset
// degrades rather than inflates severity.
func ParseSeverity(s string) Severity {
	switch s {
	case "HIGH":
		return SeverityHigh
	case "MEDIUM":
		return SeverityMedium
	default:
		return SeverityLow
	}
}
