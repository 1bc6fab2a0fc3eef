package model

// Outcome is the ternary compliance result of a dual-session comparison.
type Outcome string

const (
	// OutcomeCompliant means no tracker ignored the signal, no temporal
	// leak fired in the compliance session, and both sessions gathered
	// usable data.
	OutcomeCompliant Outcome = "COMPLIANT"

	// OutcomeNonCompliant means at least one tracker domain fired under
	// both postures, or a temporal leak was detected in the compliance
	// session.
	OutcomeNonCompliant Outcome = "NON_COMPLIANT"

	// OutcomeInsufficientData means the sessions failed to gather enough
	// signal to decide. This is distinct from "no violations found" and
	// the two must never be conflated in reports.
	OutcomeInsufficientData Outcome = "INSUFFICIENT_DATA"
)

// Verdict is the compliance outcome derived from comparing tracker
// activity across the baseline and compliance sessions. It is pure data:
// computing it is side-effect free and idempotent.
type Verdict struct {
	// Verdict is the ternary outcome.
	Verdict Outcome `json:"verdict"`

	// DomainsIgnoringSignal is the intersection of the two sessions'
	// tracker domain sets, sorted. A tracker firing under both the
	// unsignaled and the signaled posture is presumed to have ignored
	// the signal. Domains unique to the baseline are expected behavior
	// and never evidence of a violation.
	DomainsIgnoringSignal []string `json:"domains_ignoring_signal"`

	// LeakCount is the number of temporal leaks detected in the
	// compliance session.
	LeakCount int `json:"leak_count"`
}
