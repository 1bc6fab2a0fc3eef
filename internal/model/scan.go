package model

import "time"

// Session labels used by the default dual-session scan design. The
// session runner itself generalizes to N sessions; these two are the
// labels the verdict engine compares.
const (
	LabelBaseline   = "baseline"
	LabelCompliance = "compliance"
)

// Scan is the accumulating state of one scan run, passed through the
// pipeline steps. Each stage fills in its portion; the report builder
// consumes the completed aggregate.
//
// Design decision: We use a single large struct rather than returning
// intermediate values between stages, matching the pipeline's
// step-over-shared-report structure. Only the pipeline goroutine touches
// the Scan; the per-session logs it holds handle their own locking.
type Scan struct {
	// Target is the site under scan (used for report metadata only; the
	// itinerary carries the actual URLs).
	Target string `json:"target"`

	// Jurisdiction selects the rule dataset ("CCPA", "GDPR").
	Jurisdiction string `json:"jurisdiction"`

	// Itinerary is the ordered sequence of absolute page URLs. Both
	// sessions visit the identical itinerary; only the SignalConfig
	// differs (controlled variable).
	Itinerary []string `json:"itinerary"`

	// StartedAt is when the sessions launched.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the session stage.
	Elapsed time.Duration `json:"-"`

	// Logs holds the frozen per-session capture, keyed by session label.
	Logs map[string]*SessionLog `json:"-"`

	// ComplianceLeaks are the temporal leaks detected in the compliance
	// session.
	ComplianceLeaks []NetworkRequest `json:"-"`

	// Rules is the loaded rule dataset for the jurisdiction.
	Rules []Rule `json:"-"`

	// Verdict is the dual-session comparison result. Nil until computed.
	Verdict *Verdict `json:"verdict,omitempty"`

	// Violations is the ordered detector output.
	Violations []Violation `json:"violations,omitempty"`

	// Report is the final artifact. Nil until built.
	Report *EvidenceReport `json:"report,omitempty"`

	// Warnings collects non-fatal degradations surfaced in the report
	// metadata.
	Warnings []string `json:"warnings,omitempty"`

	// TimedOut is true if the scan was cancelled before completing.
	TimedOut bool `json:"timed_out,omitempty"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Err records a step failure for report surfacing. The pipeline
	// decides whether it is fatal.
	Err error `json:"-"`
}

// NewScan creates a Scan for the given target and itinerary.
func NewScan(target, jurisdiction string, itinerary []string) *Scan {
	return &Scan{
		Target:       target,
		Jurisdiction: jurisdiction,
		Itinerary:    itinerary,
		Logs:         make(map[string]*SessionLog),
	}
}

// Baseline returns the baseline session log, or nil.
func (s *Scan) Baseline() *SessionLog { return s.Logs[LabelBaseline] }

// Compliance returns the compliance session log, or nil.
func (s *Scan) Compliance() *SessionLog { return s.Logs[LabelCompliance] }

// AddWarning appends a metadata warning.
func (s *Scan) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
