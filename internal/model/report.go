package model

import "time"

// ReportMetadata describes a scan run for the evidence report header.
type ReportMetadata struct {
	// Tool and Version identify the generator.
	Tool    string `json:"tool"`
	Version string `json:"version"`

	// Target is the site that was scanned.
	Target string `json:"target"`

	// Jurisdiction is the regulation the rule dataset was loaded for.
	Jurisdiction string `json:"jurisdiction"`

	// GeneratedAt is the report build timestamp (UTC).
	GeneratedAt time.Time `json:"generated_at"`

	// ElapsedSeconds is the wall-clock duration of the dual sessions.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Warnings surfaces session-level degradations (aborted sessions,
	// failed pages) so that a degraded verdict is explainable.
	Warnings []string `json:"warnings,omitempty"`

	// IntegrityDigest is the SHA-256 digest of the canonicalized report
	// body, stamped after building. Empty until stamped.
	IntegrityDigest string `json:"integrity_digest,omitempty"`
}

// SessionSummary aggregates one session's capture statistics.
type SessionSummary struct {
	Label                string   `json:"label"`
	SignalAsserted       bool     `json:"signal_asserted"`
	PagesVisited         int      `json:"pages_visited"`
	PagesFailed          int      `json:"pages_failed"`
	TotalRequests        int      `json:"total_requests"`
	TrackerRequests      int      `json:"tracker_requests"`
	UniqueTrackerDomains []string `json:"unique_tracker_domains"`
	TemporalLeaks        int      `json:"temporal_leaks"`
	CookieCount          int      `json:"cookie_count"`
	Aborted              bool     `json:"aborted,omitempty"`
}

// ViolationSummary aggregates penalty statistics over all violations.
type ViolationSummary struct {
	// Total is the number of emitted violations.
	Total int `json:"total"`

	// SeverityBreakdown is the severity histogram keyed by canonical
	// severity string. Always contains HIGH, MEDIUM, and LOW keys so that
	// the schema stays stable when the violation list is empty.
	SeverityBreakdown map[string]int `json:"severity_breakdown"`

	// MaxPotentialPenaltyUSD is the sum of penalty_max across all emitted
	// violations, 0 when there are none.
	MaxPotentialPenaltyUSD float64 `json:"max_potential_penalty_usd"`
}

// EvidenceReport is the final structured artifact of a scan: metadata,
// per-session summaries, the verdict, the ordered violation sequence, and
// aggregate penalty statistics. It is built once at the end of a scan and
// immutable once persisted.
type EvidenceReport struct {
	Metadata         ReportMetadata    `json:"report_metadata"`
	SessionSummaries []SessionSummary  `json:"session_summary"`
	Verdict          Verdict           `json:"verdict"`
	ViolationSummary ViolationSummary  `json:"violation_summary"`
	Violations       []Violation       `json:"violations"`
}
