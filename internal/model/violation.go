package model

// Violation type identifiers emitted by the built-in detectors.
const (
	ViolationSignalNotHonored = "SIGNAL_NOT_HONORED"
	ViolationTemporalLeak     = "TEMPORAL_LEAK"
	ViolationMissingOptOut    = "MISSING_OPT_OUT_LINK"
	ViolationNoConsentBanner  = "NO_CONSENT_BANNER"
	ViolationPIIInTracking    = "PII_IN_TRACKING_REQUESTS"
)

// Violation is the output of exactly one detector invocation against one
// rule. It is never mutated after creation, except that the optional
// enrichment step may fill PlainEnglish and TechnicalFix before the
// report is built.
type Violation struct {
	// RuleID references the Rule that was violated. Every Violation
	// references a rule that exists in the loaded dataset for the scan's
	// jurisdiction.
	RuleID string `json:"rule_id"`

	// SectionCitation repeats the rule's legal citation for standalone
	// readability of the report.
	SectionCitation string `json:"section_citation"`

	// RuleTitle repeats the rule's title.
	RuleTitle string `json:"rule_title"`

	// ViolationType is the behavioral signature identifier, e.g.
	// SIGNAL_NOT_HONORED.
	ViolationType string `json:"violation_type"`

	// Severity is the risk level of this violation.
	Severity Severity `json:"severity"`

	// SeverityText is the canonical severity string for serialization.
	SeverityText string `json:"severity_text"`

	// Evidence is structured, detector-specific supporting data such as
	// offending domains or affected page counts.
	Evidence map[string]any `json:"evidence"`

	// PenaltyMin and PenaltyMax are copied from the rule. Nil when the
	// rule defines no bound on that side.
	PenaltyMin *float64 `json:"penalty_min_usd"`
	PenaltyMax *float64 `json:"penalty_max_usd"`

	// Recommendation is the remediation guidance for this violation.
	Recommendation string `json:"recommendation"`

	// PlainEnglish and TechnicalFix are optional enrichment fields.
	// Omitted when no enrichment provider is available; their absence
	// never blocks core detection.
	PlainEnglish string `json:"plain_english,omitempty"`
	TechnicalFix string `json:"technical_fix,omitempty"`
}

// NewViolation creates a Violation bound to the given rule, copying the
// citation and penalty figures from the rule record.
func NewViolation(rule Rule, violationType string, severity Severity, evidence map[string]any, recommendation string) Violation {
	return Violation{
		RuleID:          rule.RuleID,
		SectionCitation: rule.SectionCitation,
		RuleTitle:       rule.Title,
		ViolationType:   violationType,
		Severity:        severity,
		SeverityText:    severity.String(),
		Evidence:        evidence,
		PenaltyMin:      rule.PenaltyMin,
		PenaltyMax:      rule.PenaltyMax,
		Recommendation:  recommendation,
	}
}
