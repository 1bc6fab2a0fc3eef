package model

// Rule is a static record loaded from the external rule dataset. Rules are
// immutable, loaded once per scan, and keyed by jurisdiction.
type Rule struct {
	// RuleID uniquely identifies the provision, e.g. "CCPA-1798.135b".
	RuleID string `json:"rule_id"`

	// Jurisdiction is the regulation this rule belongs to ("CCPA", "GDPR").
	Jurisdiction string `json:"jurisdiction"`

	// SectionCitation is the formal legal citation, e.g. "Cal. Civ. Code
	// §1798.135(b)(1)".
	SectionCitation string `json:"section_citation"`

	// Title is the human-readable rule title.
	Title string `json:"title"`

	// RuleText is the provision text, used by enrichment providers.
	RuleText string `json:"rule_text,omitempty"`

	// DetectorKey maps this rule to a detector in the evaluator registry.
	// Empty for rules with no behavioral signature.
	DetectorKey string `json:"detector_key,omitempty"`

	// PenaltyMin and PenaltyMax are the statutory penalty range in USD.
	// Both nil means the rule is definitional: it provides citation context
	// only and must never produce a Violation.
	PenaltyMin *float64 `json:"penalty_min"`
	PenaltyMax *float64 `json:"penalty_max"`

	// AppliesTo scopes the rule ("all_pages", "compliance_session", ...).
	AppliesTo string `json:"applies_to,omitempty"`

	// SupersededBy names a newer rule_id amending this provision, when the
	// dataset records one. The loader surfaces the value but applies no
	// deprecation: both versions are evaluated when present.
	SupersededBy string `json:"superseded_by,omitempty"`
}

// IsDefinitional reports whether the rule carries no penalty range and
// therefore can never yield a Violation. The evaluator skips calling
// detectors for such rules entirely.
func (r Rule) IsDefinitional() bool {
	return r.PenaltyMin == nil && r.PenaltyMax == nil
}
