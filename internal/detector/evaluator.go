package detector

import (
	"log/slog"

	"github.com/privsig/gpcscan/internal/model"
)

// Evaluator runs every applicable rule through its registered detector.
type Evaluator struct {
	registry map[string]Func
	logger   *slog.Logger
}

// NewEvaluator builds an evaluator holding the built-in detector
// registry. A nil logger falls back to slog's default.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		registry: map[string]Func{
			KeySignalNotHonored: detectSignalNotHonored,
			KeyTemporalLeak:     detectTemporalLeak,
			KeyMissingOptOut:    detectMissingOptOut,
			KeyNoConsentBanner:  detectNoConsentBanner,
			KeyPIIInTracking:    detectPIIInTracking,
		},
		logger: logger,
	}
}

// Register adds or replaces a detector under key.
func (e *Evaluator) Register(key string, fn Func) {
	e.registry[key] = fn
}

// Evaluate runs all rules against the session evidence and returns the
// violations found. Definitional rules are skipped without consulting a
// detector. Detector failures are logged and never abort evaluation.
func (e *Evaluator) Evaluate(in Input, ruleSet []model.Rule) []model.Violation {
	violations := make([]model.Violation, 0)
	for _, rule := range ruleSet {
		if rule.IsDefinitional() {
			e.logger.Debug("skipping definitional rule", "rule_id", rule.RuleID)
			continue
		}
		if rule.DetectorKey == "" {
			e.logger.Debug("rule has no detector key", "rule_id", rule.RuleID)
			continue
		}

		fn, ok := e.registry[rule.DetectorKey]
		if !ok {
			e.logger.Warn("no detector registered for rule",
				"rule_id", rule.RuleID,
				"detector_key", rule.DetectorKey)
			continue
		}

		outcome, err := fn(in, rule)
		switch {
		case err != nil:
			e.logger.Error("detector failed",
				"rule_id", rule.RuleID,
				"detector_key", rule.DetectorKey,
				"error", err)
		case outcome.Skipped:
			e.logger.Warn("rule skipped for missing data",
				"rule_id", rule.RuleID,
				"reason", outcome.Reason)
		case outcome.Violation != nil:
			e.logger.Info("violation detected",
				"rule_id", rule.RuleID,
				"violation_type", outcome.Violation.ViolationType,
				"severity", outcome.Violation.SeverityText)
			violations = append(violations, *outcome.Violation)
		default:
			e.logger.Debug("rule checked, compliant", "rule_id", rule.RuleID)
		}
	}
	return violations
}
