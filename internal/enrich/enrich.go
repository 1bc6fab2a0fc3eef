package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/privsig/gpcscan/internal/model"
)

// Explanation is what a provider produces for one violation.
type Explanation struct {
	// PlainEnglish restates the violation for a non-lawyer reader.
	PlainEnglish string

	// TechnicalFix is the concrete remediation an engineering team can act
	// on.
	TechnicalFix string
}

// Provider turns a violation plus its rule into an explanation.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Explain produces an explanation, or an error when this provider
	// cannot serve the request and the next one should be tried.
	Explain(ctx context.Context, v model.Violation, rule model.Rule) (*Explanation, error)
}

// Chain tries providers in order until one succeeds.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain builds a fallback chain. Providers are consulted in the order
// given; append RuleText last for a chain that always produces output.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger}
}

// Enrich fills PlainEnglish and TechnicalFix on each violation. Provider
// failures fall through to the next provider; exhausting the chain
// leaves the violation untouched. Enrich never returns an error.
func (c *Chain) Enrich(ctx context.Context, violations []model.Violation, ruleSet []model.Rule) []model.Violation {
	rulesByID := make(map[string]model.Rule, len(ruleSet))
	for _, r := range ruleSet {
		rulesByID[r.RuleID] = r
	}

	out := make([]model.Violation, len(violations))
	copy(out, violations)
	for i := range out {
		rule := rulesByID[out[i].RuleID]
		for _, p := range c.providers {
			explanation, err := p.Explain(ctx, out[i], rule)
			if err != nil {
				c.logger.Warn("enrichment provider failed, trying next",
					"provider", p.Name(),
					"rule_id", out[i].RuleID,
					"error", err)
				continue
			}
			out[i].PlainEnglish = explanation.PlainEnglish
			out[i].TechnicalFix = explanation.TechnicalFix
			break
		}
	}
	return out
}

// RuleText is the terminal provider: it derives explanations from the
// rule record alone, needs no external service, and never fails.
type RuleText struct{}

// NewRuleText returns the terminal rule-text provider.
func NewRuleText() *RuleText {
	return &RuleText{}
}

// Name implements Provider.
func (*RuleText) Name() string {
	return "rule-text"
}

// Explain implements Provider.
func (*RuleText) Explain(_ context.Context, v model.Violation, rule model.Rule) (*Explanation, error) {
	var plain strings.Builder
	switch v.ViolationType {
	case model.ViolationSignalNotHonored:
		plain.WriteString("The site kept contacting tracking services even after the visitor's browser asked it not to sell or share their data.")
	case model.ViolationTemporalLeak:
		plain.WriteString("Tracking requests left the page so quickly after it loaded that the visitor's opt-out signal could not have been processed first.")
	case model.ViolationMissingOptOut:
		plain.WriteString("Visitors have no visible link on the page to opt out of the sale or sharing of their personal information.")
	case model.ViolationNoConsentBanner:
		plain.WriteString("The page loads without telling visitors that it collects data or asking for their consent.")
	case model.ViolationPIIInTracking:
		plain.WriteString("Personal details such as email addresses or identifiers were sent to third-party tracking services inside request URLs.")
	default:
		fmt.Fprintf(&plain, "The site's behavior conflicts with %s.", rule.SectionCitation)
	}
	if rule.RuleText != "" {
		fmt.Fprintf(&plain, " The provision (%s) requires: %s", rule.SectionCitation, rule.RuleText)
	}

	fix := v.Recommendation
	if fix == "" {
		fix = "Review the cited provision and align the site's tracking behavior with it."
	}

	return &Explanation{
		PlainEnglish: plain.String(),
		TechnicalFix: fix,
	}, nil
}
