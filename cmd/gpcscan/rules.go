package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/privsig/gpcscan/internal/model"
	"github.com/privsig/gpcscan/internal/rules"
)

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the compliance rule dataset",
		Long: `Rules lists the legal provisions gpcscan evaluates against.

Each rule carries its jurisdiction, legal citation, penalty range, and
the detector that checks it. Rules without a penalty range are
definitional: they provide citation context for reports but never
produce violations.

Examples:
  # List all rules in the embedded dataset
  gpcscan rules

  # List rules for one jurisdiction
  gpcscan rules --jurisdiction GDPR

  # Inspect an external dataset
  gpcscan rules --rules ./custom-rules.sql

  # Show one rule in full
  gpcscan rules --id CCPA-1798.135b`,
		RunE: runRulesCmd,
	}

	cmd.Flags().StringP("jurisdiction", "J", "",
		"List rules for one jurisdiction only (CCPA or GDPR)")
	cmd.Flags().StringP("rules", "R", "",
		"External rules.sql dataset (default: embedded dataset)")
	cmd.Flags().StringP("id", "i", "",
		"Show the full record for one rule ID")

	return cmd
}

// runRulesCmd executes the rules command.
func runRulesCmd(cmd *cobra.Command, _ []string) error {
	rulesPath, err := cmd.Flags().GetString("rules")
	if err != nil {
		return err
	}
	jurisdiction, err := cmd.Flags().GetString("jurisdiction")
	if err != nil {
		return err
	}
	ruleID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}

	var store *rules.Store
	if rulesPath != "" {
		store, err = rules.OpenFile(rulesPath)
	} else {
		store, err = rules.Open()
	}
	if err != nil {
		return fmt.Errorf("failed to load rule dataset: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if ruleID != "" {
		rule, err := store.GetRule(ctx, ruleID)
		if err != nil {
			return err
		}
		if rule == nil {
			return fmt.Errorf("rule not found: %s", ruleID)
		}
		printRuleDetail(cmd, rule)
		return nil
	}

	var ruleSet []model.Rule
	if jurisdiction != "" {
		ruleSet, err = store.FetchRules(ctx, jurisdiction)
	} else {
		ruleSet, err = store.ListRules(ctx)
	}
	if err != nil {
		return err
	}

	for _, rule := range ruleSet {
		kind := "behavioral"
		if rule.IsDefinitional() {
			kind = "definitional"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-6s %-13s %s\n",
			rule.RuleID, rule.Jurisdiction, kind, rule.Title)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d rules\n", len(ruleSet))
	return nil
}

// printRuleDetail prints every field of one rule.
func printRuleDetail(cmd *cobra.Command, rule *model.Rule) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rule ID      : %s\n", rule.RuleID)
	fmt.Fprintf(out, "Jurisdiction : %s\n", rule.Jurisdiction)
	fmt.Fprintf(out, "Citation     : %s\n", rule.SectionCitation)
	fmt.Fprintf(out, "Title        : %s\n", rule.Title)
	if rule.DetectorKey != "" {
		fmt.Fprintf(out, "Detector     : %s\n", rule.DetectorKey)
	}
	if rule.AppliesTo != "" {
		fmt.Fprintf(out, "Applies to   : %s\n", rule.AppliesTo)
	}
	if rule.IsDefinitional() {
		fmt.Fprintf(out, "Penalty      : none (definitional)\n")
	} else {
		min, max := 0.0, 0.0
		if rule.PenaltyMin != nil {
			min = *rule.PenaltyMin
		}
		if rule.PenaltyMax != nil {
			max = *rule.PenaltyMax
		}
		fmt.Fprintf(out, "Penalty      : $%.2f - $%.2f per violation\n", min, max)
	}
	if rule.SupersededBy != "" {
		fmt.Fprintf(out, "Superseded by: %s\n", rule.SupersededBy)
	}
	if rule.RuleText != "" {
		fmt.Fprintf(out, "\n%s\n", rule.RuleText)
	}
}
