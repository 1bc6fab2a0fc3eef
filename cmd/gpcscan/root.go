// Package main provides the entry point for the gpcscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gpcscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gpcscan",
		Short: "Privacy signal compliance scanner for websites",
		Long: `gpcscan audits websites for compliance with browser privacy signals
such as Global Privacy Control (GPC).

It runs two isolated browsing sessions over the same pages: one baseline
session without any signal, and one compliance session asserting the
opt-out signal. Tracker traffic captured under both postures is compared
to decide whether the site honors the signal, and violations are mapped
to the legal provisions they breach.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
