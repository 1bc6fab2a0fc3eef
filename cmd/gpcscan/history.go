package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/privsig/gpcscan/internal/config"
	"github.com/privsig/gpcscan/internal/database"
	"github.com/privsig/gpcscan/internal/model"
	"github.com/privsig/gpcscan/internal/report"
)

// NewHistoryCmd creates the history command.
// This command inspects scan results stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-url]",
		Short: "Inspect stored scan results",
		Long: `History displays evidence reports persisted by previous scans.

Reports are stored in a local SQLite database under the XDG data
directory. Stored reports carry an integrity digest computed over the
canonicalized report body, so tampering with a stored report is
detectable at display time.

Examples:
  # List scan history for a site
  gpcscan history https://example.com

  # List all scanned sites in the database
  gpcscan history --list-targets

  # Show the most recent report for a site
  gpcscan history --show https://example.com

  # Show a specific stored report by ID
  gpcscan history --show --id 5 https://example.com

  # Show the latest report as JSON
  gpcscan history --show --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-targets", "L", false,
		"List all scanned sites in the database")
	cmd.Flags().BoolP("show", "s", false,
		"Show a full stored report instead of the history listing")
	cmd.Flags().Int64P("id", "i", 0,
		"Show a specific stored report by ID (implies --show)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the report in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listTargets, err := cmd.Flags().GetBool("list-targets")
	if err != nil {
		return err
	}
	show, err := cmd.Flags().GetBool("show")
	if err != nil {
		return err
	}
	reportID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	var target string
	if !listTargets && reportID == 0 {
		if len(args) == 0 {
			return errors.New("site URL is required (use --list-targets to see stored sites)")
		}
		target = args[0]
	} else if len(args) > 0 {
		target = args[0]
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no scan history available: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listTargets {
		return listScannedTargets(ctx, out, db)
	}

	if show || reportID != 0 {
		return showStoredReport(ctx, out, db, target, reportID, asJSON)
	}

	return listHistory(ctx, out, db, target)
}

// listScannedTargets prints every site with stored scan history.
func listScannedTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "No scanned sites found")
		return nil
	}
	for _, t := range targets {
		fmt.Fprintln(out, t)
	}
	return nil
}

// listHistory prints one line per stored scan of the target.
func listHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, target string) error {
	records, err := db.GetHistoryMetadata(ctx, target)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no scan history for %s", target)
	}

	fmt.Fprintf(out, "%-5s %-20s %-6s %-18s %s\n", "ID", "TIMESTAMP", "RULES", "VERDICT", "HIGH/MED/LOW")
	for _, rec := range records {
		fmt.Fprintf(out, "%-5d %-20s %-6s %-18s %d/%d/%d\n",
			rec.ID,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Jurisdiction,
			rec.Verdict,
			rec.SeveritySummary["HIGH"],
			rec.SeveritySummary["MEDIUM"],
			rec.SeveritySummary["LOW"],
		)
	}
	return nil
}

// showStoredReport prints one stored report, verifying its integrity
// digest first.
func showStoredReport(ctx context.Context, out io.Writer, db *database.HistoryDB, target string, reportID int64, asJSON bool) error {
	stored, err := fetchStoredReport(ctx, db, target, reportID)
	if err != nil {
		return err
	}

	if stored.Metadata.IntegrityDigest != "" {
		ok, err := report.VerifyIntegrity(stored)
		if err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: stored report failed its integrity check; it may have been modified.\n\n")
		}
	}

	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stored)
	}

	writer := report.NewSimpleWriter(out)
	_, err = writer.Write(stored)
	return err
}

// fetchStoredReport loads a report by ID when given, otherwise the
// target's most recent report.
func fetchStoredReport(ctx context.Context, db *database.HistoryDB, target string, reportID int64) (*model.EvidenceReport, error) {
	if reportID != 0 {
		stored, err := db.GetReportByID(ctx, reportID)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, fmt.Errorf("no stored report with ID %d", reportID)
		}
		return stored, nil
	}

	stored, err := db.GetLatestReport(ctx, target)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("no scan history for %s", target)
	}
	return stored, nil
}
