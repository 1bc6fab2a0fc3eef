package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/privsig/gpcscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: Plain text with ASCII formatting rather than ANSI
// colors, because it works in every terminal and pipes cleanly to files.
type SimpleWriter struct {
	baseWriter

	// verbose includes per-violation evidence detail.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-violation evidence detail.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

const divider = "================================================================"

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.EvidenceReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", divider)
	fmt.Fprintf(&sb, "  PRIVACY SIGNAL COMPLIANCE REPORT\n")
	fmt.Fprintf(&sb, "%s\n", divider)
	fmt.Fprintf(&sb, "  Target       : %s\n", report.Metadata.Target)
	fmt.Fprintf(&sb, "  Jurisdiction : %s\n", report.Metadata.Jurisdiction)
	fmt.Fprintf(&sb, "  Generated    : %s\n", report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "  Duration     : %.1fs\n", report.Metadata.ElapsedSeconds)
	for _, warning := range report.Metadata.Warnings {
		fmt.Fprintf(&sb, "  WARNING      : %s\n", warning)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "  Verdict      : %s\n", report.Verdict.Verdict)
	for _, d := range report.Verdict.DomainsIgnoringSignal {
		fmt.Fprintf(&sb, "    x %s\n", d)
	}
	fmt.Fprintf(&sb, "  Temporal leaks: %d\n\n", report.Verdict.LeakCount)

	for _, s := range report.SessionSummaries {
		signal := "signal off"
		if s.SignalAsserted {
			signal = "signal on"
		}
		fmt.Fprintf(&sb, "  [%s] (%s)\n", s.Label, signal)
		fmt.Fprintf(&sb, "    pages: %d ok, %d failed; requests: %d total, %d tracker; tracker domains: %d; cookies: %d\n",
			s.PagesVisited, s.PagesFailed, s.TotalRequests, s.TrackerRequests,
			len(s.UniqueTrackerDomains), s.CookieCount)
		if s.Aborted {
			fmt.Fprintf(&sb, "    session aborted before completing its itinerary\n")
		}
	}
	sb.WriteString("\n")

	summary := report.ViolationSummary
	fmt.Fprintf(&sb, "  Violations   : %d\n", summary.Total)
	fmt.Fprintf(&sb, "  HIGH         : %d\n", summary.SeverityBreakdown[model.SeverityHigh.String()])
	fmt.Fprintf(&sb, "  MEDIUM       : %d\n", summary.SeverityBreakdown[model.SeverityMedium.String()])
	fmt.Fprintf(&sb, "  LOW          : %d\n", summary.SeverityBreakdown[model.SeverityLow.String()])
	fmt.Fprintf(&sb, "  Max penalty  : $%.2f\n", summary.MaxPotentialPenaltyUSD)

	if summary.Total > 0 {
		sb.WriteString("\n")
		for i, v := range report.Violations {
			fmt.Fprintf(&sb, "  [%d] %s (%s)\n", i+1, v.ViolationType, v.SeverityText)
			fmt.Fprintf(&sb, "      Rule : %s, %s\n", v.RuleID, v.SectionCitation)
			if v.PlainEnglish != "" {
				fmt.Fprintf(&sb, "      Plain: %s\n", truncate(v.PlainEnglish, 120))
			}
			if w.verbose {
				for key, value := range v.Evidence {
					fmt.Fprintf(&sb, "      evidence %s: %v\n", key, value)
				}
			}
		}
	}
	fmt.Fprintf(&sb, "%s\n", divider)

	return w.output.Write([]byte(sb.String()))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
