package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/privsig/gpcscan/internal/model"
)

// MarkdownWriter outputs evidence reports in Markdown format, for
// documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// generation: type-safe tables and GitHub-flavored alerts without
// hand-assembled strings.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.EvidenceReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeVerdict(md, report)
	w.writeSessions(md, report)
	w.writeViolations(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.EvidenceReport) {
	md.H1("Privacy Signal Compliance Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Metadata.Target + "`"},
			{"Jurisdiction", report.Metadata.Jurisdiction},
			{"Generated", report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Scan Duration", fmt.Sprintf("%.1fs", report.Metadata.ElapsedSeconds)},
			{"Generator", report.Metadata.Tool + " " + report.Metadata.Version},
		},
	})
	md.PlainText("")

	for _, warning := range report.Metadata.Warnings {
		md.Warning(warning)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, report *model.EvidenceReport) {
	md.H2("Verdict")
	md.PlainText("")

	switch report.Verdict.Verdict {
	case model.OutcomeNonCompliant:
		md.Caution("NON_COMPLIANT: the site did not honor the privacy signal.")
	case model.OutcomeCompliant:
		md.Note("COMPLIANT: no tracker continued across sessions and no temporal leak was found.")
	default:
		md.Warning("INSUFFICIENT_DATA: the sessions did not gather enough signal for a verdict. This is not a clean bill.")
	}
	md.PlainText("")

	if len(report.Verdict.DomainsIgnoringSignal) > 0 {
		md.H3("Domains Ignoring the Signal")
		md.BulletList(report.Verdict.DomainsIgnoringSignal...)
		md.PlainText("")
	}
	if report.Verdict.LeakCount > 0 {
		md.PlainTextf("Temporal leaks detected: %d", report.Verdict.LeakCount)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSessions(md *markdown.Markdown, report *model.EvidenceReport) {
	md.H2("Sessions")
	md.PlainText("")

	rows := make([][]string, 0, len(report.SessionSummaries))
	for _, s := range report.SessionSummaries {
		signal := "off"
		if s.SignalAsserted {
			signal = "on"
		}
		status := "complete"
		if s.Aborted {
			status = "aborted"
		}
		rows = append(rows, []string{
			s.Label,
			signal,
			strconv.Itoa(s.PagesVisited),
			strconv.Itoa(s.PagesFailed),
			strconv.Itoa(s.TotalRequests),
			strconv.Itoa(s.TrackerRequests),
			strconv.Itoa(len(s.UniqueTrackerDomains)),
			strconv.Itoa(s.TemporalLeaks),
			status,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Session", "Signal", "Pages", "Failed", "Requests", "Tracker Requests", "Tracker Domains", "Leaks", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeViolations(md *markdown.Markdown, report *model.EvidenceReport) {
	md.H2("Violations")
	md.PlainText("")

	summary := report.ViolationSummary
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"HIGH", strconv.Itoa(summary.SeverityBreakdown[model.SeverityHigh.String()])},
			{"MEDIUM", strconv.Itoa(summary.SeverityBreakdown[model.SeverityMedium.String()])},
			{"LOW", strconv.Itoa(summary.SeverityBreakdown[model.SeverityLow.String()])},
			{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
		},
	})
	md.PlainText("")
	md.PlainTextf("Maximum potential penalty: $%.2f USD", summary.MaxPotentialPenaltyUSD)
	md.PlainText("")

	if summary.Total == 0 {
		md.PlainText("No violations found.")
		md.PlainText("")
		return
	}

	for i, v := range report.Violations {
		md.H3(fmt.Sprintf("%d. %s (%s)", i+1, violationTitle(v.ViolationType), v.SeverityText))
		md.PlainText("")
		md.PlainTextf("Rule: %s, %s", v.RuleID, v.SectionCitation)
		md.PlainText("")
		if v.PlainEnglish != "" {
			md.PlainText(v.PlainEnglish)
			md.PlainText("")
		}
		md.PlainTextf("Recommendation: %s", v.Recommendation)
		md.PlainText("")
		if v.TechnicalFix != "" && v.TechnicalFix != v.Recommendation {
			md.PlainTextf("Technical fix: %s", v.TechnicalFix)
			md.PlainText("")
		}
	}
}

// violationTitle renders a violation type identifier as a heading,
// e.g. "SIGNAL_NOT_HONORED" becomes "Signal Not Honored".
func violationTitle(violationType string) string {
	words := strings.ReplaceAll(strings.ToLower(violationType), "_", " ")
	return cases.Title(language.English).String(words)
}
