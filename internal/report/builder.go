package report

import (
	"time"

	"github.com/privsig/gpcscan/internal/model"
)

// Tool and Version identify the generator in report metadata.
const (
	Tool    = "gpcscan"
	Version = "1.0.0"
)

// Build assembles the evidence report from the completed scan state.
// Pure aggregation: every number in the report is derived from data the
// earlier stages already computed. The report is schema-stable even when
// the violation list is empty, so "no violations found" and "insufficient
// data" remain distinguishable by the verdict field alone.
func Build(scan *model.Scan) *model.EvidenceReport {
	verdict := model.Verdict{Verdict: model.OutcomeInsufficientData, DomainsIgnoringSignal: []string{}}
	if scan.Verdict != nil {
		verdict = *scan.Verdict
	}

	violations := scan.Violations
	if violations == nil {
		violations = make([]model.Violation, 0)
	}

	report := &model.EvidenceReport{
		Metadata: model.ReportMetadata{
			Tool:           Tool,
			Version:        Version,
			Target:         scan.Target,
			Jurisdiction:   scan.Jurisdiction,
			GeneratedAt:    time.Now().UTC(),
			ElapsedSeconds: scan.Elapsed.Seconds(),
			Warnings:       scan.Warnings,
		},
		SessionSummaries: sessionSummaries(scan),
		Verdict:          verdict,
		ViolationSummary: summarizeViolations(violations),
		Violations:       violations,
	}
	return report
}

// sessionSummaries emits one summary per session, baseline first.
func sessionSummaries(scan *model.Scan) []model.SessionSummary {
	ordered := make([]*model.SessionLog, 0, len(scan.Logs))
	if l := scan.Baseline(); l != nil {
		ordered = append(ordered, l)
	}
	if l := scan.Compliance(); l != nil {
		ordered = append(ordered, l)
	}
	for label, l := range scan.Logs {
		if label != model.LabelBaseline && label != model.LabelCompliance {
			ordered = append(ordered, l)
		}
	}

	summaries := make([]model.SessionSummary, 0, len(ordered))
	for _, l := range ordered {
		s := model.SessionSummary{
			Label:                l.Label,
			SignalAsserted:       l.Signal.SignalAsserted(),
			PagesVisited:         l.SuccessfulVisitCount(),
			PagesFailed:          len(l.Visits) - l.SuccessfulVisitCount(),
			TotalRequests:        len(l.Requests),
			TrackerRequests:      l.TrackerRequestCount(),
			UniqueTrackerDomains: l.TrackerDomains(),
			CookieCount:          l.CookieCount,
			Aborted:              l.Aborted,
		}
		if l.Label == model.LabelCompliance {
			s.TemporalLeaks = len(scan.ComplianceLeaks)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// summarizeViolations computes the severity histogram and the aggregate
// penalty. The histogram always carries all three severity keys so the
// report shape does not depend on what was found.
func summarizeViolations(violations []model.Violation) model.ViolationSummary {
	breakdown := map[string]int{
		model.SeverityHigh.String():   0,
		model.SeverityMedium.String(): 0,
		model.SeverityLow.String():    0,
	}
	var maxPenalty float64
	for _, v := range violations {
		breakdown[v.Severity.String()]++
		if v.PenaltyMax != nil {
			maxPenalty += *v.PenaltyMax
		}
	}
	return model.ViolationSummary{
		Total:                  len(violations),
		SeverityBreakdown:      breakdown,
		MaxPotentialPenaltyUSD: maxPenalty,
	}
}
