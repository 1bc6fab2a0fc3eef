package verdict

import (
	"sort"

	"github.com/privsig/gpcscan/internal/model"
)

// Compute derives the compliance verdict from the two frozen session
// logs and the number of temporal leaks found in the compliance session.
// DomainsIgnoringSignal is the sorted intersection of the sessions'
// tracker domain sets and is populated even when the verdict is
// INSUFFICIENT_DATA, so partial evidence is still reported.
func Compute(baseline, compliance *model.SessionLog, leakCount int) model.Verdict {
	ignoring := intersect(baseline, compliance)

	v := model.Verdict{
		DomainsIgnoringSignal: ignoring,
		LeakCount:             leakCount,
	}

	switch {
	case len(ignoring) > 0 || leakCount > 0:
		v.Verdict = model.OutcomeNonCompliant
	case sufficient(baseline) && sufficient(compliance):
		v.Verdict = model.OutcomeCompliant
	default:
		v.Verdict = model.OutcomeInsufficientData
	}
	return v
}

func intersect(baseline, compliance *model.SessionLog) []string {
	if baseline == nil || compliance == nil {
		return []string{}
	}

	base := baseline.TrackerDomainSet()
	ignoring := make([]string, 0)
	for domain := range compliance.TrackerDomainSet() {
		if _, ok := base[domain]; ok {
			ignoring = append(ignoring, domain)
		}
	}
	sort.Strings(ignoring)
	return ignoring
}

// sufficient reports whether a session gathered enough evidence to
// support a clean verdict: at least one page visited successfully. An
// aborted session still counts when it got that far; the abort itself
// surfaces as a report warning, not a degraded verdict.
func sufficient(log *model.SessionLog) bool {
	return log != nil && log.SuccessfulVisitCount() > 0
}
