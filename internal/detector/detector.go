package detector

import (
	"math"
	"sort"
	"time"

	"github.com/privsig/gpcscan/internal/model"
)

// Detector keys bound to rules through the rule dataset's detector_key
// column.
const (
	KeySignalNotHonored = "signal_not_honored"
	KeyTemporalLeak     = "temporal_leak"
	KeyMissingOptOut    = "missing_opt_out_link"
	KeyNoConsentBanner  = "no_consent_banner"
	KeyPIIInTracking    = "pii_in_tracking"
)

// sampleLimit caps list-valued evidence so reports stay readable.
const sampleLimit = 10

// Input is the read-only session evidence every detector sees. Detectors
// must not mutate any of it.
type Input struct {
	// Baseline and Compliance are the frozen session logs.
	Baseline   *model.SessionLog
	Compliance *model.SessionLog

	// Verdict is the precomputed compliance verdict.
	Verdict model.Verdict

	// Leaks are the temporal leaks found in the compliance session.
	Leaks []model.NetworkRequest

	// LeakWindow is the window the leaks were detected with.
	LeakWindow time.Duration
}

// Outcome is the result of one detector invocation against one rule.
type Outcome struct {
	// Violation is non-nil when the detector found a violation.
	Violation *model.Violation

	// Skipped is true when prerequisite data was missing and the rule
	// could not be checked. A skipped rule is not evidence of compliance.
	Skipped bool

	// Reason explains a skip.
	Reason string
}

// Func is a pure detector: session evidence plus one rule, zero or one
// violation.
type Func func(in Input, rule model.Rule) (Outcome, error)

func skipped(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

func clean() Outcome {
	return Outcome{}
}

func violation(v model.Violation) Outcome {
	return Outcome{Violation: &v}
}

// detectSignalNotHonored flags tracker domains that fired in both
// sessions: a tracker active under the asserted signal ignored it.
func detectSignalNotHonored(in Input, rule model.Rule) (Outcome, error) {
	if in.Baseline == nil || in.Compliance == nil {
		return skipped("session log missing"), nil
	}
	if len(in.Verdict.DomainsIgnoringSignal) == 0 {
		return clean(), nil
	}

	baseCount := in.Baseline.TrackerRequestCount()
	compCount := in.Compliance.TrackerRequestCount()
	evidence := map[string]any{
		"domains_ignoring_signal":     in.Verdict.DomainsIgnoringSignal,
		"baseline_tracker_requests":   baseCount,
		"compliance_tracker_requests": compCount,
		"reduction_percent":           reductionPercent(baseCount, compCount),
	}
	v := model.NewViolation(rule, model.ViolationSignalNotHonored, model.SeverityHigh, evidence,
		"Stop all third-party tracker beacons when the opt-out signal header is received, before any tracking request is issued.")
	return violation(v), nil
}

// detectTemporalLeak flags tracker requests that fired inside the
// post-load window, before the signal could have been processed.
func detectTemporalLeak(in Input, rule model.Rule) (Outcome, error) {
	if in.Compliance == nil {
		return skipped("compliance session log missing"), nil
	}
	if len(in.Leaks) == 0 {
		return clean(), nil
	}

	domains := make(map[string]struct{}, len(in.Leaks))
	for _, l := range in.Leaks {
		domains[l.Domain] = struct{}{}
	}
	leaked := make([]string, 0, len(domains))
	for d := range domains {
		leaked = append(leaked, d)
	}
	sort.Strings(leaked)

	samples := in.Leaks
	if len(samples) > 3 {
		samples = samples[:3]
	}
	sampleURLs := make([]string, 0, len(samples))
	for _, s := range samples {
		sampleURLs = append(sampleURLs, s.FullURL)
	}

	evidence := map[string]any{
		"leak_count":     len(in.Leaks),
		"leaked_domains": leaked,
		"sample_leaks":   sampleURLs,
		"window_ms":      in.LeakWindow.Milliseconds(),
	}
	v := model.NewViolation(rule, model.ViolationTemporalLeak, model.SeverityHigh, evidence,
		"Trackers fired before the opt-out signal could be processed. Pre-block tracker requests when the signal header is present instead of removing them asynchronously.")
	return violation(v), nil
}

// detectMissingOptOut flags compliance-session pages lacking an opt-out
// link.
func detectMissingOptOut(in Input, rule model.Rule) (Outcome, error) {
	if in.Compliance == nil {
		return skipped("compliance session log missing"), nil
	}
	checked, missing := pagesFailing(in.Compliance, func(p model.PageVisit) bool {
		return !p.OptOutLinkPresent
	})
	if checked == 0 {
		return skipped("no successfully loaded pages to check"), nil
	}
	if len(missing) == 0 {
		return clean(), nil
	}

	evidence := map[string]any{
		"pages_missing_link":  capList(missing, sampleLimit),
		"total_pages_checked": checked,
		"pages_compliant":     checked - len(missing),
	}
	v := model.NewViolation(rule, model.ViolationMissingOptOut, model.SeverityHigh, evidence,
		"Add a clear and conspicuous \"Do Not Sell or Share My Personal Information\" link to every page.")
	return violation(v), nil
}

// detectNoConsentBanner flags compliance-session pages presenting no
// consent notice.
func detectNoConsentBanner(in Input, rule model.Rule) (Outcome, error) {
	if in.Compliance == nil {
		return skipped("compliance session log missing"), nil
	}
	checked, missing := pagesFailing(in.Compliance, func(p model.PageVisit) bool {
		return !p.CookieBannerPresent
	})
	if checked == 0 {
		return skipped("no successfully loaded pages to check"), nil
	}
	if len(missing) == 0 {
		return clean(), nil
	}

	evidence := map[string]any{
		"pages_without_banner": capList(missing, sampleLimit),
		"total_pages_checked":  checked,
	}
	v := model.NewViolation(rule, model.ViolationNoConsentBanner, model.SeverityMedium, evidence,
		"Display a privacy or cookie consent notice on every page before loading non-essential tracking scripts.")
	return violation(v), nil
}

// detectPIIInTracking flags tracker requests carrying personal
// identifiers in their URLs.
func detectPIIInTracking(in Input, rule model.Rule) (Outcome, error) {
	if in.Compliance == nil {
		return skipped("compliance session log missing"), nil
	}

	var hits int
	domains := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, r := range in.Compliance.Requests {
		if !r.ContainsPII || !r.IsTracker {
			continue
		}
		hits++
		domains[r.Domain] = struct{}{}
		for _, t := range r.PIITypes {
			types[t] = struct{}{}
		}
	}
	if hits == 0 {
		return clean(), nil
	}

	evidence := map[string]any{
		"total_pii_hits": hits,
		"sample_domains": capList(sortedKeys(domains), 5),
		"pii_types":      sortedKeys(types),
	}
	v := model.NewViolation(rule, model.ViolationPIIInTracking, model.SeverityMedium, evidence,
		"Remove or anonymize personal identifiers from outbound tracker URLs. Never pass email, phone, or hashed IDs in beacon request parameters.")
	return violation(v), nil
}

// pagesFailing returns how many successfully loaded pages were checked
// and the URLs of those failing the predicate.
func pagesFailing(log *model.SessionLog, failing func(model.PageVisit) bool) (int, []string) {
	var checked int
	var urls []string
	for _, p := range log.Visits {
		if !p.Succeeded() {
			continue
		}
		checked++
		if failing(p) {
			urls = append(urls, p.URL)
		}
	}
	return checked, urls
}

func capList(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// reductionPercent is how much tracker traffic dropped between the
// baseline and the compliance session, rounded to one decimal place.
func reductionPercent(baseline, compliance int) float64 {
	if baseline < 1 {
		baseline = 1
	}
	pct := (1 - float64(compliance)/float64(baseline)) * 100
	return math.Round(pct*10) / 10
}
