package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/privsig/gpcscan/internal/detector"
	"github.com/privsig/gpcscan/internal/enrich"
	"github.com/privsig/gpcscan/internal/leak"
	"github.com/privsig/gpcscan/internal/model"
	"github.com/privsig/gpcscan/internal/report"
	"github.com/privsig/gpcscan/internal/rules"
	"github.com/privsig/gpcscan/internal/session"
	"github.com/privsig/gpcscan/internal/verdict"
)

// SessionStep runs the dual browsing sessions over the itinerary. It is
// the only step that touches the network; everything downstream is pure
// computation over its captured logs.
type SessionStep struct {
	// runner drives the sessions concurrently.
	runner *session.Runner

	// signals holds one posture per session, conventionally baseline
	// and compliance.
	signals []model.SignalConfig

	// logger for structured logging.
	logger *slog.Logger
}

// SessionStepOption configures a SessionStep.
type SessionStepOption func(*SessionStep)

// WithSessionLogger sets a custom logger for the session step.
func WithSessionLogger(logger *slog.Logger) SessionStepOption {
	return func(s *SessionStep) {
		s.logger = logger
	}
}

// NewSessionStep creates the session capture step.
func NewSessionStep(runner *session.Runner, signals []model.SignalConfig, opts ...SessionStepOption) *SessionStep {
	s := &SessionStep{
		runner:  runner,
		signals: signals,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SessionStep) Name() string {
	return "sessions"
}

// Do executes both sessions and stores the frozen logs on the scan.
// Aborted sessions and failed pages surface as warnings rather than
// errors: degraded capture still flows through to an INSUFFICIENT_DATA
// verdict with the evidence that was gathered.
func (s *SessionStep) Do(ctx context.Context, scan *model.Scan) error {
	if len(scan.Itinerary) == 0 {
		return fmt.Errorf("scan of %s has an empty itinerary", scan.Target)
	}

	scan.StartedAt = time.Now()
	scan.Logs = s.runner.Run(ctx, scan.Itinerary, s.signals)
	scan.Elapsed = time.Since(scan.StartedAt)

	for label, log := range scan.Logs {
		if log.Aborted {
			scan.AddWarning(fmt.Sprintf("session %s aborted before completing its itinerary", label))
		}
		if failed := len(log.Visits) - log.SuccessfulVisitCount(); failed > 0 {
			scan.AddWarning(fmt.Sprintf("session %s: %d of %d pages failed to load", label, failed, len(log.Visits)))
		}
	}
	return nil
}

// LeakStep detects temporal leaks in the compliance session.
type LeakStep struct {
	// window is the detection window anchored at each page load.
	window time.Duration
}

// NewLeakStep creates the temporal leak detection step.
func NewLeakStep(window time.Duration) *LeakStep {
	return &LeakStep{window: window}
}

// Name returns the step name.
func (s *LeakStep) Name() string {
	return "temporal_leaks"
}

// Do runs leak detection over the compliance log. A missing compliance
// log yields zero leaks, not an error; the verdict step accounts for the
// missing session.
func (s *LeakStep) Do(_ context.Context, scan *model.Scan) error {
	scan.ComplianceLeaks = leak.Detect(scan.Compliance(), s.window)
	return nil
}

// VerdictStep computes the ternary compliance verdict from the two
// session logs and the leak count.
type VerdictStep struct{}

// NewVerdictStep creates the verdict computation step.
func NewVerdictStep() *VerdictStep {
	return &VerdictStep{}
}

// Name returns the step name.
func (s *VerdictStep) Name() string {
	return "verdict"
}

// Do computes and stores the verdict.
func (s *VerdictStep) Do(_ context.Context, scan *model.Scan) error {
	v := verdict.Compute(scan.Baseline(), scan.Compliance(), len(scan.ComplianceLeaks))
	scan.Verdict = &v
	return nil
}

// RulesStep loads the rule dataset for the scan's jurisdiction.
type RulesStep struct {
	store *rules.Store
}

// NewRulesStep creates the rule loading step.
func NewRulesStep(store *rules.Store) *RulesStep {
	return &RulesStep{store: store}
}

// Name returns the step name.
func (s *RulesStep) Name() string {
	return "rules"
}

// Do fetches the jurisdiction's rules onto the scan. An unknown
// jurisdiction is a step failure: evaluation without rules is meaningless.
func (s *RulesStep) Do(ctx context.Context, scan *model.Scan) error {
	ruleSet, err := s.store.FetchRules(ctx, scan.Jurisdiction)
	if err != nil {
		return fmt.Errorf("load rules for %s: %w", scan.Jurisdiction, err)
	}
	scan.Rules = ruleSet
	return nil
}

// EvaluateStep runs every behavioral rule through its registered detector.
type EvaluateStep struct {
	// evaluator holds the detector registry.
	evaluator *detector.Evaluator

	// leakWindow is passed through to detectors as evidence context.
	leakWindow time.Duration
}

// NewEvaluateStep creates the rule evaluation step.
func NewEvaluateStep(evaluator *detector.Evaluator, leakWindow time.Duration) *EvaluateStep {
	return &EvaluateStep{evaluator: evaluator, leakWindow: leakWindow}
}

// Name returns the step name.
func (s *EvaluateStep) Name() string {
	return "evaluate"
}

// Do evaluates the loaded rules against the scan evidence.
func (s *EvaluateStep) Do(_ context.Context, scan *model.Scan) error {
	if scan.Verdict == nil {
		return fmt.Errorf("evaluation requires a computed verdict")
	}
	in := detector.Input{
		Baseline:   scan.Baseline(),
		Compliance: scan.Compliance(),
		Verdict:    *scan.Verdict,
		Leaks:      scan.ComplianceLeaks,
		LeakWindow: s.leakWindow,
	}
	scan.Violations = s.evaluator.Evaluate(in, scan.Rules)
	return nil
}

// EnrichStep fills the plain-English explanation fields on each
// violation. Enrichment is best-effort: provider failures leave the
// violations untouched and never fail the step.
type EnrichStep struct {
	chain *enrich.Chain
}

// NewEnrichStep creates the enrichment step.
func NewEnrichStep(chain *enrich.Chain) *EnrichStep {
	return &EnrichStep{chain: chain}
}

// Name returns the step name.
func (s *EnrichStep) Name() string {
	return "enrich"
}

// Do enriches the scan's violations in place.
func (s *EnrichStep) Do(ctx context.Context, scan *model.Scan) error {
	scan.Violations = s.chain.Enrich(ctx, scan.Violations, scan.Rules)
	return nil
}

// ReportStep assembles the final evidence report and stamps its
// integrity digest.
type ReportStep struct{}

// NewReportStep creates the report assembly step.
func NewReportStep() *ReportStep {
	return &ReportStep{}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do builds and stamps the report.
func (s *ReportStep) Do(_ context.Context, scan *model.Scan) error {
	r := report.Build(scan)
	if err := report.StampIntegrity(r); err != nil {
		return fmt.Errorf("stamp report integrity: %w", err)
	}
	scan.Report = r
	return nil
}
