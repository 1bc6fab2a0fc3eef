package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/config"
	"github.com/privsig/gpcscan/internal/detector"
	"github.com/privsig/gpcscan/internal/enrich"
	"github.com/privsig/gpcscan/internal/model"
	"github.com/privsig/gpcscan/internal/report"
	"github.com/privsig/gpcscan/internal/rules"
	"github.com/privsig/gpcscan/internal/session"
)

// scriptedDriver replays a fixed page result per visit. When the session
// asserts the opt-out header the tracker request is suppressed or kept
// depending on honorsSignal, letting tests steer the verdict.
type scriptedDriver struct {
	signal       model.SignalConfig
	honorsSignal bool
	clock        int64
}

func (d *scriptedDriver) Visit(_ context.Context, pageURL string) (*session.PageResult, error) {
	d.clock += 100
	loadTS := d.clock
	result := &session.PageResult{
		LoadTimestampMS:     loadTS,
		HTTPStatus:          200,
		CookieBannerPresent: true,
		OptOutLinkPresent:   true,
	}

	signaled := d.signal.HTTPHeaders[config.GPCHeaderKey] != ""
	if !signaled || !d.honorsSignal {
		result.Requests = append(result.Requests, session.RawRequest{
			PageURL:      pageURL,
			TimestampMS:  loadTS + 50,
			FullURL:      "https://ads.doubleclick.net/pixel?id=1",
			Method:       "GET",
			ResourceType: "script",
		})
	}
	return result, nil
}

func (d *scriptedDriver) NowMS() int64     { return d.clock }
func (d *scriptedDriver) CookieCount() int { return 1 }
func (d *scriptedDriver) Close() error     { return nil }

func scriptedFactory(honorsSignal bool) session.DriverFactory {
	return func(signal model.SignalConfig) (session.Driver, error) {
		return &scriptedDriver{signal: signal, honorsSignal: honorsSignal}, nil
	}
}

func newScanPipeline(t *testing.T, honorsSignal bool) (*Pipeline, *model.Scan) {
	t.Helper()

	tables := classify.BuiltinTables()
	trackers := classify.NewTrackerMatcher(tables.TrackerDomains)
	pii, err := classify.NewPIIScanner(tables.PIIPatterns)
	if err != nil {
		t.Fatalf("NewPIIScanner() error = %v", err)
	}

	runner := session.NewRunner(scriptedFactory(honorsSignal), trackers, pii,
		session.WithLogger(quietLogger()))

	store, err := rules.Open()
	if err != nil {
		t.Fatalf("rules.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	signals := []model.SignalConfig{
		config.BaselineSignal(),
		config.ComplianceSignal(false),
	}

	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		NewSessionStep(runner, signals, WithSessionLogger(quietLogger())),
		NewLeakStep(config.DefaultLeakWindow),
		NewVerdictStep(),
		NewRulesStep(store),
		NewEvaluateStep(detector.NewEvaluator(quietLogger()), config.DefaultLeakWindow),
		NewEnrichStep(enrich.NewChain(quietLogger(), enrich.NewRuleText())),
		NewReportStep(),
	)

	scan := model.NewScan("example.com", "CCPA", []string{"https://example.com/"})
	return p, scan
}

func TestScanPipeline(t *testing.T) {
	t.Parallel()

	t.Run("signal-ignoring site is judged non-compliant", func(t *testing.T) {
		t.Parallel()

		p, scan := newScanPipeline(t, false)
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		if scan.Verdict == nil || scan.Verdict.Verdict != model.OutcomeNonCompliant {
			t.Fatalf("verdict = %+v, want NON_COMPLIANT", scan.Verdict)
		}
		if len(scan.Verdict.DomainsIgnoringSignal) == 0 {
			t.Error("expected doubleclick.net among domains ignoring the signal")
		}
		if len(scan.Violations) == 0 {
			t.Error("expected at least one violation")
		}
		for _, v := range scan.Violations {
			if v.PlainEnglish == "" {
				t.Errorf("violation %s not enriched", v.ViolationType)
			}
		}
	})

	t.Run("signal-honoring site is judged compliant", func(t *testing.T) {
		t.Parallel()

		p, scan := newScanPipeline(t, true)
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		if scan.Verdict == nil || scan.Verdict.Verdict != model.OutcomeCompliant {
			t.Fatalf("verdict = %+v, want COMPLIANT", scan.Verdict)
		}
		for _, v := range scan.Violations {
			if v.ViolationType == model.ViolationSignalNotHonored {
				t.Error("honoring site should not be flagged for ignoring the signal")
			}
		}
	})

	t.Run("report is built and integrity stamped", func(t *testing.T) {
		t.Parallel()

		p, scan := newScanPipeline(t, false)
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		if scan.Report == nil {
			t.Fatal("report should be built")
		}
		if scan.Report.Metadata.IntegrityDigest == "" {
			t.Error("report should carry an integrity digest")
		}
		ok, err := report.VerifyIntegrity(scan.Report)
		if err != nil {
			t.Fatalf("VerifyIntegrity() error = %v", err)
		}
		if !ok {
			t.Error("freshly stamped report should verify")
		}
	})

	t.Run("all steps are recorded in order", func(t *testing.T) {
		t.Parallel()

		p, scan := newScanPipeline(t, true)
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"sessions", "temporal_leaks", "verdict", "rules", "evaluate", "enrich", "report"}
		if len(scan.PerformedSteps) != len(want) {
			t.Fatalf("PerformedSteps = %v, want %v", scan.PerformedSteps, want)
		}
		for i, name := range want {
			if scan.PerformedSteps[i] != name {
				t.Errorf("PerformedSteps[%d] = %q, want %q", i, scan.PerformedSteps[i], name)
			}
		}
	})
}

func TestSessionStep(t *testing.T) {
	t.Parallel()

	t.Run("empty itinerary is an error", func(t *testing.T) {
		t.Parallel()

		tables := classify.BuiltinTables()
		trackers := classify.NewTrackerMatcher(tables.TrackerDomains)
		pii, err := classify.NewPIIScanner(tables.PIIPatterns)
		if err != nil {
			t.Fatalf("NewPIIScanner() error = %v", err)
		}
		runner := session.NewRunner(scriptedFactory(true), trackers, pii,
			session.WithLogger(quietLogger()))

		step := NewSessionStep(runner, []model.SignalConfig{config.BaselineSignal()})
		scan := model.NewScan("example.com", "CCPA", nil)
		if err := step.Do(context.Background(), scan); err == nil {
			t.Error("Do() should fail on an empty itinerary")
		}
	})

	t.Run("records elapsed time", func(t *testing.T) {
		t.Parallel()

		tables := classify.BuiltinTables()
		trackers := classify.NewTrackerMatcher(tables.TrackerDomains)
		pii, err := classify.NewPIIScanner(tables.PIIPatterns)
		if err != nil {
			t.Fatalf("NewPIIScanner() error = %v", err)
		}
		runner := session.NewRunner(scriptedFactory(true), trackers, pii,
			session.WithLogger(quietLogger()))

		step := NewSessionStep(runner, []model.SignalConfig{config.BaselineSignal()},
			WithSessionLogger(quietLogger()))
		scan := model.NewScan("example.com", "CCPA", []string{"https://example.com/"})
		if err := step.Do(context.Background(), scan); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if scan.StartedAt.IsZero() {
			t.Error("StartedAt should be set")
		}
		if scan.Elapsed < 0 {
			t.Error("Elapsed should be non-negative")
		}
		if scan.Baseline() == nil {
			t.Error("baseline log should be stored")
		}
	})
}

func TestRulesStep(t *testing.T) {
	t.Parallel()

	store, err := rules.Open()
	if err != nil {
		t.Fatalf("rules.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	t.Run("unknown jurisdiction fails the step", func(t *testing.T) {
		t.Parallel()

		step := NewRulesStep(store)
		scan := model.NewScan("example.com", "LGPD", []string{"https://example.com/"})
		if err := step.Do(context.Background(), scan); err == nil {
			t.Error("Do() should fail for a jurisdiction with no rules")
		}
	})

	t.Run("loads rules for a known jurisdiction", func(t *testing.T) {
		t.Parallel()

		step := NewRulesStep(store)
		scan := model.NewScan("example.com", "GDPR", []string{"https://example.com/"})
		if err := step.Do(context.Background(), scan); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(scan.Rules) == 0 {
			t.Error("GDPR rules should be loaded")
		}
	})
}

func TestLeakStep(t *testing.T) {
	t.Parallel()

	t.Run("missing compliance log yields no leaks", func(t *testing.T) {
		t.Parallel()

		step := NewLeakStep(500 * time.Millisecond)
		scan := model.NewScan("example.com", "CCPA", []string{"https://example.com/"})
		if err := step.Do(context.Background(), scan); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(scan.ComplianceLeaks) != 0 {
			t.Errorf("ComplianceLeaks = %d, want 0", len(scan.ComplianceLeaks))
		}
	})
}
