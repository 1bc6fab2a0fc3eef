package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/privsig/gpcscan/internal/model"
)

func testReport(target, jurisdiction string, outcome model.Outcome, highCount int) *model.EvidenceReport {
	return &model.EvidenceReport{
		Metadata: model.ReportMetadata{
			Tool:         "gpcscan",
			Version:      "test",
			Target:       target,
			Jurisdiction: jurisdiction,
			GeneratedAt:  time.Now().UTC(),
		},
		SessionSummaries: []model.SessionSummary{},
		Verdict: model.Verdict{
			Verdict:               outcome,
			DomainsIgnoringSignal: []string{},
		},
		ViolationSummary: model.ViolationSummary{
			Total: highCount,
			SeverityBreakdown: map[string]int{
				"HIGH": highCount, "MEDIUM": 0, "LOW": 0,
			},
		},
		Violations: []model.Violation{},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database with default options", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()
	})

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()
	})

	t.Run("fails when database missing and creation disabled", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("Open() should fail for a missing database")
		}
	})

	t.Run("reopens an existing database without creation", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		db.Close()

		db2, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		db2.Close()
	})
}

func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	id, err := db.SaveReport(ctx, testReport("example.com", "CCPA", model.OutcomeNonCompliant, 2))
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("SaveReport() id = %d, want positive", id)
	}

	t.Run("latest report round-trips", func(t *testing.T) {
		got, err := db.GetLatestReport(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetLatestReport() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetLatestReport() = nil, want a report")
		}
		if got.Verdict.Verdict != model.OutcomeNonCompliant {
			t.Errorf("verdict = %q, want NON_COMPLIANT", got.Verdict.Verdict)
		}
		if got.Metadata.Jurisdiction != "CCPA" {
			t.Errorf("jurisdiction = %q, want CCPA", got.Metadata.Jurisdiction)
		}
	})

	t.Run("unknown target returns nil without error", func(t *testing.T) {
		got, err := db.GetLatestReport(ctx, "missing.example")
		if err != nil {
			t.Fatalf("GetLatestReport() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetLatestReport() = %+v, want nil", got)
		}
	})

	t.Run("report is retrievable by id", func(t *testing.T) {
		got, err := db.GetReportByID(ctx, id)
		if err != nil {
			t.Fatalf("GetReportByID() error = %v", err)
		}
		if got == nil || got.Metadata.Target != "example.com" {
			t.Errorf("GetReportByID() = %+v, want example.com report", got)
		}
	})

	t.Run("unknown id returns nil without error", func(t *testing.T) {
		got, err := db.GetReportByID(ctx, 99999)
		if err != nil {
			t.Fatalf("GetReportByID() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetReportByID() = %+v, want nil", got)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	// Two scans of the same target and one of another.
	if _, err := db.SaveReport(ctx, testReport("example.com", "CCPA", model.OutcomeNonCompliant, 3)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if _, err := db.SaveReport(ctx, testReport("example.com", "CCPA", model.OutcomeCompliant, 0)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if _, err := db.SaveReport(ctx, testReport("other.example", "GDPR", model.OutcomeInsufficientData, 0)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	t.Run("lists all scanned targets", func(t *testing.T) {
		targets, err := db.ListTargets(ctx)
		if err != nil {
			t.Fatalf("ListTargets() error = %v", err)
		}
		if len(targets) != 2 {
			t.Fatalf("len(targets) = %d, want 2", len(targets))
		}
		if targets[0] != "example.com" || targets[1] != "other.example" {
			t.Errorf("targets = %v, want sorted [example.com other.example]", targets)
		}
	})

	t.Run("history returns all reports newest first", func(t *testing.T) {
		history, err := db.GetHistory(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("len(history) = %d, want 2", len(history))
		}
		if history[0].Verdict.Verdict != model.OutcomeCompliant {
			t.Errorf("newest verdict = %q, want COMPLIANT", history[0].Verdict.Verdict)
		}
	})

	t.Run("latest report reflects the most recent scan", func(t *testing.T) {
		got, err := db.GetLatestReport(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetLatestReport() error = %v", err)
		}
		if got == nil || got.Verdict.Verdict != model.OutcomeCompliant {
			t.Errorf("latest verdict = %+v, want COMPLIANT", got)
		}
	})

	t.Run("metadata carries verdict and severity counts", func(t *testing.T) {
		records, err := db.GetHistoryMetadata(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetHistoryMetadata() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len(records) = %d, want 2", len(records))
		}
		oldest := records[1]
		if oldest.Verdict != string(model.OutcomeNonCompliant) {
			t.Errorf("oldest verdict = %q, want NON_COMPLIANT", oldest.Verdict)
		}
		if oldest.SeveritySummary["HIGH"] != 3 {
			t.Errorf("HIGH count = %d, want 3", oldest.SeveritySummary["HIGH"])
		}
		if oldest.Jurisdiction != "CCPA" {
			t.Errorf("jurisdiction = %q, want CCPA", oldest.Jurisdiction)
		}
		if oldest.Timestamp.IsZero() {
			t.Error("timestamp should be parsed")
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2026-08-30 12:34:56"},
		{name: "iso with z", input: "2026-08-30T12:34:56Z"},
		{name: "rfc3339", input: "2026-08-30T12:34:56+02:00"},
		{name: "garbage", input: "not-a-time", zero: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
