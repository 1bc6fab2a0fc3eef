package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("embedded dataset loads", func(t *testing.T) {
		t.Parallel()

		store, err := Open()
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer store.Close()

		jurisdictions, err := store.Jurisdictions(context.Background())
		if err != nil {
			t.Fatalf("Jurisdictions() error = %v", err)
		}
		want := []string{"CCPA", "GDPR"}
		if len(jurisdictions) != len(want) {
			t.Fatalf("expected %v, got %v", want, jurisdictions)
		}
		for i, j := range want {
			if jurisdictions[i] != j {
				t.Errorf("jurisdiction %d: expected %s, got %s", i, j, jurisdictions[i])
			}
		}
	})
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrDatasetNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := OpenFile(filepath.Join(t.TempDir(), "missing.sql"))
		if !errors.Is(err, ErrDatasetNotFound) {
			t.Errorf("expected ErrDatasetNotFound, got %v", err)
		}
	})

	t.Run("external dataset replaces the embedded one", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rules.sql")
		dataset := `
		CREATE TABLE compliance_rules (
			rule_id TEXT PRIMARY KEY,
			regulation_id TEXT NOT NULL,
			section_citation TEXT NOT NULL,
			rule_title TEXT NOT NULL,
			rule_text TEXT NOT NULL,
			detector_key TEXT,
			applies_to TEXT,
			violation_penalty_min REAL,
			violation_penalty_max REAL,
			superseded_by TEXT
		);
		-- a comment to be stripped
		INSERT INTO compliance_rules VALUES (
			'PIPEDA-1', 'PIPEDA', 'PIPEDA Sch. 1, 4.3', 'Consent', 'text',
			'no_consent_banner', 'all_pages', 100, 100000, NULL
		);
		SELECT * FROM compliance_rules;
		`
		if err := os.WriteFile(path, []byte(dataset), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		store, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		defer store.Close()

		rules, err := store.FetchRules(context.Background(), "PIPEDA")
		if err != nil {
			t.Fatalf("FetchRules() error = %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(rules))
		}
		if rules[0].RuleID != "PIPEDA-1" {
			t.Errorf("expected rule PIPEDA-1, got %s", rules[0].RuleID)
		}

		if _, err := store.FetchRules(context.Background(), "CCPA"); !errors.Is(err, ErrNoRules) {
			t.Errorf("expected ErrNoRules for CCPA against external dataset, got %v", err)
		}
	})
}

func TestStore_FetchRules(t *testing.T) {
	t.Parallel()

	store, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	// Cleanup, not defer: the parallel subtests outlive this function.
	t.Cleanup(func() { store.Close() })

	t.Run("CCPA rules include behavioral and definitional entries", func(t *testing.T) {
		t.Parallel()

		rules, err := store.FetchRules(context.Background(), "CCPA")
		if err != nil {
			t.Fatalf("FetchRules() error = %v", err)
		}

		byID := make(map[string]int, len(rules))
		for i, r := range rules {
			byID[r.RuleID] = i
			if r.Jurisdiction != "CCPA" {
				t.Errorf("rule %s: expected jurisdiction CCPA, got %s", r.RuleID, r.Jurisdiction)
			}
		}

		i, ok := byID["CCPA-1798.135b"]
		if !ok {
			t.Fatal("expected rule CCPA-1798.135b in dataset")
		}
		signal := rules[i]
		if signal.DetectorKey != "signal_not_honored" {
			t.Errorf("expected detector key signal_not_honored, got %s", signal.DetectorKey)
		}
		if signal.PenaltyMin == nil || *signal.PenaltyMin != 2500 {
			t.Errorf("expected penalty min 2500, got %v", signal.PenaltyMin)
		}
		if signal.PenaltyMax == nil || *signal.PenaltyMax != 7500 {
			t.Errorf("expected penalty max 7500, got %v", signal.PenaltyMax)
		}
		if signal.IsDefinitional() {
			t.Error("expected CCPA-1798.135b to be behavioral, not definitional")
		}

		i, ok = byID["CCPA-1798.140"]
		if !ok {
			t.Fatal("expected definitional rule CCPA-1798.140 in dataset")
		}
		if !rules[i].IsDefinitional() {
			t.Error("expected CCPA-1798.140 to be definitional")
		}
	})

	t.Run("supersession is surfaced without removing either version", func(t *testing.T) {
		t.Parallel()

		rules, err := store.FetchRules(context.Background(), "CCPA")
		if err != nil {
			t.Fatalf("FetchRules() error = %v", err)
		}

		var superseded, superseding bool
		for _, r := range rules {
			if r.RuleID == "CCPA-1798.185a19" {
				superseded = true
				if r.SupersededBy != "CCPA-1798.135b" {
					t.Errorf("expected superseded_by CCPA-1798.135b, got %q", r.SupersededBy)
				}
			}
			if r.RuleID == "CCPA-1798.135b" {
				superseding = true
			}
		}
		if !superseded || !superseding {
			t.Error("expected both the superseded and superseding rules to load")
		}
	})

	t.Run("unknown jurisdiction fails fast", func(t *testing.T) {
		t.Parallel()

		_, err := store.FetchRules(context.Background(), "LGPD")
		if !errors.Is(err, ErrNoRules) {
			t.Errorf("expected ErrNoRules, got %v", err)
		}
	})
}

func TestStore_GetRule(t *testing.T) {
	t.Parallel()

	store, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	t.Run("existing rule", func(t *testing.T) {
		t.Parallel()

		rule, err := store.GetRule(context.Background(), "GDPR-ePD-Art5.3")
		if err != nil {
			t.Fatalf("GetRule() error = %v", err)
		}
		if rule == nil {
			t.Fatal("expected rule, got nil")
		}
		if rule.DetectorKey != "no_consent_banner" {
			t.Errorf("expected detector key no_consent_banner, got %s", rule.DetectorKey)
		}
	})

	t.Run("missing rule returns nil without error", func(t *testing.T) {
		t.Parallel()

		rule, err := store.GetRule(context.Background(), "CCPA-0000")
		if err != nil {
			t.Fatalf("GetRule() error = %v", err)
		}
		if rule != nil {
			t.Errorf("expected nil, got %+v", rule)
		}
	})
}

func TestStore_ListRules(t *testing.T) {
	t.Parallel()

	store, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	rules, err := store.ListRules(context.Background())
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(rules) < 10 {
		t.Errorf("expected the full dataset, got %d rules", len(rules))
	}

	// Ordered by regulation then rule ID.
	for i := 1; i < len(rules); i++ {
		prev, cur := rules[i-1], rules[i]
		if prev.Jurisdiction > cur.Jurisdiction {
			t.Errorf("rules out of jurisdiction order at %d: %s before %s", i, prev.RuleID, cur.RuleID)
		}
	}
}
