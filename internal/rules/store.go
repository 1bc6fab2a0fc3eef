package rules

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/privsig/gpcscan/internal/model"
)

//go:embed rules.sql
var embeddedDataset string

var (
	// ErrNoRules is returned when a jurisdiction has no rules in the
	// loaded dataset. Scans fail fast on this before any session launches.
	ErrNoRules = errors.New("no rules loaded for jurisdiction")

	// ErrDatasetNotFound is returned when a rule dataset file path does
	// not exist.
	ErrDatasetNotFound = errors.New("rule dataset file not found")
)

// sqlComment matches single-line SQL comments for stripping before
// statement splitting.
var sqlComment = regexp.MustCompile(`--[^\n]*`)

// Store holds the rule dataset in an in-memory SQLite database.
type Store struct {
	db *sql.DB
}

// Open loads the embedded rule dataset.
func Open() (*Store, error) {
	return load(embeddedDataset)
}

// OpenFile loads a rule dataset from an external .sql file, replacing
// the embedded dataset entirely.
func OpenFile(path string) (*Store, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied dataset
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("failed to read rule dataset: %w", err)
	}
	return load(string(data))
}

// load executes the dataset's DDL and DML statements into a fresh
// in-memory database. Only CREATE, INSERT, ALTER, and DROP statements
// are executed; anything else in the file is ignored.
func load(sqlText string) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// The in-memory database lives and dies with this single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	clean := sqlComment.ReplaceAllString(sqlText, "")
	for _, stmt := range strings.Split(clean, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		keyword := strings.ToUpper(strings.Fields(stmt)[0])
		switch keyword {
		case "CREATE", "INSERT", "ALTER", "DROP":
		default:
			continue
		}
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute dataset statement: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the in-memory database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchRules returns all rules for a jurisdiction. An empty result is an
// error: evaluating zero rules would report a clean site vacuously.
func (s *Store) FetchRules(ctx context.Context, jurisdiction string) ([]model.Rule, error) {
	query := `
	SELECT rule_id, regulation_id, section_citation, rule_title, rule_text,
	       detector_key, applies_to, violation_penalty_min, violation_penalty_max,
	       superseded_by
	FROM compliance_rules
	WHERE regulation_id = ?
	ORDER BY rule_id
	`

	rules, err := s.queryRules(ctx, query, jurisdiction)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRules, jurisdiction)
	}
	return rules, nil
}

// GetRule fetches a single rule by ID. Returns nil without error when
// the rule does not exist.
func (s *Store) GetRule(ctx context.Context, ruleID string) (*model.Rule, error) {
	query := `
	SELECT rule_id, regulation_id, section_citation, rule_title, rule_text,
	       detector_key, applies_to, violation_penalty_min, violation_penalty_max,
	       superseded_by
	FROM compliance_rules
	WHERE rule_id = ?
	`

	rules, err := s.queryRules(ctx, query, ruleID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}

// ListRules returns every rule in the dataset across all jurisdictions.
func (s *Store) ListRules(ctx context.Context) ([]model.Rule, error) {
	query := `
	SELECT rule_id, regulation_id, section_citation, rule_title, rule_text,
	       detector_key, applies_to, violation_penalty_min, violation_penalty_max,
	       superseded_by
	FROM compliance_rules
	ORDER BY regulation_id, rule_id
	`

	return s.queryRules(ctx, query)
}

// Jurisdictions returns the distinct regulation IDs present in the dataset.
func (s *Store) Jurisdictions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT DISTINCT regulation_id FROM compliance_rules ORDER BY regulation_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, fmt.Errorf("failed to scan jurisdiction: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []model.Rule
	for rows.Next() {
		var r model.Rule
		var detectorKey, appliesTo, supersededBy sql.NullString
		var penaltyMin, penaltyMax sql.NullFloat64

		if err := rows.Scan(
			&r.RuleID,
			&r.Jurisdiction,
			&r.SectionCitation,
			&r.Title,
			&r.RuleText,
			&detectorKey,
			&appliesTo,
			&penaltyMin,
			&penaltyMax,
			&supersededBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		r.DetectorKey = detectorKey.String
		r.AppliesTo = appliesTo.String
		r.SupersededBy = supersededBy.String
		if penaltyMin.Valid {
			v := penaltyMin.Float64
			r.PenaltyMin = &v
		}
		if penaltyMax.Valid {
			v := penaltyMax.Float64
			r.PenaltyMax = &v
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
