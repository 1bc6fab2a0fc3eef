package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/privsig/gpcscan/internal/classify"
)

// ErrClassifyFileNotFound is returned when an explicitly specified
// classification file does not exist. Missing classification lists are a
// fatal dataset failure: the scan must not proceed with silently degraded
// tracker detection.
var ErrClassifyFileNotFound = errors.New("classification file not found")

// ClassifyFile is the YAML structure of a classification override file.
// Any field left empty keeps the built-in table; a non-empty field
// replaces it wholesale so the file is the single source of truth for
// that table.
type ClassifyFile struct {
	// TrackerDomains lists registrable domains of known data-collection
	// endpoints, matched exactly or by suffix.
	TrackerDomains []string `yaml:"trackerDomains,omitempty"`

	// PIIPatterns maps indicator names to regular expressions matched
	// against request URLs.
	PIIPatterns map[string]string `yaml:"piiPatterns,omitempty"`

	// BannerMarkers are substrings of element class/id attributes that
	// identify cookie-consent banners.
	BannerMarkers []string `yaml:"bannerMarkers,omitempty"`

	// OptOutPhrases are link/button texts that satisfy the opt-out-link
	// requirement ("do not sell", "your privacy choices", ...).
	OptOutPhrases []string `yaml:"optOutPhrases,omitempty"`

	// RejectPhrases are button texts the reject-action simulation clicks.
	RejectPhrases []string `yaml:"rejectPhrases,omitempty"`

	// Itineraries maps target URLs to their ordered page itineraries,
	// letting a config file carry the discovery stage's output.
	Itineraries map[string][]string `yaml:"itineraries,omitempty"`
}

// LoadClassification builds the classification tables for a scan. With an
// empty path the built-in tables are returned; otherwise the YAML file is
// loaded and merged over the built-ins. The tables are immutable for the
// duration of the scan and shared read-only between sessions.
func LoadClassification(path string) (*classify.Tables, map[string][]string, error) {
	tables := classify.BuiltinTables()
	if path == "" {
		return tables, nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrClassifyFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("read classification file: %w", err)
	}

	var cf ClassifyFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, nil, fmt.Errorf("parse classification file: %w", err)
	}

	if len(cf.TrackerDomains) > 0 {
		tables.TrackerDomains = cf.TrackerDomains
	}
	if len(cf.PIIPatterns) > 0 {
		tables.PIIPatterns = cf.PIIPatterns
	}
	if len(cf.BannerMarkers) > 0 {
		tables.BannerMarkers = cf.BannerMarkers
	}
	if len(cf.OptOutPhrases) > 0 {
		tables.OptOutPhrases = cf.OptOutPhrases
	}
	if len(cf.RejectPhrases) > 0 {
		tables.RejectPhrases = cf.RejectPhrases
	}

	return tables, cf.Itineraries, nil
}
