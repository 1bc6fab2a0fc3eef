package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/privsig/gpcscan/internal/model"
)

// Default configuration values.
// These values are chosen to match typical page-load behavior on
// commercial sites and the temporal-leak research the rule set encodes.
const (
	// DefaultPerPageTimeout bounds a single navigation, including the
	// settle-wait and subresource capture. Commercial pages with heavy
	// tag managers routinely take 10-20 seconds to go quiet.
	DefaultPerPageTimeout = 30 * time.Second

	// DefaultTotalTimeout bounds one whole session. When it fires, the
	// session's remaining pages are cancelled but already-captured data
	// is preserved.
	DefaultTotalTimeout = 5 * time.Minute

	// DefaultLeakWindow is the temporal-leak detection window. A tracker
	// request inside this window after page load fired before any opt-out
	// signal could plausibly have been processed. 500ms follows the
	// window used when the rule dataset was calibrated; changing it
	// changes which edge cases count as leaks.
	DefaultLeakWindow = 500 * time.Millisecond

	// DefaultJurisdiction selects the rule dataset when none is given.
	DefaultJurisdiction = "CCPA"

	// DefaultBatchSize is the number of targets scanned concurrently when
	// more than one target is given. Each target already runs two
	// browsing sessions in parallel, so this stays conservative.
	DefaultBatchSize = 4

	// DefaultMaxSubresources caps the third-party resources fetched per
	// page. This bounds scan time on pages with hundreds of beacons
	// without silently dropping capture: the cap applies to fetching,
	// not to recording.
	DefaultMaxSubresources = 40

	// DefaultMaxBodySize limits response body reads. Page HTML beyond
	// this is truncated for parsing; 5MB covers real-world documents.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies gpcscan in HTTP requests. A descriptive
	// User-Agent lets site operators identify scanner traffic.
	DefaultUserAgent = "gpcscan/1.0 (+https://github.com/privsig/gpcscan)"

	// AppName is used for XDG directory paths.
	AppName = "gpcscan"
)

// GPC signal constants. The compliance session asserts the Global Privacy
// Control opt-out both as a request header and as a script-visible
// property, mirroring how GPC-aware user agents behave.
const (
	// GPCHeaderKey is the GPC request header name.
	GPCHeaderKey = "Sec-GPC"

	// GPCHeaderValue asserts the opt-out.
	GPCHeaderValue = "1"

	// GPCScriptOverride exposes the signal to page scripts before any of
	// them run. Sites that read navigator.globalPrivacyControl instead of
	// the header see the signal through this override.
	GPCScriptOverride = "Object.defineProperty(navigator, 'globalPrivacyControl', {get: () => true, configurable: true});"
)

// Config holds all configuration options for a scan run. It is populated
// from CLI flags, validated once, and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Targets is the list of site URLs to scan. Each target gets its own
	// dual-session scan and its own evidence report.
	Targets []string

	// Itinerary is the ordered list of absolute page URLs both sessions
	// visit. When empty, the itinerary for each target is taken from the
	// classification/site file, falling back to just the target URL.
	Itinerary []string

	// Jurisdiction selects which rule dataset to load ("CCPA", "GDPR").
	Jurisdiction string

	// PerPageTimeout bounds a single navigation. On expiry the PageVisit
	// is marked failed and the session continues.
	PerPageTimeout time.Duration

	// TotalTimeout bounds one whole session. On expiry the session's
	// remaining pages are cancelled; captured data survives.
	TotalTimeout time.Duration

	// LeakWindow is the temporal-leak detection window.
	LeakWindow time.Duration

	// SimulateRejectAction makes the compliance session actively click a
	// "Reject All" style consent control when a banner is found.
	SimulateRejectAction bool

	// BatchSize is the number of concurrent target scans.
	BatchSize int

	// MaxSubresources caps fetched third-party resources per page.
	MaxSubresources int

	// MaxBodySize limits response body reads in bytes.
	MaxBodySize int64

	// UserAgent is sent with every request.
	UserAgent string

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ClassifyFilePath points to an optional YAML file overriding the
	// built-in tracker/PII/phrase classification tables.
	ClassifyFilePath string

	// RulesPath points to an optional external rules.sql file. Empty
	// means the embedded dataset is used.
	RulesPath string

	// JSONReport / MarkdownReport select the output format. Mutually
	// exclusive; the default is a human-readable summary.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ExportTrafficPath, when set, writes the raw per-session traffic
	// logs as gzip-compressed JSON lines for independent audit.
	ExportTrafficPath string

	// DBDir is the directory for the scan-history SQLite database.
	// Empty means reports are not persisted.
	DBDir string

	// SaveToDB persists each evidence report to the scan history.
	// Automatically true when DBDir is set.
	SaveToDB bool
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error-prone; this
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Jurisdiction:    DefaultJurisdiction,
		PerPageTimeout:  DefaultPerPageTimeout,
		TotalTimeout:    DefaultTotalTimeout,
		LeakWindow:      DefaultLeakWindow,
		BatchSize:       DefaultBatchSize,
		MaxSubresources: DefaultMaxSubresources,
		MaxBodySize:     DefaultMaxBodySize,
		UserAgent:       DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for gpcscan.
// On Linux: ~/.local/share/gpcscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gpcscan.
// On Linux: ~/.config/gpcscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a specific error
// describing the first problem found. It is called once after CLI
// parsing, before any session launches, so bad input fails fast with a
// clear cause.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Jurisdiction == "" {
		return ErrNoJurisdiction
	}
	if c.PerPageTimeout <= 0 || c.TotalTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.TotalTimeout < c.PerPageTimeout {
		return ErrTimeoutOrder
	}
	if c.LeakWindow <= 0 {
		return ErrInvalidLeakWindow
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// BaselineSignal returns the unsignaled posture: no headers, no script
// overrides, no reject action. This is the controlled side of the
// experiment.
func BaselineSignal() model.SignalConfig {
	return model.NewSignalConfig(model.LabelBaseline, nil, nil, false)
}

// ComplianceSignal returns the GPC-asserting posture used by the
// compliance session.
func ComplianceSignal(simulateReject bool) model.SignalConfig {
	return model.NewSignalConfig(
		model.LabelCompliance,
		map[string]string{GPCHeaderKey: GPCHeaderValue},
		[]string{GPCScriptOverride},
		simulateReject,
	)
}
