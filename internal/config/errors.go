package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target site URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a site URL")

	// ErrNoJurisdiction is returned when the jurisdiction is empty.
	// The rule dataset is keyed by jurisdiction, so a scan cannot proceed
	// without one.
	ErrNoJurisdiction = errors.New("no jurisdiction specified: use --jurisdiction (CCPA or GDPR)")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrTimeoutOrder is returned when the total session timeout is
	// shorter than the per-page timeout, which would make the per-page
	// policy unreachable.
	ErrTimeoutOrder = errors.New("invalid timeouts: total timeout must be at least the per-page timeout")

	// ErrInvalidLeakWindow is returned when the temporal-leak window is
	// not positive. A zero window would classify nothing as a leak.
	ErrInvalidLeakWindow = errors.New("invalid leak window: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
