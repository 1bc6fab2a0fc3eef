package model

// SignalConfig is an immutable description of the privacy posture asserted
// by one browsing session. It is created once per scan request and never
// mutated after the session starts.
//
// Design decision: Header and override maps are copied on construction via
// NewSignalConfig rather than shared, because two sessions in one scan must
// never observe each other's state. The struct itself is passed by value
// where practical to reinforce immutability.
type SignalConfig struct {
	// Label identifies the session this posture belongs to.
	// Conventionally "baseline" (no signal) or "compliance" (signal on).
	Label string `json:"label"`

	// HTTPHeaders are added to every request the session issues,
	// e.g. the Sec-GPC opt-out header.
	HTTPHeaders map[string]string `json:"http_headers,omitempty"`

	// ScriptOverrides are page-level property overrides applied before any
	// page script runs, in order. For the GPC posture this sets
	// navigator.globalPrivacyControl to true.
	ScriptOverrides []string `json:"script_overrides,omitempty"`

	// SimulateRejectAction instructs the session driver to actively pursue
	// a "Reject All" style consent action when a banner is present.
	SimulateRejectAction bool `json:"simulate_reject_action"`
}

// NewSignalConfig builds a SignalConfig with defensive copies of the
// mutable inputs.
func NewSignalConfig(label string, headers map[string]string, overrides []string, simulateReject bool) SignalConfig {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	o := make([]string, len(overrides))
	copy(o, overrides)

	return SignalConfig{
		Label:                label,
		HTTPHeaders:          h,
		ScriptOverrides:      o,
		SimulateRejectAction: simulateReject,
	}
}

// SignalAsserted reports whether this posture actually asserts a privacy
// signal. A posture with no headers and no overrides is a baseline.
func (c SignalConfig) SignalAsserted() bool {
	return len(c.HTTPHeaders) > 0 || len(c.ScriptOverrides) > 0
}
