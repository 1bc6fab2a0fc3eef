package model

import "fmt"

// NetworkRequest records one outbound HTTP request observed during a
// session. It is created at capture time by the traffic recorder and is
// immutable thereafter. Each request belongs to exactly one SessionLog and
// exactly one PageVisit within that log; requests are never shared across
// sessions.
type NetworkRequest struct {
	// SessionLabel identifies the owning session ("baseline", "compliance").
	SessionLabel string `json:"session_label"`

	// PageURL is the URL of the PageVisit that triggered this request.
	PageURL string `json:"page_url"`

	// RequestTimestampMS is the capture time in milliseconds on the
	// session-local monotonic clock.
	RequestTimestampMS int64 `json:"request_timestamp_ms"`

	// Domain is the registrable domain of the request target
	// (e.g. "doubleclick.net" for ads.doubleclick.net).
	Domain string `json:"domain"`

	// FullURL is the complete request URL including the query string.
	FullURL string `json:"full_url"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// ResourceType describes what kind of resource was requested
	// (document, script, image, stylesheet, frame, other).
	ResourceType string `json:"resource_type"`

	// IsTracker is true iff the registrable domain matches the maintained
	// tracker-domain list.
	IsTracker bool `json:"is_tracker"`

	// ContainsPII is true iff the URL or query string matched any PII
	// indicator pattern.
	ContainsPII bool `json:"contains_pii"`

	// PIITypes names the matched PII indicators when ContainsPII is true.
	PIITypes []string `json:"pii_types,omitempty"`

	// ClassifyError notes a classification failure (e.g. malformed URL).
	// The request is still recorded with both flags false in that case;
	// capture must never drop a request silently.
	ClassifyError string `json:"classify_error,omitempty"`
}

// Identity returns the deduplication key for this request. Two captures
// are the same request iff timestamp, full URL, and method all match;
// legitimately identical repeated requests differ in timestamp and are
// kept.
func (r NetworkRequest) Identity() string {
	return fmt.Sprintf("%d|%s|%s", r.RequestTimestampMS, r.FullURL, r.Method)
}
