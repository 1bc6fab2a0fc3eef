package model

// VisitStatus describes the outcome of a single page navigation.
type VisitStatus string

const (
	// VisitOK means navigation completed and the page was inspected.
	VisitOK VisitStatus = "ok"

	// VisitFailed means navigation timed out or errored. The session
	// continues to the next URL; the failed visit is retained as evidence
	// of the attempt.
	VisitFailed VisitStatus = "failed"
)

// PageVisit records one navigation within a session. It is created when
// navigation completes (or fails) and is immutable thereafter.
type PageVisit struct {
	// URL is the absolute URL that was navigated to.
	URL string `json:"url"`

	// LoadTimestampMS is when the page finished loading, in milliseconds
	// on the session-local monotonic clock. Temporal leak windows are
	// anchored here.
	LoadTimestampMS int64 `json:"load_timestamp_ms"`

	// CookieBannerPresent is true if a cookie/consent banner was detected
	// on the page.
	CookieBannerPresent bool `json:"cookie_banner_present"`

	// OptOutLinkPresent is true if a "Do Not Sell"/"Your Privacy Choices"
	// style opt-out link was found on the page.
	OptOutLinkPresent bool `json:"opt_out_link_present"`

	// Status is the navigation outcome.
	Status VisitStatus `json:"status"`

	// HTTPStatus is the response status code, 0 when navigation failed
	// before a response was received.
	HTTPStatus int `json:"http_status,omitempty"`

	// Error holds the navigation error message for failed visits.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the visit completed normally.
func (p PageVisit) Succeeded() bool {
	return p.Status == VisitOK
}
