package session

import (
	"context"

	"github.com/privsig/gpcscan/internal/model"
)

// RawRequest is one outbound request observed by a driver, before
// classification. The recorder turns it into a model.NetworkRequest.
type RawRequest struct {
	// PageURL is the page whose load caused this request.
	PageURL string

	// TimestampMS is when the request was issued, on the driver's
	// session-local monotonic clock.
	TimestampMS int64

	// FullURL is the absolute request URL.
	FullURL string

	// Method is the HTTP method.
	Method string

	// ResourceType describes what the request fetched ("document",
	// "script", "image", "stylesheet", "iframe", "other").
	ResourceType string
}

// PageResult is what a driver learned from one completed navigation.
type PageResult struct {
	// LoadTimestampMS is when the document finished loading, on the
	// session-local clock. Subresource requests fire after this point.
	LoadTimestampMS int64

	// HTTPStatus is the document response status.
	HTTPStatus int

	// CookieBannerPresent and OptOutLinkPresent are the page's structural
	// findings.
	CookieBannerPresent bool
	OptOutLinkPresent   bool

	// RejectActionTaken is true when the driver pursued a reject-style
	// consent action on this page.
	RejectActionTaken bool

	// Requests are the outbound requests observed during this navigation,
	// in issue order.
	Requests []RawRequest
}

// Driver navigates pages within one isolated browsing context. A driver
// is bound to exactly one session and must not be shared.
type Driver interface {
	// Visit navigates to pageURL, applying the session's signal, and
	// reports what was observed. A transport or timeout error fails only
	// this visit.
	Visit(ctx context.Context, pageURL string) (*PageResult, error)

	// NowMS is the session-local monotonic clock in milliseconds.
	NowMS() int64

	// CookieCount reports the cookies currently held by the session's jar.
	CookieCount() int

	// Close releases the driver's resources.
	Close() error
}

// DriverFactory builds a fresh, isolated driver for one session.
type DriverFactory func(signal model.SignalConfig) (Driver, error)
