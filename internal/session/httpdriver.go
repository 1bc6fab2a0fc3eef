package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/model"
)

// Resource type identifiers recorded on captured requests.
const (
	resourceDocument   = "document"
	resourceScript     = "script"
	resourceImage      = "image"
	resourceStylesheet = "stylesheet"
	resourceIframe     = "iframe"
	resourceOther      = "other"
)

// HTTPDriver is a Driver built on net/http. It fetches the document,
// parses it for consent structure and third-party subresources, and
// issues those subresource fetches itself under the session's signal
// headers so that every observable request passes through the recorder.
//
// Design decision: We fetch subresources sequentially rather than
// concurrently because capture order must match wall-clock order within
// a page's window. The per-page subresource cap keeps this bounded.
type HTTPDriver struct {
	// client carries the session's exclusive cookie jar.
	client *http.Client

	// signal is the privacy posture applied to every request.
	signal model.SignalConfig

	// tables hold banner markers, opt-out phrases, and reject phrases.
	tables *classify.Tables

	userAgent       string
	maxSubresources int
	maxBodySize     int64

	// start anchors the session-local monotonic clock.
	start time.Time

	// hosts tracks visited hosts for cookie counting.
	hosts map[string]*url.URL
}

// HTTPDriverOption configures an HTTPDriver.
type HTTPDriverOption func(*HTTPDriver)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) HTTPDriverOption {
	return func(d *HTTPDriver) {
		d.userAgent = ua
	}
}

// WithMaxSubresources caps the subresource fetches per page.
func WithMaxSubresources(n int) HTTPDriverOption {
	return func(d *HTTPDriver) {
		d.maxSubresources = n
	}
}

// WithMaxBodySize limits response body reads in bytes.
func WithMaxBodySize(size int64) HTTPDriverOption {
	return func(d *HTTPDriver) {
		d.maxBodySize = size
	}
}

// WithTransport replaces the underlying transport. Used by tests.
func WithTransport(rt http.RoundTripper) HTTPDriverOption {
	return func(d *HTTPDriver) {
		d.client.Transport = rt
	}
}

// NewHTTPDriver builds an isolated driver for one session. The driver
// owns a fresh cookie jar; nothing is shared with any other session.
func NewHTTPDriver(signal model.SignalConfig, tables *classify.Tables, opts ...HTTPDriverOption) (*HTTPDriver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	d := &HTTPDriver{
		client:          &http.Client{Jar: jar},
		signal:          signal,
		tables:          tables,
		userAgent:       "gpcscan/1.0",
		maxSubresources: 40,
		maxBodySize:     5 * 1024 * 1024,
		start:           time.Now(),
		hosts:           make(map[string]*url.URL),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NowMS implements Driver.
func (d *HTTPDriver) NowMS() int64 {
	return time.Since(d.start).Milliseconds()
}

// CookieCount implements Driver. It counts the cookies the jar holds for
// every host visited during the session.
func (d *HTTPDriver) CookieCount() int {
	if d.client.Jar == nil {
		return 0
	}
	n := 0
	for _, u := range d.hosts {
		n += len(d.client.Jar.Cookies(u))
	}
	return n
}

// Close implements Driver.
func (d *HTTPDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// Visit implements Driver. The document request is recorded first, then
// the page is parsed and its third-party subresources fetched under the
// same signal headers, each recorded at issue time.
func (d *HTTPDriver) Visit(ctx context.Context, pageURL string) (*PageResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	d.hosts[base.Host] = base

	result := &PageResult{}
	docTS := d.NowMS()
	resp, body, err := d.fetch(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, err
	}
	result.HTTPStatus = resp.StatusCode
	result.LoadTimestampMS = d.NowMS()
	result.Requests = append(result.Requests, RawRequest{
		PageURL:      pageURL,
		TimestampMS:  docTS,
		FullURL:      pageURL,
		Method:       http.MethodGet,
		ResourceType: resourceDocument,
	})

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return result, nil
	}

	page, err := parsePage(strings.NewReader(body), base, d.tables)
	if err != nil {
		// Unparseable HTML still counts as a loaded page.
		return result, nil
	}
	result.CookieBannerPresent = page.bannerPresent
	result.OptOutLinkPresent = page.optOutPresent

	subresources := page.subresources
	if len(subresources) > d.maxSubresources {
		subresources = subresources[:d.maxSubresources]
	}
	for _, sub := range subresources {
		select {
		case <-ctx.Done():
			return result, nil
		default:
		}
		ts := d.NowMS()
		if err := d.fetchDiscard(ctx, sub.url); err != nil && ctx.Err() != nil {
			return result, nil
		}
		result.Requests = append(result.Requests, RawRequest{
			PageURL:      pageURL,
			TimestampMS:  ts,
			FullURL:      sub.url,
			Method:       http.MethodGet,
			ResourceType: sub.kind,
		})
	}

	if d.signal.SimulateRejectAction && page.bannerPresent && page.rejectTarget != "" {
		ts := d.NowMS()
		if err := d.fetchDiscard(ctx, page.rejectTarget); err == nil {
			result.RejectActionTaken = true
			result.Requests = append(result.Requests, RawRequest{
				PageURL:      pageURL,
				TimestampMS:  ts,
				FullURL:      page.rejectTarget,
				Method:       http.MethodGet,
				ResourceType: resourceOther,
			})
		}
	}

	return result, nil
}

// fetch issues a request with the session's signal headers and returns
// the response and its body, bounded by maxBodySize.
func (d *HTTPDriver) fetch(ctx context.Context, method, rawURL string) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	for k, v := range d.signal.HTTPHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize))
	if err != nil {
		return nil, "", err
	}
	return resp, string(body), nil
}

// fetchDiscard issues a subresource request, discarding the body. The
// request still exercises the destination, which is all capture needs.
func (d *HTTPDriver) fetchDiscard(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", d.userAgent)
	for k, v := range d.signal.HTTPHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, d.maxBodySize))
	return nil
}
