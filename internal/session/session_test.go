package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/model"
)

// testTables returns classification tables whose tracker list contains
// the loopback host used by httptest tracker servers.
func testTables(trackerHosts ...string) *classify.Tables {
	t := classify.BuiltinTables()
	t.TrackerDomains = append(t.TrackerDomains, trackerHosts...)
	return t
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newClassifiers(t *testing.T, tables *classify.Tables) (*classify.TrackerMatcher, *classify.PIIScanner) {
	t.Helper()

	scanner, err := classify.NewPIIScanner(tables.PIIPatterns)
	if err != nil {
		t.Fatalf("NewPIIScanner() error = %v", err)
	}
	return classify.NewTrackerMatcher(tables.TrackerDomains), scanner
}

func hostPortOf(t *testing.T, rawURL string) string {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	return u.Host
}

// rerouteTransport sends requests addressed to a fake hostname to a
// local test server, so a tracker can carry a hostname distinct from
// the site's loopback address.
type rerouteTransport struct {
	host   string
	target string
}

func (rt rerouteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Hostname() == rt.host {
		clone := req.Clone(req.Context())
		clone.URL.Host = rt.target
		return http.DefaultTransport.RoundTrip(clone)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestHTTPDriver_Visit(t *testing.T) {
	t.Parallel()

	t.Run("collects consent structure and subresources", func(t *testing.T) {
		t.Parallel()

		tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer tracker.Close()

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body>
				<div class="cookie-consent-banner">We use cookies</div>
				<a href="/privacy-choices">Do Not Sell or Share My Personal Information</a>
				<script src="%s/collect.js"></script>
				<img src="/logo.png">
			</body></html>`, tracker.URL)
		}))
		defer site.Close()

		driver, err := NewHTTPDriver(model.SignalConfig{Label: model.LabelBaseline}, testTables())
		if err != nil {
			t.Fatalf("NewHTTPDriver() error = %v", err)
		}
		defer driver.Close()

		result, err := driver.Visit(context.Background(), site.URL+"/")
		if err != nil {
			t.Fatalf("Visit() error = %v", err)
		}

		if !result.CookieBannerPresent {
			t.Error("expected cookie banner to be detected")
		}
		if !result.OptOutLinkPresent {
			t.Error("expected opt-out link to be detected")
		}
		if result.HTTPStatus != http.StatusOK {
			t.Errorf("expected status 200, got %d", result.HTTPStatus)
		}

		// Document plus two subresources.
		if len(result.Requests) != 3 {
			t.Fatalf("expected 3 captured requests, got %d", len(result.Requests))
		}
		if result.Requests[0].ResourceType != resourceDocument {
			t.Errorf("expected first request to be the document, got %s", result.Requests[0].ResourceType)
		}
		var sawTracker bool
		for _, r := range result.Requests {
			if strings.HasPrefix(r.FullURL, tracker.URL) {
				sawTracker = true
			}
		}
		if !sawTracker {
			t.Error("expected the tracker script to be fetched")
		}
	})

	t.Run("signal headers reach every request", func(t *testing.T) {
		t.Parallel()

		var gotHeader []string
		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeader = append(gotHeader, r.Header.Get("Sec-GPC"))
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><img src="/pixel.gif"></body></html>`)
		}))
		defer site.Close()

		signal := model.NewSignalConfig(model.LabelCompliance,
			map[string]string{"Sec-GPC": "1"}, nil, false)
		driver, err := NewHTTPDriver(signal, testTables())
		if err != nil {
			t.Fatalf("NewHTTPDriver() error = %v", err)
		}
		defer driver.Close()

		if _, err := driver.Visit(context.Background(), site.URL+"/"); err != nil {
			t.Fatalf("Visit() error = %v", err)
		}

		if len(gotHeader) < 2 {
			t.Fatalf("expected document and subresource requests, got %d", len(gotHeader))
		}
		for i, h := range gotHeader {
			if h != "1" {
				t.Errorf("request %d: expected Sec-GPC header, got %q", i, h)
			}
		}
	})

	t.Run("reject action fetches the reject target when simulated", func(t *testing.T) {
		t.Parallel()

		var rejectHit bool
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>
				<div id="cmp-container">
					<a href="/consent/reject">Reject All</a>
				</div>
			</body></html>`)
		})
		mux.HandleFunc("/consent/reject", func(w http.ResponseWriter, _ *http.Request) {
			rejectHit = true
			w.WriteHeader(http.StatusOK)
		})
		site := httptest.NewServer(mux)
		defer site.Close()

		signal := model.NewSignalConfig(model.LabelCompliance,
			map[string]string{"Sec-GPC": "1"}, nil, true)
		driver, err := NewHTTPDriver(signal, testTables())
		if err != nil {
			t.Fatalf("NewHTTPDriver() error = %v", err)
		}
		defer driver.Close()

		result, err := driver.Visit(context.Background(), site.URL+"/")
		if err != nil {
			t.Fatalf("Visit() error = %v", err)
		}
		if !result.RejectActionTaken {
			t.Error("expected the reject action to be taken")
		}
		if !rejectHit {
			t.Error("expected the reject endpoint to be fetched")
		}
	})

	t.Run("subresource cap bounds fetches", func(t *testing.T) {
		t.Parallel()

		var imgs strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&imgs, `<img src="/img-%d.png">`, i)
		}
		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body>%s</body></html>`, imgs.String())
		}))
		defer site.Close()

		driver, err := NewHTTPDriver(model.SignalConfig{Label: model.LabelBaseline},
			testTables(), WithMaxSubresources(3))
		if err != nil {
			t.Fatalf("NewHTTPDriver() error = %v", err)
		}
		defer driver.Close()

		result, err := driver.Visit(context.Background(), site.URL+"/")
		if err != nil {
			t.Fatalf("Visit() error = %v", err)
		}
		// document + 3 capped subresources
		if len(result.Requests) != 4 {
			t.Errorf("expected 4 requests with cap 3, got %d", len(result.Requests))
		}
	})
}

func TestRecorder_Record(t *testing.T) {
	t.Parallel()

	t.Run("classifies tracker and pii flags", func(t *testing.T) {
		t.Parallel()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		sessionLog := model.NewSessionLog(model.SignalConfig{Label: model.LabelCompliance})
		rec := NewRecorder(sessionLog, matcher, scanner, quietLogger())

		rec.Record(RawRequest{
			PageURL:     "https://example.com/",
			TimestampMS: 100,
			FullURL:     "https://stats.g.doubleclick.net/collect?email=user%40example.com",
			Method:      "GET",
		})

		if len(sessionLog.Requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(sessionLog.Requests))
		}
		r := sessionLog.Requests[0]
		if r.Domain != "doubleclick.net" {
			t.Errorf("expected registrable domain doubleclick.net, got %s", r.Domain)
		}
		if !r.IsTracker {
			t.Error("expected tracker classification")
		}
		if !r.ContainsPII {
			t.Error("expected pii classification")
		}
	})

	t.Run("subdomain tracker entries match on the full host", func(t *testing.T) {
		t.Parallel()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		sessionLog := model.NewSessionLog(model.SignalConfig{Label: model.LabelBaseline})
		rec := NewRecorder(sessionLog, matcher, scanner, quietLogger())

		rec.Record(RawRequest{
			PageURL:     "https://example.com/",
			TimestampMS: 100,
			FullURL:     "https://connect.facebook.net/en_US/fbevents.js",
			Method:      "GET",
		})

		r := sessionLog.Requests[0]
		if !r.IsTracker {
			t.Error("expected connect.facebook.net to match as a tracker")
		}
		if r.Domain != "facebook.net" {
			t.Errorf("expected registrable domain facebook.net, got %s", r.Domain)
		}
	})

	t.Run("malformed url is recorded with the error noted", func(t *testing.T) {
		t.Parallel()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		sessionLog := model.NewSessionLog(model.SignalConfig{Label: model.LabelBaseline})
		rec := NewRecorder(sessionLog, matcher, scanner, quietLogger())

		rec.Record(RawRequest{
			PageURL:     "https://example.com/",
			TimestampMS: 100,
			FullURL:     "http://exa mple.com/%zz",
			Method:      "GET",
		})

		if len(sessionLog.Requests) != 1 {
			t.Fatalf("capture must never drop a request, got %d", len(sessionLog.Requests))
		}
		r := sessionLog.Requests[0]
		if r.ClassifyError == "" {
			t.Error("expected a classification error to be noted")
		}
		if r.IsTracker || r.ContainsPII {
			t.Error("expected both flags defaulted to false")
		}
	})

	t.Run("duplicate captures are ignored", func(t *testing.T) {
		t.Parallel()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		sessionLog := model.NewSessionLog(model.SignalConfig{Label: model.LabelBaseline})
		rec := NewRecorder(sessionLog, matcher, scanner, quietLogger())

		raw := RawRequest{
			PageURL:     "https://example.com/",
			TimestampMS: 100,
			FullURL:     "https://example.com/app.js",
			Method:      "GET",
		}
		rec.Record(raw)
		rec.Record(raw)

		if len(sessionLog.Requests) != 1 {
			t.Errorf("expected duplicate to be ignored, got %d requests", len(sessionLog.Requests))
		}
	})
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	newFactory := func(tables *classify.Tables) DriverFactory {
		return func(signal model.SignalConfig) (Driver, error) {
			return NewHTTPDriver(signal, tables)
		}
	}

	t.Run("runs isolated sessions and freezes both logs", func(t *testing.T) {
		t.Parallel()

		tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer tracker.Close()

		// The tracker gets its own hostname so classification cannot
		// confuse it with the site, which shares the loopback address.
		const trackerHost = "tracker.test"

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Trackers load only when no opt-out signal arrives.
			w.Header().Set("Content-Type", "text/html")
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "x"})
			if r.Header.Get("Sec-GPC") == "1" {
				fmt.Fprint(w, `<html><body>clean page</body></html>`)
				return
			}
			fmt.Fprintf(w, `<html><body><script src="http://%s/t.js"></script></body></html>`, trackerHost)
		}))
		defer site.Close()

		tables := testTables(trackerHost)
		matcher, scanner := newClassifiers(t, tables)
		transport := rerouteTransport{host: trackerHost, target: hostPortOf(t, tracker.URL)}
		factory := func(signal model.SignalConfig) (Driver, error) {
			return NewHTTPDriver(signal, tables, WithTransport(transport))
		}
		runner := NewRunner(factory, matcher, scanner, WithLogger(quietLogger()))

		configs := []model.SignalConfig{
			model.NewSignalConfig(model.LabelBaseline, nil, nil, false),
			model.NewSignalConfig(model.LabelCompliance, map[string]string{"Sec-GPC": "1"}, nil, false),
		}
		logs := runner.Run(context.Background(), []string{site.URL + "/"}, configs)

		baseline, ok := logs[model.LabelBaseline]
		if !ok {
			t.Fatal("expected a baseline log")
		}
		compliance, ok := logs[model.LabelCompliance]
		if !ok {
			t.Fatal("expected a compliance log")
		}

		if baseline.TrackerRequestCount() == 0 {
			t.Error("expected the baseline session to capture the tracker")
		}
		if compliance.TrackerRequestCount() != 0 {
			t.Error("expected the compliance session to stay tracker-free")
		}
		if baseline.SuccessfulVisitCount() != 1 || compliance.SuccessfulVisitCount() != 1 {
			t.Error("expected one successful visit per session")
		}
		if baseline.CookieCount == 0 {
			t.Error("expected the session cookie to be counted")
		}

		if err := baseline.AppendVisit(model.PageVisit{}); err != model.ErrLogFrozen {
			t.Errorf("expected the log to be frozen, got %v", err)
		}
	})

	t.Run("failed page is skipped and the session continues", func(t *testing.T) {
		t.Parallel()

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>ok</body></html>`)
		}))
		defer site.Close()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		runner := NewRunner(newFactory(tables), matcher, scanner,
			WithLogger(quietLogger()),
			WithPerPageTimeout(2*time.Second))

		itinerary := []string{
			"http://127.0.0.1:1/unreachable",
			site.URL + "/",
		}
		logs := runner.Run(context.Background(),
			itinerary,
			[]model.SignalConfig{model.NewSignalConfig(model.LabelBaseline, nil, nil, false)})

		got := logs[model.LabelBaseline]
		if len(got.Visits) != 2 {
			t.Fatalf("expected both visits recorded, got %d", len(got.Visits))
		}
		if got.Visits[0].Status != model.VisitFailed {
			t.Errorf("expected first visit failed, got %s", got.Visits[0].Status)
		}
		if got.Visits[0].Error == "" {
			t.Error("expected the navigation error to be recorded")
		}
		if got.Visits[1].Status != model.VisitOK {
			t.Errorf("expected second visit ok, got %s", got.Visits[1].Status)
		}
		if got.Aborted {
			t.Error("a failed page must not abort the session")
		}
	})

	t.Run("all pages failing still returns a valid log", func(t *testing.T) {
		t.Parallel()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		runner := NewRunner(newFactory(tables), matcher, scanner,
			WithLogger(quietLogger()),
			WithPerPageTimeout(time.Second))

		logs := runner.Run(context.Background(),
			[]string{"http://127.0.0.1:1/a", "http://127.0.0.1:1/b"},
			[]model.SignalConfig{model.NewSignalConfig(model.LabelBaseline, nil, nil, false)})

		got := logs[model.LabelBaseline]
		if got == nil {
			t.Fatal("expected a log even when every page fails")
		}
		if got.SuccessfulVisitCount() != 0 {
			t.Errorf("expected zero successful visits, got %d", got.SuccessfulVisitCount())
		}
		if len(got.Visits) != 2 {
			t.Errorf("expected both failed visits retained, got %d", len(got.Visits))
		}
	})

	t.Run("request timestamps are monotonic within a page", func(t *testing.T) {
		t.Parallel()

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>
				<img src="/a.png"><img src="/b.png"><img src="/c.png">
			</body></html>`)
		}))
		defer site.Close()

		tables := testTables()
		matcher, scanner := newClassifiers(t, tables)
		runner := NewRunner(newFactory(tables), matcher, scanner, WithLogger(quietLogger()))

		logs := runner.Run(context.Background(),
			[]string{site.URL + "/"},
			[]model.SignalConfig{model.NewSignalConfig(model.LabelBaseline, nil, nil, false)})

		reqs := logs[model.LabelBaseline].Requests
		if len(reqs) < 4 {
			t.Fatalf("expected document plus subresources, got %d", len(reqs))
		}
		for i := 1; i < len(reqs); i++ {
			if reqs[i].RequestTimestampMS < reqs[i-1].RequestTimestampMS {
				t.Errorf("capture order regressed at %d: %d < %d",
					i, reqs[i].RequestTimestampMS, reqs[i-1].RequestTimestampMS)
			}
		}
	})
}
