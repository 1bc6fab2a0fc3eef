package session

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/log"
	"github.com/privsig/gpcscan/internal/model"
)

// Runner executes all of a scan's browsing sessions concurrently.
type Runner struct {
	factory  DriverFactory
	trackers *classify.TrackerMatcher
	pii      *classify.PIIScanner

	perPageTimeout time.Duration
	totalTimeout   time.Duration
	logger         *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPerPageTimeout bounds a single navigation.
func WithPerPageTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.perPageTimeout = d
	}
}

// WithTotalTimeout bounds a whole session.
func WithTotalTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.totalTimeout = d
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner builds a runner over the given driver factory and the scan's
// shared, read-only classification tables.
func NewRunner(factory DriverFactory, trackers *classify.TrackerMatcher, pii *classify.PIIScanner, opts ...RunnerOption) *Runner {
	r := &Runner{
		factory:        factory,
		trackers:       trackers,
		pii:            pii,
		perPageTimeout: 30 * time.Second,
		totalTimeout:   5 * time.Minute,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives one isolated session per SignalConfig over the shared
// itinerary, all concurrently, and returns the frozen logs keyed by
// session label. A failure in one session never cancels the others; Run
// itself returns only when every session has finished or timed out.
func (r *Runner) Run(ctx context.Context, itinerary []string, configs []model.SignalConfig) map[string]*model.SessionLog {
	logs := make([]*model.SessionLog, len(configs))

	// A plain group, not errgroup.WithContext: sibling sessions must not
	// be cancelled when one fails.
	var g errgroup.Group
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			logs[i] = r.runSession(ctx, itinerary, cfg)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*model.SessionLog, len(configs))
	for _, l := range logs {
		out[l.Label] = l
	}
	return out
}

// runSession visits the itinerary strictly in order within one isolated
// context. Every exit path freezes the log.
func (r *Runner) runSession(ctx context.Context, itinerary []string, cfg model.SignalConfig) *model.SessionLog {
	sessionLog := model.NewSessionLog(cfg)
	logger := r.logger.With(log.SessionKey, cfg.Label)

	sessionCtx, cancel := context.WithTimeout(ctx, r.totalTimeout)
	defer cancel()

	driver, err := r.factory(cfg)
	if err != nil {
		logger.Error("failed to create session driver", "error", err)
		sessionLog.Aborted = true
		sessionLog.Freeze()
		return sessionLog
	}
	defer driver.Close()

	recorder := NewRecorder(sessionLog, r.trackers, r.pii, logger)

	for _, pageURL := range itinerary {
		if sessionCtx.Err() != nil {
			logger.Warn("session timeout, remaining pages cancelled",
				"remaining_from", pageURL)
			sessionLog.Aborted = true
			break
		}

		pageCtx, pageCancel := context.WithTimeout(sessionCtx, r.perPageTimeout)
		result, err := driver.Visit(pageCtx, pageURL)
		pageCancel()

		if err != nil {
			logger.Warn("page navigation failed", "url", pageURL, "error", err)
			recorder.RecordVisit(model.PageVisit{
				URL:             pageURL,
				LoadTimestampMS: driver.NowMS(),
				Status:          model.VisitFailed,
				Error:           err.Error(),
			})
			continue
		}

		recorder.RecordVisit(model.PageVisit{
			URL:                 pageURL,
			LoadTimestampMS:     result.LoadTimestampMS,
			CookieBannerPresent: result.CookieBannerPresent,
			OptOutLinkPresent:   result.OptOutLinkPresent,
			Status:              model.VisitOK,
			HTTPStatus:          result.HTTPStatus,
		})
		for _, raw := range result.Requests {
			recorder.Record(raw)
		}
		logger.Info("page visited",
			"url", pageURL,
			"status", result.HTTPStatus,
			"requests", len(result.Requests),
			"banner", result.CookieBannerPresent,
			"opt_out_link", result.OptOutLinkPresent)
	}

	sessionLog.CookieCount = driver.CookieCount()
	sessionLog.Freeze()
	log.Success(ctx, logger, "session complete",
		"pages", len(sessionLog.Visits),
		"requests", len(sessionLog.Requests),
		"tracker_requests", sessionLog.TrackerRequestCount())
	return sessionLog
}
