package session

import (
	"log/slog"
	"net/url"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/model"
)

// Recorder attaches to one session and turns the driver's raw requests
// into classified NetworkRequests on the session log.
//
// Capture never drops a request. When classification fails, such as on a
// malformed URL, the request is recorded anyway with both flags false
// and the error noted on the record.
type Recorder struct {
	log      *model.SessionLog
	trackers *classify.TrackerMatcher
	pii      *classify.PIIScanner
	logger   *slog.Logger
}

// NewRecorder binds a recorder to a session log and the scan's shared,
// read-only classification tables.
func NewRecorder(log *model.SessionLog, trackers *classify.TrackerMatcher, pii *classify.PIIScanner, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log:      log,
		trackers: trackers,
		pii:      pii,
		logger:   logger,
	}
}

// RecordVisit appends a completed navigation to the session log.
func (r *Recorder) RecordVisit(v model.PageVisit) {
	if err := r.log.AppendVisit(v); err != nil {
		r.logger.Warn("visit dropped, log already frozen", "url", v.URL)
	}
}

// Record classifies a raw request and appends it. Duplicate captures,
// identified by the (timestamp, full_url, method) triple, are ignored.
func (r *Recorder) Record(raw RawRequest) {
	req := model.NetworkRequest{
		SessionLabel:       r.log.Label,
		PageURL:            raw.PageURL,
		RequestTimestampMS: raw.TimestampMS,
		FullURL:            raw.FullURL,
		Method:             raw.Method,
		ResourceType:       raw.ResourceType,
	}

	domain, err := classify.RegistrableDomain(raw.FullURL)
	if err != nil {
		req.ClassifyError = err.Error()
		r.logger.Warn("request classification failed",
			"url", raw.FullURL,
			"error", err)
	} else {
		req.Domain = domain
		// Tracker matching runs against the full host: the table carries
		// subdomain entries like "connect.facebook.net" that the
		// registrable domain would collapse away.
		if u, parseErr := url.Parse(raw.FullURL); parseErr == nil {
			req.IsTracker = r.trackers.Match(u.Hostname())
		}
		req.PIITypes = r.pii.Scan(raw.FullURL)
		req.ContainsPII = len(req.PIITypes) > 0
	}

	appended, appendErr := r.log.AppendRequest(req)
	if appendErr != nil {
		r.logger.Warn("request dropped, log already frozen", "url", raw.FullURL)
		return
	}
	if !appended {
		r.logger.Debug("duplicate capture ignored", "url", raw.FullURL)
	}
}
