package leak

import (
	"time"

	"github.com/privsig/gpcscan/internal/model"
)

// Detect returns the tracker requests in log that fired within threshold
// of their page's load. The window is half open: a request at exactly
// load_ts + threshold is outside it. Requests are matched to pages by
// PageURL, so a request recorded against a page the log never visited is
// never a leak. Each leak appears once even when several visits of the
// same page would both claim it.
func Detect(log *model.SessionLog, threshold time.Duration) []model.NetworkRequest {
	if log == nil || threshold <= 0 {
		return nil
	}

	windows := make(map[string][]int64, len(log.Visits))
	for _, visit := range log.Visits {
		if !visit.Succeeded() {
			continue
		}
		windows[visit.URL] = append(windows[visit.URL], visit.LoadTimestampMS)
	}

	thresholdMS := threshold.Milliseconds()
	var leaks []model.NetworkRequest
	seen := make(map[string]struct{})
	for _, req := range log.Requests {
		if !req.IsTracker {
			continue
		}
		loads, ok := windows[req.PageURL]
		if !ok {
			continue
		}
		for _, load := range loads {
			if req.RequestTimestampMS >= load && req.RequestTimestampMS < load+thresholdMS {
				if _, dup := seen[req.Identity()]; !dup {
					seen[req.Identity()] = struct{}{}
					leaks = append(leaks, req)
				}
				break
			}
		}
	}
	return leaks
}
