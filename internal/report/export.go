package report

import (
	"fmt"
	"io"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/privsig/gpcscan/internal/model"
)

// exportRecord is one line of the raw traffic export. Exactly one of
// Visit and Request is set.
type exportRecord struct {
	Session string                `json:"session"`
	Kind    string                `json:"kind"`
	Visit   *model.PageVisit      `json:"visit,omitempty"`
	Request *model.NetworkRequest `json:"request,omitempty"`
}

// ExportTraffic writes the complete raw capture of all sessions as
// gzip-compressed JSON lines. Records preserve per-session insertion
// order: all visits first, then all requests, for each session in label
// order. Intended for offline re-analysis of a scan without re-running
// the sessions.
func ExportTraffic(w io.Writer, logs map[string]*model.SessionLog) error {
	gz := gzip.NewWriter(w)
	enc := json.NewEncoder(gz)

	labels := make([]string, 0, len(logs))
	for label := range logs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		log := logs[label]
		if log == nil {
			continue
		}
		for i := range log.Visits {
			rec := exportRecord{Session: label, Kind: "visit", Visit: &log.Visits[i]}
			if err := enc.Encode(rec); err != nil {
				gz.Close()
				return fmt.Errorf("encode visit record: %w", err)
			}
		}
		for i := range log.Requests {
			rec := exportRecord{Session: label, Kind: "request", Request: &log.Requests[i]}
			if err := enc.Encode(rec); err != nil {
				gz.Close()
				return fmt.Errorf("encode request record: %w", err)
			}
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize traffic export: %w", err)
	}
	return nil
}
