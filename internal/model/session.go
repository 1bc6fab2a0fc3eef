package model

import (
	"errors"
	"sort"
	"sync"
)

// ErrLogFrozen is returned when appending to a SessionLog after it has
// been frozen at session completion.
var ErrLogFrozen = errors.New("session log is frozen")

// SessionLog is the per-session aggregate: the ordered sequence of
// PageVisits and the ordered sequence of NetworkRequests captured during
// one browsing session. Insertion order equals capture order; request
// order is not necessarily monotonic across pages because of async loads.
//
// The log is created at session start, appended to for the session's
// duration, and frozen (read-only) once the itinerary completes or times
// out. Appends are atomic with respect to the log: cancellation can never
// leave a half-written record.
type SessionLog struct {
	// Label identifies the session ("baseline", "compliance").
	Label string `json:"label"`

	// Signal is the privacy posture this session asserted.
	Signal SignalConfig `json:"signal"`

	// Visits is the ordered sequence of page navigations.
	Visits []PageVisit `json:"visits"`

	// Requests is the ordered sequence of captured network requests.
	Requests []NetworkRequest `json:"requests"`

	// CookieCount is the number of cookies held by the session's jar when
	// the session ended. Recorded for the session summary.
	CookieCount int `json:"cookie_count"`

	// Aborted is true if the session ended before completing its itinerary
	// (total timeout or context crash). Already-captured data is retained.
	Aborted bool `json:"aborted,omitempty"`

	mu     sync.Mutex
	frozen bool
	seen   map[string]struct{}
}

// NewSessionLog creates an empty, unfrozen log for one session.
func NewSessionLog(signal SignalConfig) *SessionLog {
	return &SessionLog{
		Label:    signal.Label,
		Signal:   signal,
		Visits:   make([]PageVisit, 0),
		Requests: make([]NetworkRequest, 0),
		seen:     make(map[string]struct{}),
	}
}

// AppendVisit records a completed navigation. Returns ErrLogFrozen after
// the session has ended.
func (l *SessionLog) AppendVisit(v PageVisit) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return ErrLogFrozen
	}
	l.Visits = append(l.Visits, v)
	return nil
}

// AppendRequest records a captured request. Duplicate captures, identified
// by the (timestamp, full_url, method) triple, are rejected so that no
// request is ever recorded twice. Returns true if the request was
// appended.
func (l *SessionLog) AppendRequest(r NetworkRequest) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return false, ErrLogFrozen
	}
	key := r.Identity()
	if _, dup := l.seen[key]; dup {
		return false, nil
	}
	l.seen[key] = struct{}{}
	l.Requests = append(l.Requests, r)
	return true, nil
}

// Freeze marks the log read-only. Safe to call more than once.
func (l *SessionLog) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// TrackerDomainSet returns the derived set of registrable tracker domains
// observed in this session.
func (l *SessionLog) TrackerDomainSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range l.Requests {
		if r.IsTracker && r.Domain != "" {
			set[r.Domain] = struct{}{}
		}
	}
	return set
}

// TrackerDomains returns the derived tracker domains in sorted order,
// suitable for deterministic report output.
func (l *SessionLog) TrackerDomains() []string {
	set := l.TrackerDomainSet()
	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// TrackerRequestCount returns the number of captured tracker requests.
func (l *SessionLog) TrackerRequestCount() int {
	n := 0
	for _, r := range l.Requests {
		if r.IsTracker {
			n++
		}
	}
	return n
}

// SuccessfulVisitCount returns the number of visits that completed
// normally. Used to decide between COMPLIANT and INSUFFICIENT_DATA.
func (l *SessionLog) SuccessfulVisitCount() int {
	n := 0
	for _, v := range l.Visits {
		if v.Succeeded() {
			n++
		}
	}
	return n
}

// VisitByURL returns the first visit for the given URL, or nil.
func (l *SessionLog) VisitByURL(url string) *PageVisit {
	for i := range l.Visits {
		if l.Visits[i].URL == url {
			return &l.Visits[i]
		}
	}
	return nil
}
