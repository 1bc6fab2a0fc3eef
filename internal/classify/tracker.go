package classify

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// TrackerMatcher answers whether a host belongs to a known tracker
// domain. Matching is against registrable domains: an entry matches a
// host when the host equals the entry or ends with "." + entry.
//
// Design decision: We match on suffixes over a set rather than compiling
// one large regular expression because the list is user-replaceable and
// suffix semantics are exactly what "registrable domain" requires; a
// regex would re-introduce the escaping pitfalls the declarative table
// exists to avoid.
type TrackerMatcher struct {
	// exact holds the full entries for O(1) equality checks.
	exact map[string]struct{}

	// suffixes holds the same entries for dotted-suffix checks.
	suffixes []string
}

// NewTrackerMatcher builds a matcher from a tracker-domain list. Entries
// are lowercased; empty entries are ignored.
func NewTrackerMatcher(domains []string) *TrackerMatcher {
	m := &TrackerMatcher{exact: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, ".")))
		if d == "" {
			continue
		}
		if _, dup := m.exact[d]; dup {
			continue
		}
		m.exact[d] = struct{}{}
		m.suffixes = append(m.suffixes, d)
	}
	return m
}

// Match reports whether host belongs to a listed tracker domain.
func (m *TrackerMatcher) Match(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	if _, ok := m.exact[host]; ok {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct entries in the matcher.
func (m *TrackerMatcher) Len() int { return len(m.exact) }

// RegistrableDomain derives the eTLD+1 of a raw URL's host, e.g.
// "stats.g.doubleclick.net" becomes "doubleclick.net". IP literals and
// hosts the public suffix list cannot reduce are returned as-is; an
// unparseable URL is an error so the recorder can note the failure.
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// IP addresses and single-label hosts land here; the bare host is
		// still a usable identity for set algebra.
		return host, nil
	}
	return etld1, nil
}
