package classify

import (
	"fmt"
	"regexp"
	"sort"
)

// PIIScanner matches request URLs against a fixed set of PII indicator
// patterns: email-like strings, literal identifier parameter names, and
// hashed-identifier-length hex tokens.
type PIIScanner struct {
	// patterns holds compiled indicators in stable name order so scan
	// results are deterministic.
	patterns []piiPattern
}

type piiPattern struct {
	name string
	re   *regexp.Regexp
}

// NewPIIScanner compiles the given pattern table. A pattern that fails to
// compile is a dataset error and fails scanner construction; classification
// must never silently run with a partial table.
func NewPIIScanner(table map[string]string) (*PIIScanner, error) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &PIIScanner{patterns: make([]piiPattern, 0, len(names))}
	for _, name := range names {
		re, err := regexp.Compile("(?i)" + table[name])
		if err != nil {
			return nil, fmt.Errorf("compile PII pattern %q: %w", name, err)
		}
		s.patterns = append(s.patterns, piiPattern{name: name, re: re})
	}
	return s, nil
}

// Scan returns the names of every indicator the URL matches, in stable
// order. An empty result means no PII indicator was found.
func (s *PIIScanner) Scan(rawURL string) []string {
	var hits []string
	for _, p := range s.patterns {
		if p.re.MatchString(rawURL) {
			hits = append(hits, p.name)
		}
	}
	return hits
}

// Len returns the number of compiled patterns.
func (s *PIIScanner) Len() int { return len(s.patterns) }
