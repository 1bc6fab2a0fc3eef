// Package classify provides the declarative classification tables used by
// the traffic recorder: the tracker-domain list, the PII indicator
// patterns, and the consent phrase tables used for page inspection.
//
// Design decision: Classification is hoisted out of the request-handling
// control flow into versioned, testable tables injected at start-up. The
// recorder calls a compiled Classifier; it never embeds matching logic of
// its own. The tables are immutable once built and safe for concurrent
// use by both sessions.
package classify
