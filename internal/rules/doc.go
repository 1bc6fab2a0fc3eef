// Package rules loads the compliance rule dataset into an in-memory
// SQLite database and exposes jurisdiction-keyed queries.
//
// The dataset ships embedded as rules.sql (CREATE TABLE plus INSERT
// statements) and can be replaced wholesale by a file path at load time.
// Rules are immutable once loaded. An empty result set for a requested
// jurisdiction is fatal: a scan must never run with zero rules and then
// report "no violations" as if the site were compliant.
//
// Rules with a NULL penalty range are definitional. They provide
// citation context for reports and enrichment but are never handed to a
// violation detector.
package rules
