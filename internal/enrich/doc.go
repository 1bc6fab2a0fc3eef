// Package enrich adds plain-English explanations and technical fixes to
// detected violations.
//
// Providers are tried in priority order until one succeeds, mirroring a
// tiered text-generation setup where expensive providers sit in front of
// a deterministic fallback. The terminal RuleText provider derives its
// output from the rule metadata alone and never fails, so a fully
// configured chain always produces something. Enrichment is strictly
// optional: a chain with no working provider leaves the violation
// untouched and never fails a scan.
package enrich
