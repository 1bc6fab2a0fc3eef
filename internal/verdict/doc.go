// Package verdict reduces a pair of recorded sessions to the signal
// compliance verdict.
//
// The reduction is set algebra over tracker domains: domains that
// contacted trackers in both the baseline and the compliance session
// ignored the signal. A non-empty intersection, or any temporal leak in
// the compliance session, means NON_COMPLIANT. Empty sets on a scan
// where both sessions loaded at least one page successfully mean
// COMPLIANT. Anything weaker is INSUFFICIENT_DATA, never a clean bill.
package verdict
