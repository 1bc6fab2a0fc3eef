// Package model defines the core data structures used throughout gpcscan.
//
// This package contains the following main types:
//   - SignalConfig: The privacy posture asserted by one browsing session
//   - PageVisit and NetworkRequest: Per-session capture records
//   - SessionLog: The append-only aggregate of one session's capture
//   - Rule and Violation: The legal rule dataset and detector output
//   - Verdict: The compliance outcome derived from comparing sessions
//   - EvidenceReport: The final structured scan artifact
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (session, leak, verdict, detector, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
