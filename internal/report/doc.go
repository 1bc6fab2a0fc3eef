// Package report builds the evidence report and writes it in multiple
// formats.
//
// Build is pure aggregation over the completed scan state: session
// summaries, the verdict, the severity histogram, and the aggregate
// penalty figure. It performs no I/O and no further detection.
//
// Writers share a small interface so a report can go to the terminal, a
// JSON file, or both at once through MultiWriter. The JSON form is the
// canonical artifact: it validates against an embedded JSON Schema and
// carries an RFC 8785 canonical-JSON SHA-256 digest in its metadata so
// an auditor can verify the body was not altered after generation.
package report
