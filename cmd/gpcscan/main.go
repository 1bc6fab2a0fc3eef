// Package main provides the entry point for the gpcscan CLI.
//
// gpcscan audits websites for compliance with browser privacy signals
// such as Global Privacy Control. It runs two isolated browsing sessions
// (one baseline, one asserting the signal), compares the tracker traffic
// between them, and produces a structured evidence report.
//
// Usage:
//
//	gpcscan scan https://example.com
//	gpcscan scan --jurisdiction GDPR https://example.com
//
// See --help for all available options.
package main

// main is the entry point for gpcscan.
func main() {
	Execute()
}
