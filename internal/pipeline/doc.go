// Package pipeline provides a framework for executing scan stages in
// sequence.
//
// A scan moves through fixed stages: dual-session capture, temporal leak
// detection, verdict computation, rule evaluation, enrichment, and report
// assembly. Each stage is implemented as a Step that receives the shared
// scan state and fills in its portion.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running scans
//
// The pipeline supports both individual scans and batch processing with
// concurrency control using errgroup.
package pipeline
