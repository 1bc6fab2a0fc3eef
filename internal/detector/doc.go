// Package detector evaluates compliance rules against recorded session
// evidence, producing typed violations.
//
// The evaluator holds a registry mapping each rule's detector key to a
// pure function over the aggregated session data. Detectors never mutate
// shared state and can run in any order. A detector that cannot evaluate
// for lack of prerequisite data reports a skip, which the evaluator logs
// distinctly from a clean check. Definitional rules, those carrying no
// penalty range, never reach a detector at all.
//
// Detector failures are contained: the failing rule is logged with its
// ID at ERROR and evaluation continues for the remaining rules.
package detector
