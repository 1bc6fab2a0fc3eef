// Package config holds all runtime configuration for gpcscan.
//
// Configuration is assembled once per scan from CLI flags and optional
// YAML files, validated up front, and then passed explicitly through every
// component. No package reads ambient process-wide state at call time:
// each scan owns its immutable parameters, so concurrent scans can never
// interfere with each other.
//
// The package also defines the built-in privacy-signal postures (baseline
// and GPC compliance) and the default classification tables (tracker
// domains, PII patterns, consent phrase lists) that a YAML file may extend
// or replace.
package config
