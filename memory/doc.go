// Package memory implements the per-agent memory service: an append-only
// event log with strictly increasing per-agent sequence numbers, plus
// relevance-ranked retrieval of prior events for use as synthesis context.
//
// The EventLog interface lives in core; this package provides the Service
// that enforces the sequencing contract and an in-memory log. A durable
// Badger-backed log lives in the badger sub-package.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends to be added without introducing dependency cycles.
package memory
