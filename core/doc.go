// Package core provides the foundational domain types and collaborator
// interfaces used by PanelMesh. It defines the core abstractions for:
//
//   - Agent profiles (simulated respondents with demographic traits)
//   - Agent events (append-only, per-agent sequenced memory records)
//   - Agent answers (the output unit of one synthesis call)
//   - Simulation sessions (ordered questions + run state machine)
//   - Allocation plans (structured planning output, strictly validated)
//   - Pluggable stores for events, answers, sessions and profiles
//
// The package intentionally keeps implementation concerns (persistence,
// gateways, orchestration) out of scope, exposing small interfaces so custom
// backends can be wired without dependency cycles.
package core
