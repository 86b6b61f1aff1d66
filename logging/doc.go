// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer EngineLogger with contextual
// helpers (session, component) and domain specific logging helpers for
// generation calls, retrieval sweeps and simulation rounds.
package logging
