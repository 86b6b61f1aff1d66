// Package retrieval defines the hybrid search gateway used for
// retrieval-augmented planning and per-agent memory ranking. The Searcher
// interface lives here together with a process-local implementation for
// tests and demos; the Weaviate-backed implementation lives in the weaviate
// sub-package.
//
// An empty result set is a valid outcome, not an error; Searcher
// implementations return errors for transport failures only.
package retrieval
