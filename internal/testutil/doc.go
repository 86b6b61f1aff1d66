// Package testutil provides fluent builders for constructing domain objects
// in tests. Chain only the parts you need; sensible defaults are applied.
package testutil
