// Package model defines the generation gateway abstraction used by the
// planner and synthesizer: one prompt in, one completion out. Provider
// adapters live in sub-packages (openai, anthropic, ollama); a scriptable
// MockGenerator lives here for tests and examples.
//
// Deadlines travel on the context: the planner uses a long deadline for
// multi-paragraph output, the synthesizer a short per-agent one. Adapters
// must honor cancellation and return the underlying transport error
// unwrapped enough for callers to classify timeouts.
package model
