package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures one normalized generation call.
type Request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Info contains metadata about a generator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "ollama", "mock"
}

// Generator is the minimal interface the engine needs from a text model:
// a single request/response completion under the context's deadline.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)

	// Info returns information about the generator implementation.
	Info() Info
}

// MockGenerator is a scriptable in-memory Generator for tests and examples.
// Responses can be registered per prompt substring or queued per call; every
// issued request is recorded for assertions. Safe for concurrent use.
type MockGenerator struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	queue     []queued
	calls     []Request
	fallback  string
	err       error
}

type queued struct {
	text string
	err  error
}

// NewMockGenerator constructs an empty mock that echoes prompts by default.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion returned whenever the prompt
// contains the given substring.
func (m *MockGenerator) AddResponse(promptContains, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[promptContains] = response
}

// QueueResponse appends a completion consumed by the next un-matched call.
// Queued entries take precedence over substring matches.
func (m *MockGenerator) QueueResponse(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{text: text, err: err})
}

// SetDefault sets the completion used when nothing else matches.
func (m *MockGenerator) SetDefault(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
}

// Fail makes every subsequent call return err (until cleared with nil).
func (m *MockGenerator) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of every request issued so far.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.text, next.err
	}
	for substr, resp := range m.responses {
		if substr != "" && containsFold(req.Prompt, substr) {
			return resp, nil
		}
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return fmt.Sprintf("Mock response to: %s", req.Prompt), nil
}

// Info implements Generator.
func (m *MockGenerator) Info() Info { return m.info }
