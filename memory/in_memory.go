package memory

import (
	"sync"

	"github.com/panelmesh/panelmesh/core"
)

// InMemoryEventLog is a volatile core.EventLog keeping per-agent event
// slices in a process-local map. Sequence allocation happens under the store
// lock, so appends across agents may interleave freely while appends for one
// agent can never produce duplicate sequence numbers.
//
// Concurrency: protected by RWMutex; reads return defensive copies.
type InMemoryEventLog struct {
	mu     sync.RWMutex
	events map[string][]core.AgentEvent // agentID -> ordered events
}

// NewInMemoryEventLog constructs an empty in-memory event log.
func NewInMemoryEventLog() *InMemoryEventLog {
	return &InMemoryEventLog{events: make(map[string][]core.AgentEvent)}
}

// Append implements core.EventLog. The next sequence number is read and
// written under one lock acquisition.
func (l *InMemoryEventLog) Append(ev core.AgentEvent) (core.AgentEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	history := l.events[ev.AgentID]
	var next int64 = 1
	if len(history) > 0 {
		next = history[len(history)-1].SequenceNumber + 1
	}
	ev.SequenceNumber = next
	l.events[ev.AgentID] = append(history, ev)
	return ev, nil
}

// Events implements core.EventLog returning a copy ordered by sequence.
func (l *InMemoryEventLog) Events(agentID string) ([]core.AgentEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	history := l.events[agentID]
	out := make([]core.AgentEvent, len(history))
	copy(out, history)
	return out, nil
}
