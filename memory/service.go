package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/panelmesh/panelmesh/core"
)

// ErrSequenceConflict is returned when two appends for the same agent race.
// Callers must serialize appends per agent; the conflict is surfaced instead
// of silently reordering so the sequence invariant stays observable.
var ErrSequenceConflict = errors.New("memory: concurrent append for agent detected")

// Ranker orders an agent's event history against a query, most relevant
// first, returning at most topK events. Implementations may call out to a
// retrieval backend; ranking is advisory and failures degrade to recency.
type Ranker interface {
	RankEvents(ctx context.Context, query string, events []core.AgentEvent, topK int) ([]core.AgentEvent, error)
}

// Service wraps an EventLog with the engine's memory contract: sequenced
// appends and relevance-ranked context retrieval keyed by the agent's own
// event text.
type Service struct {
	log    core.EventLog
	ranker Ranker
}

// Options configure a memory Service.
type Options struct {
	// Ranker orders history against a query. Defaults to a token-overlap
	// ranker from the retrieval package.
	Ranker Ranker
}

// NewService creates a Service over the given event log.
func NewService(log core.EventLog, optFns ...func(o *Options)) *Service {
	opts := Options{Ranker: NewOverlapRanker()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{log: log, ranker: opts.Ranker}
}

// AppendEvent stores a new event for the agent and returns its assigned
// sequence number. The underlying log allocates sequence numbers atomically;
// a detected same-agent race returns ErrSequenceConflict.
func (s *Service) AppendEvent(agentID, sessionID, eventType string, data map[string]any) (int64, error) {
	if agentID == "" {
		return 0, fmt.Errorf("memory: agent id is required")
	}
	ev := core.NewAgentEvent(agentID, sessionID, eventType, data)
	stored, err := s.log.Append(ev)
	if err != nil {
		return 0, err
	}
	return stored.SequenceNumber, nil
}

// RetrieveContext returns up to topK of the agent's prior events, most
// relevant to the query first. An agent with no history yields an empty
// slice, never an error.
func (s *Service) RetrieveContext(ctx context.Context, agentID, query string, topK int) ([]core.AgentEvent, error) {
	events, err := s.log.Events(agentID)
	if err != nil {
		return nil, fmt.Errorf("memory: load events for %s: %w", agentID, err)
	}
	if len(events) == 0 {
		return []core.AgentEvent{}, nil
	}
	if topK <= 0 {
		topK = len(events)
	}

	ranked, err := s.ranker.RankEvents(ctx, query, events, topK)
	if err != nil {
		// Ranking is best effort; degrade to recency rather than
		// failing the synthesis call.
		return lastN(events, topK), nil
	}
	return ranked, nil
}

func lastN(events []core.AgentEvent, n int) []core.AgentEvent {
	if len(events) < n {
		n = len(events)
	}
	out := make([]core.AgentEvent, n)
	copy(out, events[len(events)-n:])
	reverse(out)
	return out
}

func reverse(events []core.AgentEvent) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}
