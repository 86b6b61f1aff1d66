package core

import "time"

// EventTypeResponseGiven marks an event recording an agent's answer to a
// simulation question.
const EventTypeResponseGiven = "response_given"

// AgentEvent is one record in an agent's append-only memory log. After
// emission it must be treated as immutable: no component updates or deletes
// events, later rounds only read them back as context.
//
// SequenceNumber is unique and strictly increasing per AgentID. The invariant
// is enforced at write time by the EventLog, not trusted from callers; gaps
// left by a failed-and-abandoned append are acceptable, duplicates are not.
//
// Embedding is an opaque vector owned and interpreted by the retrieval layer.
type AgentEvent struct {
	ID             string         `json:"id"`
	AgentID        string         `json:"agent_id"`
	SessionID      string         `json:"session_id,omitempty"`
	EventType      string         `json:"event_type"`
	EventData      map[string]any `json:"event_data"`
	SequenceNumber int64          `json:"sequence_number"`
	Timestamp      time.Time      `json:"timestamp"`
	Embedding      []float32      `json:"embedding,omitempty"`
}

// NewAgentEvent creates an unsequenced event; the EventLog assigns
// SequenceNumber during append.
func NewAgentEvent(agentID, sessionID, eventType string, data map[string]any) AgentEvent {
	return AgentEvent{
		ID:        NewID(),
		AgentID:   agentID,
		SessionID: sessionID,
		EventType: eventType,
		EventData: data,
		Timestamp: time.Now().UTC(),
	}
}

// Text renders the event's conversational payload for retrieval ranking.
// Response events concatenate question and answer; other event types fall
// back to any "text" field.
func (e AgentEvent) Text() string {
	q, _ := e.EventData["question"].(string)
	a, _ := e.EventData["answer"].(string)
	if q != "" || a != "" {
		if q == "" {
			return a
		}
		if a == "" {
			return q
		}
		return q + "\n" + a
	}
	t, _ := e.EventData["text"].(string)
	return t
}

// EventLog persists per-agent event history. Implementations must assign
// sequence numbers atomically per agent and tolerate concurrent writers
// across different agents; appends for the same agent are expected to be
// externally serialized and a detected race surfaces as a conflict error
// rather than a silent reorder.
type EventLog interface {
	// Append stores the event, assigning the next sequence number for
	// ev.AgentID, and returns the stored event.
	Append(ev AgentEvent) (AgentEvent, error)
	// Events returns all events for the agent ordered by sequence number.
	// An unknown agent yields an empty slice, not an error.
	Events(agentID string) ([]AgentEvent, error)
}
