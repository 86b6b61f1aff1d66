package core

import (
	"fmt"
	"time"
)

// SessionStatus tracks the lifecycle of a simulation session. Transitions are
// one way: pending → running → completed | failed. A session never returns to
// a prior state.
type SessionStatus string

const (
	// SessionPending means the session has been created but not started.
	SessionPending SessionStatus = "pending"
	// SessionRunning means the coordinator is processing questions.
	SessionRunning SessionStatus = "running"
	// SessionCompleted means all questions were processed without fatal error.
	SessionCompleted SessionStatus = "completed"
	// SessionFailed means an unrecoverable error stopped the run.
	SessionFailed SessionStatus = "failed"
)

// validTransitions enumerates the allowed status moves.
var validTransitions = map[SessionStatus][]SessionStatus{
	SessionPending: {SessionRunning},
	SessionRunning: {SessionCompleted, SessionFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SimulationSession is one multi-round simulated discussion: an ordered,
// immutable-during-run question list asked of a fixed set of agents.
// Timing fields are computed once, at completion.
type SimulationSession struct {
	ID                   string        `json:"id"`
	Status               SessionStatus `json:"status"`
	Questions            []string      `json:"questions"`
	AgentIDs             []string      `json:"agent_ids"`
	TotalExecutionTimeMs int64         `json:"total_execution_time_ms"`
	AvgResponseTimeMs    int64         `json:"avg_response_time_ms"`
	ErrorMessage         string        `json:"error_message,omitempty"`
	Created              time.Time     `json:"created"`
	Updated              time.Time     `json:"updated"`
}

// NewSimulationSession creates a pending session over the given questions and
// agents.
func NewSimulationSession(questions, agentIDs []string) *SimulationSession {
	now := time.Now().UTC()
	return &SimulationSession{
		ID:        NewID(),
		Status:    SessionPending,
		Questions: append([]string(nil), questions...),
		AgentIDs:  append([]string(nil), agentIDs...),
		Created:   now,
		Updated:   now,
	}
}

// Transition moves the session to the next status, rejecting any move the
// state machine does not allow.
func (s *SimulationSession) Transition(next SessionStatus) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("invalid session transition %s -> %s", s.Status, next)
	}
	s.Status = next
	s.Updated = time.Now().UTC()
	return nil
}

// Clone returns a deep copy safe for independent mutation.
func (s *SimulationSession) Clone() *SimulationSession {
	clone := *s
	clone.Questions = append([]string(nil), s.Questions...)
	clone.AgentIDs = append([]string(nil), s.AgentIDs...)
	return &clone
}

// SessionStore persists simulation sessions.
type SessionStore interface {
	Create(session *SimulationSession) error
	Get(sessionID string) (*SimulationSession, error)
	Update(session *SimulationSession) error
}
