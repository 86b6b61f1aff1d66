package coordinator

import (
	"fmt"

	"github.com/panelmesh/panelmesh/core"
)

// SessionResult summarizes one completed (or failed) run.
type SessionResult struct {
	SessionID            string             `json:"session_id"`
	Status               core.SessionStatus `json:"status"`
	PerQuestionTimingsMs []int64            `json:"per_question_timings_ms"`
	TotalTimeMs          int64              `json:"total_time_ms"`
	AvgResponseTimeMs    int64              `json:"avg_response_time_ms"`
}

// SessionError is a fatal, session-level failure: the run stopped and the
// session was marked failed (when the record was reachable at all). Partial
// round data already persisted is retained.
type SessionError struct {
	SessionID string
	Stage     string // "load", "transition", "agents", "persist"
	Err       error
}

// Error implements error.
func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s failed at %s: %v", e.SessionID, e.Stage, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SessionError) Unwrap() error { return e.Err }

// agentResult is the small per-task record collected at the fan-in join.
type agentResult struct {
	agentID           string
	answerText        string
	contextEventCount int
	err               error
}
