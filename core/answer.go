package core

// AgentAnswer is the output unit of one synthesis call: one agent's answer to
// one question. AnswerText is never empty; the synthesizer's fallback tier
// guarantees it even when the generation gateway misbehaves.
type AgentAnswer struct {
	ID                string `json:"id"`
	AgentID           string `json:"agent_id"`
	SessionID         string `json:"session_id"`
	Question          string `json:"question"`
	AnswerText        string `json:"answer_text"`
	ResponseTimeMs    int64  `json:"response_time_ms"`
	ContextEventCount int    `json:"context_event_count"`
}

// AnswerStore persists answer rows. Writes are scoped per call so one agent's
// failure cannot block another agent's write in the same round.
type AnswerStore interface {
	SaveAnswer(answer AgentAnswer) error
	Answers(sessionID string) ([]AgentAnswer, error)
}
