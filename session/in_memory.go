package session

import (
	"fmt"
	"sync"

	"github.com/panelmesh/panelmesh/core"
)

// InMemoryStore is a volatile SessionStore + AnswerStore implementation
// storing sessions and answer rows in process-local maps. Safe for
// concurrent access; each returned session is cloned to prevent external
// mutation of internal state. Answer writes are independent per call, so one
// agent's failed write can never block another's.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.SimulationSession
	answers  map[string][]core.AgentAnswer // sessionID -> rows
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.SimulationSession),
		answers:  make(map[string][]core.AgentAnswer),
	}
}

// Create implements core.SessionStore.
func (s *InMemoryStore) Create(session *core.SimulationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Get implements core.SessionStore returning a clone.
func (s *InMemoryStore) Get(sessionID string) (*core.SimulationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return session.Clone(), nil
}

// Update implements core.SessionStore storing a clone of the snapshot.
func (s *InMemoryStore) Update(session *core.SimulationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s not found", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

// SaveAnswer implements core.AnswerStore.
func (s *InMemoryStore) SaveAnswer(answer core.AgentAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)
	return nil
}

// Answers implements core.AnswerStore returning a copy.
func (s *InMemoryStore) Answers(sessionID string) ([]core.AgentAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.answers[sessionID]
	out := make([]core.AgentAnswer, len(rows))
	copy(out, rows)
	return out, nil
}
