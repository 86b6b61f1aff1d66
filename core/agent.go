package core

import "github.com/google/uuid"

// AgentProfile describes one simulated respondent. Profiles are created by an
// external registry from an AllocationPlan; this engine only reads them.
//
// Demographics is free-form key/value (age_range, gender, education, ...).
// Values and Background feed the synthesis prompt so an agent stays in
// character across rounds.
type AgentProfile struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Occupation   string            `json:"occupation"`
	Demographics map[string]string `json:"demographics"`
	Values       []string          `json:"values,omitempty"`
	Background   string            `json:"background,omitempty"`
}

// AgentRegistry exposes read access to agent profiles. Creation and deletion
// belong to the external collaborator that consumes AllocationPlans.
type AgentRegistry interface {
	Get(agentID string) (AgentProfile, error)
	List(agentIDs []string) ([]AgentProfile, error)
}

// NewID generates a new unique identifier for events, sessions and answers.
func NewID() string { return uuid.NewString() }
