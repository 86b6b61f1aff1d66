// Package registry contains a process-local core.AgentRegistry. Agent
// creation is owned by an external collaborator; the in-memory registry adds
// a Put method so tests and demos can seed profiles directly, including from
// an allocation plan.
package registry
