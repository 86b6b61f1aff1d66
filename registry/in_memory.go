package registry

import (
	"fmt"
	"sync"

	"github.com/panelmesh/panelmesh/core"
)

// InMemoryRegistry is a volatile core.AgentRegistry storing profiles in a
// process-local map. Safe for concurrent access; reads return copies.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	profiles map[string]core.AgentProfile
}

// NewInMemoryRegistry constructs an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{profiles: make(map[string]core.AgentProfile)}
}

// Put stores or replaces a profile.
func (r *InMemoryRegistry) Put(profile core.AgentProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.ID] = profile
}

// Get implements core.AgentRegistry.
func (r *InMemoryRegistry) Get(agentID string) (core.AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[agentID]
	if !ok {
		return core.AgentProfile{}, fmt.Errorf("registry: unknown agent %s", agentID)
	}
	return profile, nil
}

// List implements core.AgentRegistry, resolving every id or failing on the
// first unknown one.
func (r *InMemoryRegistry) List(agentIDs []string) ([]core.AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profiles := make([]core.AgentProfile, 0, len(agentIDs))
	for _, id := range agentIDs {
		profile, ok := r.profiles[id]
		if !ok {
			return nil, fmt.Errorf("registry: unknown agent %s", id)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// SeedFromPlan creates simple numbered profiles for each demographic group
// in the plan and returns their ids. Demo/test convenience; real deployments
// create richer profiles externally.
func (r *InMemoryRegistry) SeedFromPlan(plan *core.AllocationPlan) []string {
	var ids []string
	for gi, group := range plan.Groups {
		for i := 0; i < group.Count; i++ {
			demographics := make(map[string]string, len(group.Demographics))
			for k, v := range group.Demographics {
				demographics[k] = v
			}
			occupation := "panel respondent"
			if len(group.Characteristics) > 0 {
				occupation = group.Characteristics[i%len(group.Characteristics)]
			}
			profile := core.AgentProfile{
				ID:           core.NewID(),
				Name:         fmt.Sprintf("Respondent %d-%d", gi+1, i+1),
				Occupation:   occupation,
				Demographics: demographics,
				Values:       append([]string(nil), group.Characteristics...),
				Background:   group.Brief,
			}
			r.Put(profile)
			ids = append(ids, profile.ID)
		}
	}
	return ids
}
