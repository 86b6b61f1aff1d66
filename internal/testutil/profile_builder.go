package testutil

import (
	"fmt"

	"github.com/panelmesh/panelmesh/core"
)

// ProfileBuilder provides a fluent helper for constructing agent profiles in
// tests. Example:
//
//	p := NewProfileBuilder().Name("Ada").Occupation("teacher").Build()
type ProfileBuilder struct {
	id           string
	name         string
	occupation   string
	demographics map[string]string
	values       []string
	background   string
}

// NewProfileBuilder creates a builder with generic defaults.
func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{
		name:         "Test Agent",
		occupation:   "analyst",
		demographics: map[string]string{"age_range": "25-34"},
	}
}

// ID overrides the auto-generated profile ID (chainable).
func (b *ProfileBuilder) ID(id string) *ProfileBuilder { b.id = id; return b }

// Name sets the agent's display name (chainable).
func (b *ProfileBuilder) Name(n string) *ProfileBuilder { b.name = n; return b }

// Occupation sets the agent's occupation (chainable).
func (b *ProfileBuilder) Occupation(o string) *ProfileBuilder { b.occupation = o; return b }

// Demographic adds one demographic key/value pair (chainable).
func (b *ProfileBuilder) Demographic(key, value string) *ProfileBuilder {
	b.demographics[key] = value
	return b
}

// Value appends one value/attitude label (chainable).
func (b *ProfileBuilder) Value(v string) *ProfileBuilder { b.values = append(b.values, v); return b }

// Background sets the free-form background narrative (chainable).
func (b *ProfileBuilder) Background(bg string) *ProfileBuilder { b.background = bg; return b }

// Build materializes the profile.
func (b *ProfileBuilder) Build() core.AgentProfile {
	id := b.id
	if id == "" {
		id = core.NewID()
	}
	return core.AgentProfile{
		ID:           id,
		Name:         b.name,
		Occupation:   b.occupation,
		Demographics: b.demographics,
		Values:       b.values,
		Background:   b.background,
	}
}

// BuildProfiles creates n distinct profiles with deterministic names and ids
// ("agent-1" .. "agent-n"), convenient for coordinator tests.
func BuildProfiles(n int) []core.AgentProfile {
	profiles := make([]core.AgentProfile, n)
	for i := 0; i < n; i++ {
		profiles[i] = core.AgentProfile{
			ID:           fmt.Sprintf("agent-%d", i+1),
			Name:         fmt.Sprintf("Agent %d", i+1),
			Occupation:   fmt.Sprintf("occupation-%d", i+1),
			Demographics: map[string]string{"age_range": "25-34"},
		}
	}
	return profiles
}
