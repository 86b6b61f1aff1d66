package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence grades how well supported a GraphInsight is by the corpus.
type Confidence string

const (
	// ConfidenceHigh marks insights directly supported by retrieved data.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium is the default when source data is ambiguous.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow marks speculative insights.
	ConfidenceLow Confidence = "low"
)

// UnmarshalJSON normalizes the confidence grade. Absent or unrecognized
// values map to medium rather than failing the whole plan.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = ConfidenceMedium
		return nil
	}
	switch Confidence(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidenceHigh:
		*c = ConfidenceHigh
	case ConfidenceLow:
		*c = ConfidenceLow
	default:
		*c = ConfidenceMedium
	}
	return nil
}

// GraphInsight is one corpus-derived observation backing a demographic
// group's allocation. WhyMatters is the educational explanation and is never
// omitted from a valid plan.
type GraphInsight struct {
	Type       string     `json:"type"`
	Summary    string     `json:"summary"`
	Magnitude  string     `json:"magnitude,omitempty"`
	Confidence Confidence `json:"confidence"`
	TimePeriod string     `json:"time_period,omitempty"`
	Source     string     `json:"source,omitempty"`
	WhyMatters string     `json:"why_matters"`
}

// DemographicGroup allocates a share of the panel to one demographic segment
// together with the long-form reasoning behind it.
type DemographicGroup struct {
	Count               int               `json:"count"`
	Demographics        map[string]string `json:"demographics"`
	Brief               string            `json:"brief"`
	Characteristics     []string          `json:"characteristics"`
	Insights            []GraphInsight    `json:"insights,omitempty"`
	AllocationReasoning string            `json:"allocation_reasoning"`
}

// AllocationPlan is the root planning artifact: how many agents to create,
// split across which demographic segments, and why. Plans are immutable after
// validation; they seed agent creation and are then discarded.
type AllocationPlan struct {
	TotalCount     int                `json:"total_count"`
	OverallContext string             `json:"overall_context"`
	Groups         []DemographicGroup `json:"groups"`
}

// Validate type-checks the plan shape strictly. It rejects structural
// problems (no groups, non-positive counts, missing narratives) but does NOT
// reject a total_count/sum mismatch; that is surfaced separately via
// SumMismatch so the caller can warn without losing the plan.
func (p *AllocationPlan) Validate() error {
	if p.TotalCount <= 0 {
		return fmt.Errorf("allocation plan: total_count must be positive, got %d", p.TotalCount)
	}
	if strings.TrimSpace(p.OverallContext) == "" {
		return fmt.Errorf("allocation plan: overall_context is empty")
	}
	if len(p.Groups) == 0 {
		return fmt.Errorf("allocation plan: no demographic groups")
	}
	for i, g := range p.Groups {
		if g.Count <= 0 {
			return fmt.Errorf("allocation plan: group %d has non-positive count %d", i, g.Count)
		}
		if len(g.Demographics) == 0 {
			return fmt.Errorf("allocation plan: group %d has no demographics", i)
		}
		if strings.TrimSpace(g.Brief) == "" {
			return fmt.Errorf("allocation plan: group %d has an empty brief", i)
		}
		if len(g.Characteristics) == 0 {
			return fmt.Errorf("allocation plan: group %d has no characteristics", i)
		}
		for j, ins := range g.Insights {
			if strings.TrimSpace(ins.Summary) == "" {
				return fmt.Errorf("allocation plan: group %d insight %d has an empty summary", i, j)
			}
			if strings.TrimSpace(ins.WhyMatters) == "" {
				return fmt.Errorf("allocation plan: group %d insight %d is missing why_matters", i, j)
			}
			if ins.Confidence == "" {
				p.Groups[i].Insights[j].Confidence = ConfidenceMedium
			}
		}
	}
	return nil
}

// GroupSum returns the number of agents the groups actually allocate.
func (p *AllocationPlan) GroupSum() int {
	sum := 0
	for _, g := range p.Groups {
		sum += g.Count
	}
	return sum
}

// SumMismatch reports whether the groups allocate a different number of
// agents than TotalCount claims. Callers warn on mismatch instead of
// repairing it: silent correction would hide the model disobeying the
// requested agent count.
func (p *AllocationPlan) SumMismatch() bool { return p.GroupSum() != p.TotalCount }
