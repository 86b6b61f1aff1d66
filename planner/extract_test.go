package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = `{
  "total_count": 4,
  "overall_context": "A compact panel grounded in commuter survey data.",
  "groups": [
    {
      "count": 3,
      "demographics": {"age_range": "25-34", "location": "urban"},
      "brief": "Urban commuters who rely on public transit daily.",
      "characteristics": ["urban", "transit rider", "employed", "smartphone user"],
      "allocation_reasoning": "Majority of the target population.",
      "insights": [
        {"type": "statistic", "summary": "Transit use rose 12% since 2023", "confidence": "high", "why_matters": "Shows growing reliance on public transit."}
      ]
    },
    {
      "count": 1,
      "demographics": {"age_range": "55+", "location": "suburban"},
      "brief": "Suburban drivers nearing retirement.",
      "characteristics": ["suburban", "car owner"],
      "allocation_reasoning": "Minority control group."
    }
  ]
}`

func TestExtractPlan_AllFourForms(t *testing.T) {
	forms := map[string]string{
		"tagged fenced block": "Here is the plan you asked for:\n```json\n" + planJSON + "\n```\nLet me know if you need changes.",
		"bare fenced block":   "Plan below.\n```\n" + planJSON + "\n```",
		"inline after prose":  "After reviewing the corpus, I propose the following allocation: " + planJSON + " This covers both segments.",
		"bare json":           planJSON,
	}

	for name, raw := range forms {
		t.Run(name, func(t *testing.T) {
			plan, err := extractPlan(raw)
			require.NoError(t, err)
			assert.Equal(t, 4, plan.TotalCount)
			require.Len(t, plan.Groups, 2)
			assert.Equal(t, 3, plan.Groups[0].Count)
			assert.Equal(t, "urban", plan.Groups[0].Demographics["location"])
			require.Len(t, plan.Groups[0].Insights, 1)
			assert.Equal(t, "Shows growing reliance on public transit.", plan.Groups[0].Insights[0].WhyMatters)
		})
	}
}

func TestExtractPlan_IdenticalAcrossForms(t *testing.T) {
	direct, err := extractPlan(planJSON)
	require.NoError(t, err)
	fenced, err := extractPlan("intro\n```json\n" + planJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, direct, fenced)
}

func TestExtractPlan_ProseWithoutJSONFails(t *testing.T) {
	_, err := extractPlan("I would suggest a panel of four urban commuters and one driver, but I cannot provide structured output right now.")
	assert.Error(t, err)
}

func TestExtractPlan_MalformedJSONFails(t *testing.T) {
	_, err := extractPlan("```json\n{\"total_count\": \"not a number\"}\n```")
	assert.Error(t, err)
}

func TestExtractPlan_NestedBracesInStrings(t *testing.T) {
	raw := fmt.Sprintf("Note that {curly} braces appear in prose. %s trailing {unbalanced", planJSON)
	// The first '{' opens prose, not JSON; the scan must skip the junk span
	// and still find the plan.
	plan, err := extractPlan(raw)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.TotalCount)
}

func TestBalancedBraceSpans_RespectsStrings(t *testing.T) {
	spans := balancedBraceSpans(`prefix {"a": "va}ue", "b": {"c": 1}} suffix`)
	require.Len(t, spans, 1)
	assert.Equal(t, `{"a": "va}ue", "b": {"c": 1}}`, spans[0])
}
