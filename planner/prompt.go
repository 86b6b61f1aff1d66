package planner

import (
	"strings"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/util"
)

// sweepQueries derives the retrieval sweep from the research goal: broad
// population, economic and social angles so the corpus can ground segment
// selection. Capped at maxSweepQueries by the caller.
func sweepQueries(goal string) []string {
	return []string{
		goal,
		goal + " target demographics",
		goal + " population statistics",
		goal + " income and economic data",
		goal + " consumer behavior trends",
		goal + " regional and geographic differences",
		goal + " age and generational differences",
		goal + " social attitudes survey data",
	}
}

const planPromptTemplate = `You are a research-panel designer. Based on the research goal and the
reference data below, decide which demographic segments a simulated panel of
{{.agent_count}} respondents should contain and how many respondents each
segment gets. Select the segments yourself; none are provided.

Research goal: {{.goal}}
{{if .extra_context}}
Additional context from the requester:
{{.extra_context}}
{{end}}
{{if .snippets}}Reference data from the knowledge corpus:
{{.snippets}}
{{else}}No reference data is available; rely on general knowledge and say so
in your reasoning.
{{end}}
Respond with a single JSON object and nothing else, in a fenced code block
tagged json, with this exact shape:

{
  "total_count": {{.agent_count}},
  "overall_context": "<500-800 characters grounding the plan as a whole>",
  "groups": [
    {
      "count": <positive integer, all counts must sum to total_count>,
      "demographics": {"age_range": "...", "gender": "...", "education": "...", "location": "..."},
      "brief": "<900-1200 characters of educational long-form background on this segment>",
      "characteristics": ["<4-6 short labels>"],
      "allocation_reasoning": "<why this segment gets this share>",
      "insights": [
        {
          "type": "<trend|statistic|relationship>",
          "summary": "<one sentence>",
          "magnitude": "<optional size or rate>",
          "confidence": "<high|medium|low>",
          "time_period": "<optional>",
          "source": "<optional>",
          "why_matters": "<educational explanation, required>"
        }
      ]
    }
  ]
}`

// buildPlanPrompt renders the long-form planning request.
func buildPlanPrompt(goal string, agentCount int, extraContext string, snippets []core.Snippet) (string, error) {
	var block strings.Builder
	for i, s := range snippets {
		if i > 0 {
			block.WriteString("\n")
		}
		block.WriteString("- ")
		block.WriteString(s.Text)
		if src := s.Metadata["source"]; src != "" {
			block.WriteString(" [" + src + "]")
		}
	}
	return util.RenderTemplate(planPromptTemplate, map[string]any{
		"goal":          goal,
		"agent_count":   agentCount,
		"extra_context": extraContext,
		"snippets":      block.String(),
	})
}
