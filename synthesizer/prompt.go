package synthesizer

import (
	"fmt"
	"strings"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/util"
)

const answerPromptTemplate = `You are roleplaying one specific survey respondent. Stay in character.

Name: {{.name}}
Occupation: {{.occupation}}
{{if .demographics}}Demographics: {{.demographics}}
{{end}}{{if .values}}Values: {{.values}}
{{end}}{{if .background}}Background: {{.background}}
{{end}}{{if .history}}
Your previous answers in this discussion:
{{.history}}
Stay consistent with them.
{{end}}
Question: {{.question}}

Answer in first person, 2-5 sentences, as this person would actually speak.`

const strictRetrySuffix = `

IMPORTANT: Your previous reply was empty. You must produce a non-empty
answer. Respond in character with at least one full sentence.`

// maxContextPairs caps how many prior Q/A pairs are embedded in the prompt.
const maxContextPairs = 3

// buildAnswerPrompt renders the in-character prompt with up to three most
// relevant prior Q/A pairs from the agent's memory.
func buildAnswerPrompt(profile core.AgentProfile, question string, contextEvents []core.AgentEvent) (string, error) {
	var demo []string
	for k, v := range profile.Demographics {
		demo = append(demo, fmt.Sprintf("%s: %s", k, v))
	}

	var history strings.Builder
	pairs := 0
	for _, ev := range contextEvents {
		if pairs == maxContextPairs {
			break
		}
		q, _ := ev.EventData["question"].(string)
		a, _ := ev.EventData["answer"].(string)
		if q == "" || a == "" {
			continue
		}
		fmt.Fprintf(&history, "Q: %s\nA: %s\n", q, a)
		pairs++
	}

	return util.RenderTemplate(answerPromptTemplate, map[string]any{
		"name":         profile.Name,
		"occupation":   profile.Occupation,
		"demographics": strings.Join(demo, ", "),
		"values":       strings.Join(profile.Values, ", "),
		"background":   profile.Background,
		"history":      history.String(),
		"question":     question,
	})
}

// fallbackAnswer deterministically synthesizes an in-character placeholder
// from the profile alone. It is the escalation chain's terminal tier and by
// construction never empty.
func fallbackAnswer(profile core.AgentProfile, question string) string {
	name := profile.Name
	if name == "" {
		name = "this respondent"
	}
	occupation := profile.Occupation
	if occupation == "" {
		occupation = "participant"
	}
	return fmt.Sprintf(
		"Speaking as %s, a %s, I don't have a strong answer to %q right now, but based on my day-to-day experience as a %s I would need to think about it more before giving specifics.",
		name, occupation, question, occupation,
	)
}
