package panelmesh

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/model"
	"github.com/panelmesh/panelmesh/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = "```json\n" + `{
  "total_count": 3,
  "overall_context": "urban bus riders",
  "groups": [
    {
      "count": 2,
      "demographics": {"age_range": "25-44"},
      "brief": "daily commuters",
      "characteristics": ["commuter"],
      "allocation_reasoning": "largest segment"
    },
    {
      "count": 1,
      "demographics": {"age_range": "18-24"},
      "brief": "students",
      "characteristics": ["student"],
      "allocation_reasoning": "price sensitive"
    }
  ]
}` + "\n```"

func TestPanelMesh_PlanSeedRun(t *testing.T) {
	planGen := model.NewMockGenerator()
	planGen.SetDefault(planJSON)

	answerGen := model.NewMockGenerator()
	answerGen.SetDefault("I ride the bus most days.")

	searcher := retrieval.NewInMemorySearcher()
	searcher.Add("ridership statistics for the urban core", map[string]string{"source": "s1"})

	mesh := New(func(o *Options) {
		o.Searcher = searcher
		o.PlannerModel = planGen
		o.AnswerModel = answerGen
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	plan, err := mesh.CreatePlan(ctx, "fare increase reaction", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 3, plan.TotalCount)

	agentIDs := mesh.SeedAgents(plan)
	require.Len(t, agentIDs, 3)

	sess, err := mesh.NewSession([]string{"q1", "q2"}, agentIDs)
	require.NoError(t, err)
	assert.Equal(t, core.SessionPending, sess.Status)

	result, err := mesh.RunSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, result.Status)

	answers, err := mesh.Answers(sess.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 6)

	events, err := mesh.RetrieveContext(ctx, agentIDs[0], "q1", 5)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	stored, err := mesh.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, stored.Status)
}

// fixedRegistry is a read-only core.AgentRegistry with a static profile set.
type fixedRegistry struct {
	profiles map[string]core.AgentProfile
}

func (r *fixedRegistry) Get(agentID string) (core.AgentProfile, error) {
	p, ok := r.profiles[agentID]
	if !ok {
		return core.AgentProfile{}, fmt.Errorf("unknown agent %s", agentID)
	}
	return p, nil
}

func (r *fixedRegistry) List(agentIDs []string) ([]core.AgentProfile, error) {
	out := make([]core.AgentProfile, 0, len(agentIDs))
	for _, id := range agentIDs {
		p, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func TestPanelMesh_ExternalReadOnlyRegistry(t *testing.T) {
	answerGen := model.NewMockGenerator()
	answerGen.SetDefault("works with external profiles")

	mesh := New(func(o *Options) {
		o.Registry = &fixedRegistry{profiles: map[string]core.AgentProfile{
			"ext-1": {ID: "ext-1", Name: "Iris", Occupation: "courier"},
		}}
		o.AnswerModel = answerGen
	})

	assert.Nil(t, mesh.SeedAgents(&core.AllocationPlan{TotalCount: 1}), "read-only registry cannot seed")
	assert.False(t, mesh.RegisterAgent(core.AgentProfile{ID: "x"}), "read-only registry rejects writes")

	sess, err := mesh.NewSession([]string{"q1"}, []string{"ext-1"})
	require.NoError(t, err)

	result, err := mesh.RunSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, result.Status)

	answers, err := mesh.Answers(sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "ext-1", answers[0].AgentID)
	assert.Equal(t, "works with external profiles", answers[0].AnswerText)
}

func TestPanelMesh_DefaultsAreUsable(t *testing.T) {
	mesh := New()

	mesh.RegisterAgent(core.AgentProfile{ID: "a1", Name: "Ada", Occupation: "teacher"})
	sess, err := mesh.NewSession([]string{"q1"}, []string{"a1"})
	require.NoError(t, err)

	result, err := mesh.RunSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, result.Status)

	answers, err := mesh.Answers(sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.NotEmpty(t, answers[0].AnswerText)
	assert.False(t, mesh.CancelSession(sess.ID), "no active run to cancel")
}
