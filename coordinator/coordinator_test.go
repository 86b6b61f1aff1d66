package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/testutil"
	"github.com/panelmesh/panelmesh/memory"
	"github.com/panelmesh/panelmesh/model"
	"github.com/panelmesh/panelmesh/registry"
	"github.com/panelmesh/panelmesh/session"
	"github.com/panelmesh/panelmesh/synthesizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generatorFunc adapts a function to model.Generator for scripted tests.
type generatorFunc func(ctx context.Context, req model.Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req model.Request) (string, error) {
	return f(ctx, req)
}

func (f generatorFunc) Info() model.Info { return model.Info{Name: "scripted", Provider: "mock"} }

type fixture struct {
	coord *Coordinator
	store *session.InMemoryStore
	log   *memory.InMemoryEventLog
	sess  *core.SimulationSession
}

func newFixture(t *testing.T, agentCount int, questions []string, gen model.Generator, optFns ...func(o *Options)) *fixture {
	t.Helper()
	reg := registry.NewInMemoryRegistry()
	var agentIDs []string
	for _, p := range testutil.BuildProfiles(agentCount) {
		reg.Put(p)
		agentIDs = append(agentIDs, p.ID)
	}

	store := session.NewInMemoryStore()
	sess := core.NewSimulationSession(questions, agentIDs)
	require.NoError(t, store.Create(sess))

	log := memory.NewInMemoryEventLog()
	coord := New(store, store, reg, memory.NewService(log), synthesizer.New(gen), optFns...)
	return &fixture{coord: coord, store: store, log: log, sess: sess}
}

func TestRunSession_EndToEndWithOneEmptyAgent(t *testing.T) {
	questions := []string{
		"How do you commute?",
		"What would make you switch to public transit?",
		"How much would you pay per ride?",
	}

	// Agent #7 gets an empty model reply (both attempts) on question #2;
	// everyone else answers normally. The small sleep keeps round timings
	// measurable in milliseconds.
	gen := generatorFunc(func(ctx context.Context, req model.Request) (string, error) {
		time.Sleep(2 * time.Millisecond)
		if strings.Contains(req.Prompt, "Name: Agent 7") && strings.Contains(req.Prompt, "Question: "+questions[1]) {
			return "", nil
		}
		return "I would say it depends on reliability and cost.", nil
	})

	f := newFixture(t, 20, questions, gen)
	result, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)

	assert.Equal(t, core.SessionCompleted, result.Status)
	require.Len(t, result.PerQuestionTimingsMs, 3)
	assert.Greater(t, result.AvgResponseTimeMs, int64(0))
	assert.Greater(t, result.TotalTimeMs, int64(0))

	stored, err := f.store.Get(f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, stored.Status)
	assert.Equal(t, result.AvgResponseTimeMs, stored.AvgResponseTimeMs)

	answers, err := f.store.Answers(f.sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 60, "20 agents x 3 questions")

	var agent7Q2 *core.AgentAnswer
	for i := range answers {
		if answers[i].AgentID == "agent-7" && answers[i].Question == questions[1] {
			agent7Q2 = &answers[i]
		}
	}
	require.NotNil(t, agent7Q2)
	assert.NotEmpty(t, agent7Q2.AnswerText)
	assert.Contains(t, agent7Q2.AnswerText, "occupation-7", "fallback embeds the agent's occupation")
	assert.NotContains(t, agent7Q2.AnswerText, "Error:")
}

func TestRunSession_MemorySequencesPerAgent(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) {
		return "consistent answer", nil
	})
	f := newFixture(t, 3, []string{"q1", "q2"}, gen)

	_, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)

	for _, agentID := range f.sess.AgentIDs {
		events, err := f.log.Events(agentID)
		require.NoError(t, err)
		require.Len(t, events, 2, "one event per question for %s", agentID)
		assert.Equal(t, int64(1), events[0].SequenceNumber)
		assert.Equal(t, int64(2), events[1].SequenceNumber)
		assert.Equal(t, "q1", events[0].EventData["question"])
		assert.Equal(t, "q2", events[1].EventData["question"])
	}
}

func TestRunSession_LaterRoundsSeeEarlierContext(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	gen := generatorFunc(func(_ context.Context, req model.Request) (string, error) {
		mu.Lock()
		prompts = append(prompts, req.Prompt)
		mu.Unlock()
		return "the bus works fine for me", nil
	})

	f := newFixture(t, 1, []string{"How do you commute?", "Would you change anything about your commute?"}, gen)
	_, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "previous answers", "first round has no history")
	assert.Contains(t, prompts[1], "the bus works fine for me", "second round embeds round one's answer")

	answers, err := f.store.Answers(f.sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, 0, answers[0].ContextEventCount)
	assert.Equal(t, 1, answers[1].ContextEventCount)
}

// flakyAnswerStore fails every write for one agent id.
type flakyAnswerStore struct {
	core.AnswerStore
	failFor string
}

func (f *flakyAnswerStore) SaveAnswer(a core.AgentAnswer) error {
	if a.AgentID == f.failFor && !strings.HasPrefix(a.AnswerText, "Error:") {
		return errors.New("disk full")
	}
	return f.AnswerStore.SaveAnswer(a)
}

func TestRunSession_RoundIsolation(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) {
		return "fine", nil
	})

	reg := registry.NewInMemoryRegistry()
	var agentIDs []string
	for _, p := range testutil.BuildProfiles(5) {
		reg.Put(p)
		agentIDs = append(agentIDs, p.ID)
	}
	store := session.NewInMemoryStore()
	sess := core.NewSimulationSession([]string{"q1", "q2"}, agentIDs)
	require.NoError(t, store.Create(sess))

	answers := &flakyAnswerStore{AnswerStore: store, failFor: "agent-3"}
	coord := New(store, answers, reg, memory.NewService(memory.NewInMemoryEventLog()), synthesizer.New(gen))

	result, err := coord.RunSession(context.Background(), sess.ID)
	require.NoError(t, err, "one agent's I/O failure must not fail the session")
	assert.Equal(t, core.SessionCompleted, result.Status)

	rows, err := store.Answers(sess.ID)
	require.NoError(t, err)
	require.Len(t, rows, 10, "every round yields one row per agent")

	placeholderCount := 0
	for _, row := range rows {
		if strings.HasPrefix(row.AnswerText, "Error:") {
			placeholderCount++
			assert.Equal(t, "agent-3", row.AgentID)
		}
	}
	assert.Equal(t, 2, placeholderCount, "agent-3 gets a placeholder in both rounds")
}

func TestRunSession_StuckAgentDoesNotBlockRound(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, req model.Request) (string, error) {
		if strings.Contains(req.Prompt, "Name: Agent 2") {
			// Ignores cancellation: simulates a wedged upstream call.
			time.Sleep(2 * time.Second)
		}
		return "quick answer", nil
	})

	f := newFixture(t, 3, []string{"q1"}, gen, func(o *Options) {
		o.PerAgentDeadline = 50 * time.Millisecond
	})

	start := time.Now()
	result, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "round join must cut the stuck task loose")
	assert.Equal(t, core.SessionCompleted, result.Status)

	rows, err := f.store.Answers(f.sess.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	stuck := 0
	for _, row := range rows {
		if strings.Contains(row.AnswerText, "timed out") {
			stuck++
			assert.Equal(t, "agent-2", row.AgentID)
		}
	}
	assert.Equal(t, 1, stuck)
}

func TestRunSession_AbandonedTaskNeverPersistsLate(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) {
		// Ignores cancellation and outlives the per-agent deadline.
		time.Sleep(200 * time.Millisecond)
		return "late but real answer", nil
	})

	f := newFixture(t, 1, []string{"q1"}, gen, func(o *Options) {
		o.PerAgentDeadline = 30 * time.Millisecond
	})

	result, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionCompleted, result.Status)

	// Let the abandoned goroutine finish; it must not write anything.
	time.Sleep(300 * time.Millisecond)

	rows, err := f.store.Answers(f.sess.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "exactly one row per agent and question")
	assert.True(t, strings.HasPrefix(rows[0].AnswerText, "Error:"))
	assert.Contains(t, rows[0].AnswerText, "timed out")

	events, err := f.log.Events("agent-1")
	require.NoError(t, err)
	assert.Empty(t, events, "no memory event from the abandoned task")
}

func TestRunSession_CancelMarksFailedKeepsPriorRounds(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	gen := generatorFunc(func(ctx context.Context, req model.Request) (string, error) {
		if strings.Contains(req.Prompt, "q2") {
			once.Do(func() { close(release) })
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "round one answer", nil
	})

	f := newFixture(t, 2, []string{"q1", "q2"}, gen)
	go func() {
		<-release
		f.coord.Cancel(f.sess.ID)
	}()

	_, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.Error(t, err)
	var serr *SessionError
	require.ErrorAs(t, err, &serr)

	stored, err := f.store.Get(f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)

	rows, err := f.store.Answers(f.sess.ID)
	require.NoError(t, err)
	round1 := 0
	for _, row := range rows {
		if row.Question == "q1" {
			round1++
			assert.Equal(t, "round one answer", row.AnswerText)
		}
	}
	assert.Equal(t, 2, round1, "round one data is retained after cancellation")
}

func TestRunSession_LoadFailureIsTyped(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) { return "x", nil })
	store := session.NewInMemoryStore()
	coord := New(store, store, registry.NewInMemoryRegistry(), memory.NewService(memory.NewInMemoryEventLog()), synthesizer.New(gen))

	_, err := coord.RunSession(context.Background(), "missing")
	require.Error(t, err)
	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "load", serr.Stage)
}

func TestRunSession_RejectsDoubleStart(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) { return "x", nil })
	f := newFixture(t, 1, []string{"q1"}, gen)

	_, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)

	// A completed session cannot be re-run: the state machine rejects it.
	_, err = f.coord.RunSession(context.Background(), f.sess.ID)
	require.Error(t, err)
	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "transition", serr.Stage)
}

func TestMeanMs(t *testing.T) {
	assert.Equal(t, int64(0), meanMs(nil))
	assert.Equal(t, int64(4), meanMs([]int64{2, 4, 6}))
}

func TestRunSession_ManyAgentsBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	gen := generatorFunc(func(_ context.Context, _ model.Request) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return "ok", nil
	})

	f := newFixture(t, 12, []string{"q1"}, gen, func(o *Options) {
		o.MaxConcurrentAgents = 4
	})
	_, err := f.coord.RunSession(context.Background(), f.sess.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 4, "semaphore caps concurrent agent tasks")
	assert.Greater(t, peak, 0)
}
