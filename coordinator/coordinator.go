package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/util"
	"github.com/panelmesh/panelmesh/logging"
	"github.com/panelmesh/panelmesh/memory"
	"github.com/panelmesh/panelmesh/synthesizer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Options configure a Coordinator.
type Options struct {
	// PerAgentDeadline bounds each agent task (retrieval + synthesis +
	// persistence). A task past its deadline is abandoned and recorded as
	// a per-agent error.
	PerAgentDeadline time.Duration
	// MaxConcurrentAgents caps simultaneous agent tasks per round.
	MaxConcurrentAgents int64
	// ContextTopK is how many prior events are requested per answer.
	ContextTopK int
	// Logger (defaults to NoOp).
	Logger logging.Logger
}

// Coordinator orchestrates simulation sessions. Public methods are safe for
// concurrent use; distinct sessions may run in parallel, one run per session
// at a time.
type Coordinator struct {
	sessions core.SessionStore
	answers  core.AnswerStore
	registry core.AgentRegistry
	memory   *memory.Service
	synth    *synthesizer.Synthesizer
	opts     Options

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Coordinator.
func New(
	sessions core.SessionStore,
	answers core.AnswerStore,
	reg core.AgentRegistry,
	mem *memory.Service,
	synth *synthesizer.Synthesizer,
	optFns ...func(o *Options),
) *Coordinator {
	opts := Options{
		PerAgentDeadline:    60 * time.Second,
		MaxConcurrentAgents: 16,
		ContextTopK:         3,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{
		sessions:   sessions,
		answers:    answers,
		registry:   reg,
		memory:     mem,
		synth:      synth,
		opts:       opts,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Cancel aborts the in-flight run for the session, if any. In-flight agent
// tasks for the current round are cancelled; rounds already persisted are
// untouched.
func (c *Coordinator) Cancel(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cancel, ok := c.activeRuns[sessionID]
	if ok {
		cancel()
	}
	return ok
}

func (c *Coordinator) register(sessionID string, cancel context.CancelFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, running := c.activeRuns[sessionID]; running {
		return fmt.Errorf("session %s is already running", sessionID)
	}
	c.activeRuns[sessionID] = cancel
	return nil
}

func (c *Coordinator) unregister(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.activeRuns, sessionID)
}

// RunSession drives the session state machine: pending → running →
// completed | failed. Questions are processed strictly in order; within a
// round, agent tasks run concurrently with no ordering guarantee. Per-agent
// failures become placeholder answers and never abort the round; only
// session-level failures (load, persist, cancellation) stop the run.
func (c *Coordinator) RunSession(ctx context.Context, sessionID string) (SessionResult, error) {
	sess, err := c.sessions.Get(sessionID)
	if err != nil {
		return SessionResult{}, &SessionError{SessionID: sessionID, Stage: "load", Err: err}
	}
	logger := c.opts.Logger
	if el, ok := logger.(*logging.EngineLogger); ok {
		defer el.StartTimer("run_session")()
	}

	if err := sess.Transition(core.SessionRunning); err != nil {
		return SessionResult{}, &SessionError{SessionID: sessionID, Stage: "transition", Err: err}
	}
	if err := c.sessions.Update(sess); err != nil {
		return SessionResult{}, &SessionError{SessionID: sessionID, Stage: "persist", Err: err}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := c.register(sessionID, cancel); err != nil {
		return SessionResult{}, &SessionError{SessionID: sessionID, Stage: "transition", Err: err}
	}
	defer c.unregister(sessionID)

	profiles, err := c.registry.List(sess.AgentIDs)
	if err != nil {
		return c.fail(sess, "agents", err)
	}

	start := time.Now()
	timings := make([]int64, 0, len(sess.Questions))

	for qi, question := range sess.Questions {
		if runCtx.Err() != nil {
			return c.fail(sess, "transition", fmt.Errorf("run cancelled before question %d: %w", qi+1, runCtx.Err()))
		}

		roundStart := time.Now()
		results := c.runRound(runCtx, sess.ID, question, profiles)
		placeholders := 0
		for _, res := range results {
			if res.err == nil {
				continue
			}
			placeholders++
			c.persistPlaceholder(sess.ID, question, res)
		}
		elapsed := time.Since(roundStart)
		timings = append(timings, elapsed.Milliseconds())

		if el, ok := logger.(*logging.EngineLogger); ok {
			el.LogRound(qi, len(profiles), placeholders, elapsed)
		} else {
			logger.Info("round completed",
				"session_id", sess.ID, "question_index", qi,
				"agents", len(profiles), "placeholders", placeholders,
				"duration_ms", elapsed.Milliseconds())
		}
	}

	if runCtx.Err() != nil {
		return c.fail(sess, "transition", fmt.Errorf("run cancelled: %w", runCtx.Err()))
	}

	sess.TotalExecutionTimeMs = time.Since(start).Milliseconds()
	sess.AvgResponseTimeMs = meanMs(timings)
	if err := sess.Transition(core.SessionCompleted); err != nil {
		return c.fail(sess, "transition", err)
	}
	if err := c.sessions.Update(sess); err != nil {
		return c.fail(sess, "persist", err)
	}

	return SessionResult{
		SessionID:            sess.ID,
		Status:               core.SessionCompleted,
		PerQuestionTimingsMs: timings,
		TotalTimeMs:          sess.TotalExecutionTimeMs,
		AvgResponseTimeMs:    sess.AvgResponseTimeMs,
	}, nil
}

// runRound fans out one task per agent and joins them all. Results are
// written to per-agent slots, so no lock is shared across the suspension
// points inside tasks.
func (c *Coordinator) runRound(ctx context.Context, sessionID, question string, profiles []core.AgentProfile) []agentResult {
	results := make([]agentResult, len(profiles))
	sem := semaphore.NewWeighted(c.opts.MaxConcurrentAgents)
	var g errgroup.Group

	for i, profile := range profiles {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = agentResult{agentID: profile.ID, err: fmt.Errorf("round cancelled: %w", err)}
				return nil
			}
			defer sem.Release(1)
			results[i] = c.runAgentTask(ctx, sessionID, question, profile)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runAgentTask executes one agent's retrieval + synthesis + persistence
// under the per-agent deadline. The deadline is enforced at the join: a
// task that overruns is abandoned and reported as an error record, exactly
// like a per-agent I/O failure.
func (c *Coordinator) runAgentTask(ctx context.Context, sessionID, question string, profile core.AgentProfile) agentResult {
	taskCtx, cancel := context.WithTimeout(ctx, c.opts.PerAgentDeadline)
	defer cancel()

	done := make(chan agentResult, 1)
	go func() {
		done <- c.executeAgentTask(taskCtx, sessionID, question, profile)
	}()

	select {
	case res := <-done:
		return res
	case <-taskCtx.Done():
		return agentResult{agentID: profile.ID, err: fmt.Errorf("agent task timed out: %w", taskCtx.Err())}
	}
}

// executeAgentTask is the task body: retrieve memory context, synthesize,
// append the response event, persist the answer row. Each step uses its own
// store call; nothing is shared with sibling tasks.
func (c *Coordinator) executeAgentTask(ctx context.Context, sessionID, question string, profile core.AgentProfile) agentResult {
	contextEvents, err := c.memory.RetrieveContext(ctx, profile.ID, question, c.opts.ContextTopK)
	if err != nil {
		return agentResult{agentID: profile.ID, err: fmt.Errorf("retrieve context: %w", err)}
	}

	answer := c.synth.Synthesize(ctx, profile, sessionID, question, contextEvents)

	// Once the deadline fires the join has already recorded this task as an
	// error and moved on; a late write here would duplicate the agent's row
	// and race the same agent's next-round append.
	if err := ctx.Err(); err != nil {
		return agentResult{agentID: profile.ID, err: fmt.Errorf("task abandoned before persist: %w", err)}
	}

	if _, err := c.memory.AppendEvent(profile.ID, sessionID, core.EventTypeResponseGiven, map[string]any{
		"question": question,
		"answer":   answer.AnswerText,
	}); err != nil {
		return agentResult{agentID: profile.ID, err: fmt.Errorf("append event: %w", err)}
	}

	if err := ctx.Err(); err != nil {
		return agentResult{agentID: profile.ID, err: fmt.Errorf("task abandoned before persist: %w", err)}
	}

	if err := c.answers.SaveAnswer(answer); err != nil {
		return agentResult{agentID: profile.ID, err: fmt.Errorf("save answer: %w", err)}
	}

	return agentResult{
		agentID:           profile.ID,
		answerText:        answer.AnswerText,
		contextEventCount: answer.ContextEventCount,
	}
}

// persistPlaceholder converts a per-agent error record into a placeholder
// answer row so the round still yields one row per agent. Best effort: a
// failing placeholder write is logged, not escalated, since the original
// failure is already recorded.
func (c *Coordinator) persistPlaceholder(sessionID, question string, res agentResult) {
	placeholder := core.AgentAnswer{
		ID:         core.NewID(),
		AgentID:    res.agentID,
		SessionID:  sessionID,
		Question:   question,
		AnswerText: fmt.Sprintf("Error: %s", util.Truncate(res.err.Error(), 200)),
	}
	if err := c.answers.SaveAnswer(placeholder); err != nil {
		c.opts.Logger.Warn("failed to persist placeholder answer",
			"agent_id", res.agentID, "error", err.Error())
	}
}

// fail marks the session failed with a truncated diagnostic, retaining all
// rounds persisted so far.
func (c *Coordinator) fail(sess *core.SimulationSession, stage string, cause error) (SessionResult, error) {
	sess.ErrorMessage = util.Truncate(cause.Error(), 500)
	if terr := sess.Transition(core.SessionFailed); terr == nil {
		if uerr := c.sessions.Update(sess); uerr != nil {
			c.opts.Logger.Error("failed to persist failed session state",
				"session_id", sess.ID, "error", uerr.Error())
		}
	}
	c.opts.Logger.Error("session failed", "session_id", sess.ID, "stage", stage, "error", cause.Error())
	return SessionResult{SessionID: sess.ID, Status: core.SessionFailed},
		&SessionError{SessionID: sess.ID, Stage: stage, Err: cause}
}

func meanMs(timings []int64) int64 {
	if len(timings) == 0 {
		return 0
	}
	var sum int64
	for _, t := range timings {
		sum += t
	}
	return sum / int64(len(timings))
}
