package synthesizer

import (
	"context"
	"strings"
	"time"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/logging"
	"github.com/panelmesh/panelmesh/model"
)

// Options configure a Synthesizer.
type Options struct {
	// MaxTokens for each generation attempt.
	MaxTokens int64
	// Temperature for each generation attempt.
	Temperature float64
	// Logger (defaults to NoOp).
	Logger logging.Logger
}

// Synthesizer produces agent answers through the three-tier escalation.
// Persistence is the coordinator's responsibility; the only side effect here
// is the outbound generation call.
type Synthesizer struct {
	generator model.Generator
	opts      Options
}

// New constructs a Synthesizer over a generation gateway.
func New(generator model.Generator, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		MaxTokens:   1024,
		Temperature: 0.9,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Synthesizer{generator: generator, opts: opts}
}

// attempt is one tier of the escalation chain: render a prompt, or nothing
// for the terminal fallback tier.
type attempt struct {
	name   string
	prompt func() (string, bool)
}

// Synthesize returns the agent's answer to the question. The escalation
// chain guarantees a non-empty AnswerText regardless of gateway behavior;
// context cancellation is the only way out without an answer, and even then
// the fallback is used so callers still receive a complete record.
func (s *Synthesizer) Synthesize(ctx context.Context, profile core.AgentProfile, sessionID, question string, contextEvents []core.AgentEvent) core.AgentAnswer {
	start := time.Now()

	basePrompt, promptErr := buildAnswerPrompt(profile, question, contextEvents)
	attempts := []attempt{
		{name: "generate", prompt: func() (string, bool) { return basePrompt, promptErr == nil }},
		{name: "strict-retry", prompt: func() (string, bool) { return basePrompt + strictRetrySuffix, promptErr == nil }},
	}

	var text string
	for _, a := range attempts {
		prompt, ok := a.prompt()
		if !ok {
			break
		}
		attemptStart := time.Now()
		out, err := s.generator.Generate(ctx, model.Request{
			Prompt:      prompt,
			MaxTokens:   s.opts.MaxTokens,
			Temperature: s.opts.Temperature,
		})
		if el, ok := s.opts.Logger.(*logging.EngineLogger); ok {
			el.LogGeneration(s.generator.Info().Provider, len(prompt), time.Since(attemptStart), err == nil, err)
		}
		if err != nil {
			// The strict retry exists for the model-empty case only; a
			// gateway error escalates straight to the fallback tier.
			s.opts.Logger.Warn("generation attempt failed",
				"attempt", a.name, "agent_id", profile.ID, "error", err.Error())
			break
		}
		if strings.TrimSpace(out) == "" {
			s.opts.Logger.Warn("generation attempt returned empty output",
				"attempt", a.name, "agent_id", profile.ID)
			continue
		}
		text = strings.TrimSpace(out)
		break
	}

	if text == "" {
		text = fallbackAnswer(profile, question)
		s.opts.Logger.Info("used deterministic fallback answer", "agent_id", profile.ID)
	}

	return core.AgentAnswer{
		ID:                core.NewID(),
		AgentID:           profile.ID,
		SessionID:         sessionID,
		Question:          question,
		AnswerText:        text,
		ResponseTimeMs:    time.Since(start).Milliseconds(),
		ContextEventCount: len(contextEvents),
	}
}
