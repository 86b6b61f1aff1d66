package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/util"
	"github.com/panelmesh/panelmesh/logging"
	"github.com/panelmesh/panelmesh/model"
	"github.com/panelmesh/panelmesh/retrieval"
	"golang.org/x/sync/errgroup"
)

const (
	maxSweepQueries = 8
	diagnosticChars = 500
)

// Options configure a Planner.
type Options struct {
	// SweepDeadline bounds the whole retrieval sweep. On expiry the
	// planner proceeds with whatever snippets already returned.
	SweepDeadline time.Duration
	// GenerationDeadline bounds the long-form generation call.
	GenerationDeadline time.Duration
	// PerQueryTopK caps snippets per sweep query.
	PerQueryTopK int
	// SnippetBudget caps the merged, deduplicated context block.
	SnippetBudget int
	// MaxTokens for the generation call.
	MaxTokens int64
	// Temperature for the generation call.
	Temperature float64
	// Logger (defaults to NoOp).
	Logger logging.Logger
}

// Planner produces validated allocation plans from a research goal. Aside
// from its two outbound call sites (retrieval sweep, generation) it is a pure
// function of its inputs; nothing is persisted here.
type Planner struct {
	searcher  retrieval.Searcher
	generator model.Generator
	opts      Options
}

// New constructs a Planner. The searcher may be nil, in which case planning
// proceeds without corpus grounding.
func New(searcher retrieval.Searcher, generator model.Generator, optFns ...func(o *Options)) *Planner {
	opts := Options{
		SweepDeadline:      30 * time.Second,
		GenerationDeadline: 120 * time.Second,
		PerQueryTopK:       5,
		SnippetBudget:      15,
		MaxTokens:          8192,
		Temperature:        0.7,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{searcher: searcher, generator: generator, opts: opts}
}

// CreatePlan runs the sweep, the generation call and the extraction ladder,
// returning a validated plan or a typed PlanningError. A total_count that
// disagrees with the group sum is logged as a warning, not repaired: the
// caller asked for agentCount agents and must see when the model deviated.
func (p *Planner) CreatePlan(ctx context.Context, goal string, agentCount int, extraContext string) (*core.AllocationPlan, error) {
	snippets := p.sweep(ctx, goal)

	prompt, err := buildPlanPrompt(goal, agentCount, extraContext, snippets)
	if err != nil {
		return nil, &PlanningError{Kind: ErrUpstreamFailure, Detail: "prompt rendering failed", Wrapped: err}
	}

	genCtx, cancel := context.WithTimeout(ctx, p.opts.GenerationDeadline)
	defer cancel()
	start := time.Now()
	raw, err := p.generator.Generate(genCtx, model.Request{
		Prompt:      prompt,
		MaxTokens:   p.opts.MaxTokens,
		Temperature: p.opts.Temperature,
	})
	if el, ok := p.opts.Logger.(*logging.EngineLogger); ok {
		el.LogGeneration(p.generator.Info().Provider, len(prompt), time.Since(start), err == nil, err)
	} else {
		p.opts.Logger.Debug("plan generation finished", "duration", time.Since(start), "response_chars", len(raw))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &PlanningError{Kind: ErrUpstreamTimeout, Detail: "generation exceeded deadline", Wrapped: err}
		}
		return nil, &PlanningError{Kind: ErrUpstreamFailure, Wrapped: err}
	}

	plan, err := extractPlan(raw)
	if err != nil {
		p.opts.Logger.Error("plan response unparseable", "raw", util.Truncate(raw, diagnosticChars))
		return nil, &PlanningError{Kind: ErrUnparseable, Detail: util.Truncate(raw, diagnosticChars), Wrapped: err}
	}

	if plan.SumMismatch() {
		p.opts.Logger.Warn("allocation sum mismatch",
			"total_count", plan.TotalCount,
			"group_sum", plan.GroupSum(),
			"requested", agentCount)
	}
	if plan.TotalCount != agentCount {
		p.opts.Logger.Warn("plan total differs from requested agent count",
			"total_count", plan.TotalCount, "requested", agentCount)
	}
	return plan, nil
}

// sweep issues the retrieval queries concurrently under one shared deadline
// and merges the results. Sweep failures and timeouts degrade to fewer (or
// zero) snippets; they never fail the plan.
func (p *Planner) sweep(ctx context.Context, goal string) []core.Snippet {
	if p.searcher == nil {
		return nil
	}
	queries := sweepQueries(goal)
	if len(queries) > maxSweepQueries {
		queries = queries[:maxSweepQueries]
	}

	sweepCtx, cancel := context.WithTimeout(ctx, p.opts.SweepDeadline)
	defer cancel()

	start := time.Now()
	var (
		mu        sync.Mutex
		collected []core.Snippet
		failed    int
	)
	var g errgroup.Group
	for _, query := range queries {
		g.Go(func() error {
			hits, err := p.searcher.HybridSearch(sweepCtx, query, p.opts.PerQueryTopK)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return nil // advisory: degrade, don't abort the sweep
			}
			collected = append(collected, hits...)
			return nil
		})
	}
	_ = g.Wait()

	merged := dedupeAndCap(collected, p.opts.SnippetBudget)
	if logger, ok := p.opts.Logger.(*logging.EngineLogger); ok {
		logger.LogRetrievalSweep(len(queries), len(merged), time.Since(start), failed > 0)
	} else {
		p.opts.Logger.Debug("retrieval sweep finished",
			"queries", len(queries), "snippets", len(merged), "failed_queries", failed)
	}
	return merged
}

// dedupeAndCap removes exact-text duplicates preserving first-seen order and
// trims to the snippet budget.
func dedupeAndCap(snippets []core.Snippet, budget int) []core.Snippet {
	seen := make(map[string]bool, len(snippets))
	out := make([]core.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if s.Text == "" || seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		out = append(out, s)
		if budget > 0 && len(out) == budget {
			break
		}
	}
	return out
}
