// Package ollama provides a model.Generator backed by a local Ollama server
// via langchaingo. Useful for fully offline simulation runs.
package ollama

import (
	"context"
	"fmt"

	"github.com/panelmesh/panelmesh/model"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Options configure the Ollama generator adapter.
type Options struct {
	Model       string
	ServerURL   string
	Temperature float64
	MaxTokens   int
}

// Generator wraps a langchaingo Ollama LLM behind model.Generator.
type Generator struct {
	llm  *ollama.LLM
	opts Options
}

// NewGenerator creates a new Ollama generator. Returns an error if the
// client cannot be constructed (malformed server URL).
func NewGenerator(optFns ...func(o *Options)) (*Generator, error) {
	opts := Options{
		Model:       "llama3.1",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	llmOpts := []ollama.Option{ollama.WithModel(opts.Model)}
	if opts.ServerURL != "" {
		llmOpts = append(llmOpts, ollama.WithServerURL(opts.ServerURL))
	}
	llm, err := ollama.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &Generator{llm: llm, opts: opts}, nil
}

// Generate implements model.Generator.
func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	temperature := g.opts.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	maxTokens := g.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int(req.MaxTokens)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, req.Prompt,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out, nil
}

// Info returns metadata describing this Ollama generator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.opts.Model, Provider: "ollama"}
}
