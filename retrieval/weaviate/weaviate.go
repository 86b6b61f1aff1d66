// Package weaviate provides a retrieval.Searcher backed by Weaviate's hybrid
// (BM25 + vector) search. The class schema is configurable: any class with a
// text property plus optional string metadata properties can serve as the
// knowledge corpus.
package weaviate

import (
	"context"
	"fmt"

	"github.com/panelmesh/panelmesh/core"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Options configure the Weaviate searcher.
type Options struct {
	// ClassName is the Weaviate class holding corpus chunks.
	ClassName string
	// TextProperty is the property containing the snippet text.
	TextProperty string
	// MetadataProperties are additional string properties copied into
	// Snippet.Metadata.
	MetadataProperties []string
	// Alpha balances keyword (0) vs vector (1) scoring. Default 0.5.
	Alpha float32
}

// Searcher adapts a Weaviate client to the retrieval.Searcher interface.
type Searcher struct {
	client *weaviate.Client
	opts   Options
}

// NewSearcher creates a Searcher from an existing Weaviate client.
func NewSearcher(client *weaviate.Client, optFns ...func(o *Options)) *Searcher {
	opts := Options{
		ClassName:          "KnowledgeChunk",
		TextProperty:       "text",
		MetadataProperties: []string{"source"},
		Alpha:              0.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Searcher{client: client, opts: opts}
}

// HybridSearch implements retrieval.Searcher.
func (s *Searcher) HybridSearch(ctx context.Context, query string, topK int) ([]core.Snippet, error) {
	fields := make([]graphql.Field, 0, len(s.opts.MetadataProperties)+2)
	fields = append(fields, graphql.Field{Name: s.opts.TextProperty})
	for _, p := range s.opts.MetadataProperties {
		fields = append(fields, graphql.Field{Name: p})
	}
	fields = append(fields, graphql.Field{Name: "_additional { score }"})

	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query).
		WithAlpha(s.opts.Alpha)

	result, err := s.client.GraphQL().Get().
		WithClassName(s.opts.ClassName).
		WithFields(fields...).
		WithHybrid(hybrid).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate hybrid search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate hybrid search: %s", result.Errors[0].Message)
	}
	return s.parseResults(result), nil
}

// parseResults walks the loosely-typed GraphQL response defensively,
// skipping malformed objects rather than failing the sweep.
func (s *Searcher) parseResults(result *models.GraphQLResponse) []core.Snippet {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[s.opts.ClassName].([]interface{})
	if !ok {
		return nil
	}

	snippets := make([]core.Snippet, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		text := getString(m, s.opts.TextProperty)
		if text == "" {
			continue
		}
		snippet := core.Snippet{Text: text, Metadata: map[string]string{}}
		for _, p := range s.opts.MetadataProperties {
			if v := getString(m, p); v != "" {
				snippet.Metadata[p] = v
			}
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := additional["score"].(type) {
			case float64:
				snippet.Score = v
			case string:
				fmt.Sscanf(v, "%f", &snippet.Score)
			}
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}

func getString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}
