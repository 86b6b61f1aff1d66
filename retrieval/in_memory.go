package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/panelmesh/panelmesh/core"
)

// InMemorySearcher is a naive process-local Searcher. Documents are scored by
// query token overlap, so unlike a plain substring scan the ranking order is
// observable in tests. Suitable for tests and demos only; use the weaviate
// sub-package for real corpora.
//
// Concurrency: protected by RWMutex.
type InMemorySearcher struct {
	mu   sync.RWMutex
	docs []core.Snippet
}

// NewInMemorySearcher creates an empty in-memory searcher.
func NewInMemorySearcher() *InMemorySearcher {
	return &InMemorySearcher{}
}

// Add indexes a document with optional metadata.
func (s *InMemorySearcher) Add(text string, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, core.Snippet{Text: text, Metadata: metadata})
}

// HybridSearch implements Searcher via token-overlap scoring. Documents with
// zero overlapping tokens are excluded.
func (s *InMemorySearcher) HybridSearch(ctx context.Context, query string, topK int) ([]core.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokenize(query)
	scored := make([]core.Snippet, 0, len(s.docs))
	for _, doc := range s.docs {
		score := overlap(terms, tokenize(doc.Text))
		if score == 0 {
			continue
		}
		hit := doc
		hit.Score = score
		scored = append(scored, hit)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(f, ".,;:!?\"'()")] = true
	}
	delete(tokens, "")
	return tokens
}

func overlap(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	matches := 0
	for t := range query {
		if doc[t] {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}
