package retrieval

import (
	"context"

	"github.com/panelmesh/panelmesh/core"
)

// Searcher performs hybrid semantic/keyword search over a text corpus and
// returns ranked snippets, most relevant first, at most topK.
type Searcher interface {
	HybridSearch(ctx context.Context, query string, topK int) ([]core.Snippet, error)
}
