package memory

import (
	"context"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/retrieval"
)

// OverlapRanker ranks events by indexing their text into an ephemeral
// retrieval.InMemorySearcher and running the query against it. Events the
// search does not surface are backfilled by recency so callers always get
// topK context when enough history exists.
type OverlapRanker struct{}

// NewOverlapRanker creates the default event ranker.
func NewOverlapRanker() *OverlapRanker { return &OverlapRanker{} }

// RankEvents implements Ranker.
func (r *OverlapRanker) RankEvents(ctx context.Context, query string, events []core.AgentEvent, topK int) ([]core.AgentEvent, error) {
	index := retrieval.NewInMemorySearcher()
	byText := make(map[string]core.AgentEvent, len(events))
	for _, ev := range events {
		text := ev.Text()
		if text == "" {
			continue
		}
		if _, dup := byText[text]; !dup {
			byText[text] = ev
			index.Add(text, map[string]string{"event_id": ev.ID})
		}
	}

	hits, err := index.HybridSearch(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	ranked := make([]core.AgentEvent, 0, topK)
	seen := map[string]bool{}
	for _, hit := range hits {
		if ev, ok := byText[hit.Text]; ok && !seen[ev.ID] {
			ranked = append(ranked, ev)
			seen[ev.ID] = true
		}
	}
	// Backfill with most recent events when ranking surfaced too few.
	for i := len(events) - 1; i >= 0 && len(ranked) < topK; i-- {
		if !seen[events[i].ID] {
			ranked = append(ranked, events[i])
			seen[events[i].ID] = true
		}
	}
	return ranked, nil
}
