package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySearcher_RanksByOverlap(t *testing.T) {
	s := NewInMemorySearcher()
	s.Add("urban population growth and housing costs", map[string]string{"source": "census"})
	s.Add("rural broadband adoption", map[string]string{"source": "fcc"})
	s.Add("urban housing affordability crisis", nil)

	hits, err := s.HybridSearch(context.Background(), "urban housing", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "urban housing affordability crisis", hits[0].Text)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestInMemorySearcher_EmptyAndBounded(t *testing.T) {
	s := NewInMemorySearcher()
	hits, err := s.HybridSearch(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	for i := 0; i < 10; i++ {
		s.Add("income statistics report", nil)
	}
	hits, err = s.HybridSearch(context.Background(), "income statistics", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestInMemorySearcher_Cancelled(t *testing.T) {
	s := NewInMemorySearcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.HybridSearch(ctx, "x", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
