package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

func TestRetrieverService_DefaultK(t *testing.T) {
	index := &staticIndex{}
	r := NewRetrieverService(index, domain.RetrievalSettings{})
	assert.Equal(t, DefaultK, r.DefaultK())

	_, err := r.Retrieve(context.Background(), "work permit", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultK, index.lastK)

	_, err = r.Retrieve(context.Background(), "work permit", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, index.lastK)
}

func TestRetrieverService_EmptyQuery(t *testing.T) {
	index := &staticIndex{results: retrieved(chunkOf("a", "o", "text"))}
	r := NewRetrieverService(index, domain.RetrievalSettings{K: 3})

	results, err := r.Retrieve(context.Background(), "   ", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, index.lastK, "index not queried")
}

func TestRetrieverService_IndexNotFound(t *testing.T) {
	r := NewRetrieverService(&mockVectorIndex{}, domain.RetrievalSettings{K: 3})

	_, err := r.Retrieve(context.Background(), "question", 0)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestRetrieverService_DedupeBySource(t *testing.T) {
	index := &staticIndex{results: retrieved(
		chunkOf("1", "https://a", "first a"),
		chunkOf("2", "https://a", "second a"),
		chunkOf("3", "https://b", "first b"),
		chunkOf("4", "https://c", "first c"),
	)}
	r := NewRetrieverService(index, domain.RetrievalSettings{K: 2, DedupeBySource: true})

	results, err := r.Retrieve(context.Background(), "question", 0)

	require.NoError(t, err)
	assert.Equal(t, 4, index.lastK)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].Chunk.ID)
	assert.Equal(t, "3", results[1].Chunk.ID)
}

func TestRetrieverService_BestFirst(t *testing.T) {
	index := &mockVectorIndex{}
	require.NoError(t, index.Rebuild(context.Background(), []domain.Chunk{
		chunkOf("a", "o1", "Family immigration."),
		chunkOf("b", "o2", "Students may work up to 20 hours."),
	}))
	r := NewRetrieverService(index, domain.RetrievalSettings{K: 2})

	results, err := r.Retrieve(context.Background(), "students work hours", 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}
