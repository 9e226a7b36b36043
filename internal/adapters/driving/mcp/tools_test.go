package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

func newTestServer(t *testing.T, answers *mockAnswerService, retriever *mockRetrieverService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Answer: answers, Retriever: retriever})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answers := &mockAnswerService{answer: domain.Answer{
			Text: "Students may work up to 20 hours per week.",
			Sources: []domain.RetrievedChunk{{
				Chunk: domain.Chunk{ID: "c1", Origin: "https://www.udi.no/en/study"},
				Score: 0.91,
			}},
		}}
		server := newTestServer(t, answers, &mockRetrieverService{})

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "  Can I work 25 hours?  "})

		require.NoError(t, err)
		assert.Equal(t, "Can I work 25 hours?", answers.lastAsk)
		assert.Contains(t, out.Answer, "20 hours")
		assert.False(t, out.Degraded)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "c1", out.Sources[0].ChunkID)
		assert.Equal(t, "https://www.udi.no/en/study", out.Sources[0].Origin)
	})

	t.Run("degraded answer is not a tool error", func(t *testing.T) {
		answers := &mockAnswerService{answer: domain.Answer{Text: domain.FallbackAnswer, Degraded: true}}
		server := newTestServer(t, answers, &mockRetrieverService{})

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.True(t, out.Degraded)
		assert.Empty(t, out.Sources)
	})

	t.Run("empty question", func(t *testing.T) {
		server := newTestServer(t, &mockAnswerService{}, &mockRetrieverService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: " "})

		assert.ErrorIs(t, err, errEmptyQuery)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunks best first", func(t *testing.T) {
		retriever := &mockRetrieverService{results: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ID: "c1", DocumentID: "d1", Origin: "u1", Position: 2, Content: "first"}, Score: 0.9},
			{Chunk: domain.Chunk{ID: "c2", DocumentID: "d2", Origin: "u2", Content: "second"}, Score: 0.5},
		}}
		server := newTestServer(t, &mockAnswerService{}, retriever)

		_, out, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "work permit", K: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, retriever.lastK)
		assert.Equal(t, 2, out.Count)
		assert.Equal(t, "c1", out.Chunks[0].ChunkID)
		assert.Equal(t, "d1", out.Chunks[0].DocumentID)
		assert.Equal(t, 2, out.Chunks[0].Position)
		assert.Equal(t, "first", out.Chunks[0].Content)
		assert.InDelta(t, 0.9, out.Chunks[0].Score, 1e-9)
	})

	t.Run("default k is passed through", func(t *testing.T) {
		retriever := &mockRetrieverService{}
		server := newTestServer(t, &mockAnswerService{}, retriever)

		_, out, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 0, retriever.lastK)
		assert.Equal(t, 0, out.Count)
	})

	t.Run("index not built", func(t *testing.T) {
		retriever := &mockRetrieverService{err: domain.ErrIndexNotFound}
		server := newTestServer(t, &mockAnswerService{}, retriever)

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})

		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("empty query", func(t *testing.T) {
		server := newTestServer(t, &mockAnswerService{}, &mockRetrieverService{})

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{})

		assert.ErrorIs(t, err, errEmptyQuery)
	})
}
