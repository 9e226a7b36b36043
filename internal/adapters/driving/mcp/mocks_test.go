package mcp

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer  domain.Answer
	lastAsk string
}

func (m *mockAnswerService) Answer(_ context.Context, query string) domain.Answer {
	m.lastAsk = query
	return m.answer
}

// mockRetrieverService is a mock implementation of driving.RetrieverService.
type mockRetrieverService struct {
	results []domain.RetrievedChunk
	err     error
	lastK   int
}

func (m *mockRetrieverService) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.lastK = k
	return m.results, m.err
}
