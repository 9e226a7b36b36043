package services

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService retrieves context and composes answers.
type AnswerService struct {
	retriever driving.RetrieverService
	composer  *Composer
}

// NewAnswerService creates a new answer service.
func NewAnswerService(retriever driving.RetrieverService, composer *Composer) *AnswerService {
	return &AnswerService{retriever: retriever, composer: composer}
}

// Answer retrieves the default k chunks for query and composes an answer.
// A retrieval failure degrades to the fallback answer.
func (s *AnswerService) Answer(ctx context.Context, query string) domain.Answer {
	logger.Section("Answer")

	chunks, err := s.retriever.Retrieve(ctx, query, 0)
	if err != nil {
		logger.Error("Retrieval failed: %v", err)
		return domain.Answer{Text: domain.FallbackAnswer, Sources: []domain.RetrievedChunk{}, Degraded: true}
	}

	return s.composer.Compose(ctx, query, chunks)
}
