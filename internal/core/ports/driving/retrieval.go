package driving

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// RetrieverService finds the chunks most relevant to a query.
type RetrieverService interface {
	// Retrieve returns up to k chunks ordered best first.
	// A k of zero or less uses the configured default.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}

// AnswerService answers questions from the indexed corpus.
type AnswerService interface {
	// Answer retrieves context for query and composes a grounded answer.
	// It never fails: model or index errors yield a degraded fallback answer.
	Answer(ctx context.Context, query string) domain.Answer
}
