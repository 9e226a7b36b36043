package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// DefaultK is used when neither the caller nor the settings give a k.
const DefaultK = 4

// RetrieverService returns the chunks nearest to a query.
// There is no reranking: results are in index order.
type RetrieverService struct {
	index    driven.VectorIndex
	settings domain.RetrievalSettings
}

// NewRetrieverService creates a new retriever.
func NewRetrieverService(index driven.VectorIndex, settings domain.RetrievalSettings) *RetrieverService {
	if settings.K <= 0 {
		settings.K = DefaultK
	}
	return &RetrieverService{index: index, settings: settings}
}

// DefaultK returns the configured k.
func (s *RetrieverService) DefaultK() int {
	return s.settings.K
}

// Retrieve returns up to k chunks ordered best first.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievedChunk{}, nil
	}
	if k <= 0 {
		k = s.settings.K
	}

	fetch := k
	if s.settings.DedupeBySource {
		fetch = k * 2
	}

	logger.Debug("Retrieving k=%d for %q", k, query)
	results, err := s.index.Query(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	if s.settings.DedupeBySource {
		results = dedupeByOrigin(results)
	}
	if len(results) > k {
		results = results[:k]
	}

	for i, r := range results {
		logger.Debug("  %d. %.4f %s", i+1, r.Score, r.Chunk.Origin)
	}
	return results, nil
}

// dedupeByOrigin keeps the best-ranked chunk per origin.
func dedupeByOrigin(results []domain.RetrievedChunk) []domain.RetrievedChunk {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		if seen[r.Chunk.Origin] {
			continue
		}
		seen[r.Chunk.Origin] = true
		out = append(out, r)
	}
	return out
}
