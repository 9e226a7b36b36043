package driven

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// VectorIndex stores one embedding record per chunk and answers
// nearest-neighbour queries by cosine similarity.
type VectorIndex interface {
	// Rebuild replaces the whole index with records for chunks.
	// Readers never observe a partially built index: the new index becomes
	// visible atomically, and on failure the previous index stays live.
	Rebuild(ctx context.Context, chunks []domain.Chunk) error

	// Query embeds text and returns up to k nearest chunks, best first.
	// Returns domain.ErrIndexNotFound if the index was never built.
	Query(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error)

	// Exists reports whether a built index is available.
	Exists(ctx context.Context) (bool, error)

	// Count returns the number of records in the live index.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
