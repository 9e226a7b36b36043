package driven

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// DocumentStore persists ingested documents and their chunks.
type DocumentStore interface {
	// ReplaceAll atomically replaces every stored document and chunk.
	// Ingestion is destructive: nothing from a previous run survives.
	ReplaceAll(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by origin.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListChunks returns every chunk ordered by document origin and position.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
