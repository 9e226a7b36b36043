package driving

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// IngestService loads the corpus, chunks it and rebuilds the vector index.
type IngestService interface {
	// Ingest replaces stored documents, chunks and index records with the
	// current contents of the corpus directory.
	Ingest(ctx context.Context) (*domain.IngestStats, error)
}
