package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService loads the corpus, chunks it and rebuilds the index.
type IngestService struct {
	corpus      driven.CorpusProvider
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	docStore    driven.DocumentStore
	index       driven.VectorIndex
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	corpus driven.CorpusProvider,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	index driven.VectorIndex,
) *IngestService {
	return &IngestService{
		corpus:      corpus,
		normalisers: normalisers,
		pipeline:    pipeline,
		docStore:    docStore,
		index:       index,
	}
}

// Ingest replaces stored documents, chunks and index records with the
// current corpus. Unreadable or empty files are skipped and counted.
// The index is rebuilt before the document store is replaced so a failed
// embedding run leaves both untouched.
func (s *IngestService) Ingest(ctx context.Context) (*domain.IngestStats, error) {
	logger.Section("Ingest")

	uris, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("corpus is empty: %w", domain.ErrNotFound)
	}
	logger.Info("Loaded %d corpus files", len(uris))

	stats := &domain.IngestStats{}
	seen := make(map[string]bool, len(uris))
	var docs []domain.Document
	var chunks []domain.Chunk

	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.load(ctx, uri)
		if err != nil {
			logger.Warn("Skipping %s: %v", uri, err)
			stats.Skipped++
			continue
		}
		if seen[doc.ID] {
			logger.Debug("Skipping %s: duplicate of %s", uri, doc.Origin)
			stats.Skipped++
			continue
		}
		seen[doc.ID] = true

		docChunks, err := s.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", uri, err)
		}

		docs = append(docs, *doc)
		chunks = append(chunks, docChunks...)
	}

	stats.Documents = len(docs)
	stats.Chunks = len(chunks)
	logger.Info("Created %d chunks from %d documents", stats.Chunks, stats.Documents)

	if len(chunks) == 0 {
		return stats, fmt.Errorf("no chunks produced: %w", domain.ErrNotFound)
	}

	if err := s.index.Rebuild(ctx, chunks); err != nil {
		return stats, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.docStore.ReplaceAll(ctx, docs, chunks); err != nil {
		return stats, fmt.Errorf("store documents: %w", err)
	}

	return stats, nil
}

var errEmptyDocument = errors.New("no text content")

func (s *IngestService) load(ctx context.Context, uri string) (*domain.Document, error) {
	raw, err := s.corpus.Read(ctx, uri)
	if err != nil {
		return nil, err
	}

	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Document.Content) == "" {
		return nil, errEmptyDocument
	}
	return &result.Document, nil
}
