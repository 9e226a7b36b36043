package vector

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Batch defaults.
const (
	DefaultBatchSize   = 100
	DefaultConcurrency = 4
)

// EmbedChunks embeds chunk texts in batches of batchSize, running at most
// concurrency batches at once. The result has one vector per chunk in chunk
// order. Any failure aborts the remaining batches and is reported wrapping
// domain.ErrServiceUnavailable.
func EmbedChunks(
	ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk, batchSize, concurrency int,
) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	batches := (len(chunks) + batchSize - 1) / batchSize
	for b := 0; b < batches; b++ {
		if gctx.Err() != nil {
			break
		}
		start := b * batchSize
		end := min(start+batchSize, len(chunks))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Content)
			}
			vecs, err := embedder.EmbedBatch(gctx, texts)
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("%w: got %d embeddings for %d texts",
					domain.ErrServiceUnavailable, len(vecs), len(texts))
			}
			if err != nil {
				return fmt.Errorf("embed batch %d/%d: %w", b+1, batches, err)
			}
			copy(vectors[start:end], vecs)
			logger.Debug("embedded batch %d/%d (%d chunks)", b+1, batches, len(texts))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// ChunkMetadata flattens chunk provenance into string metadata.
func ChunkMetadata(c domain.Chunk) map[string]string {
	return map[string]string{
		"document_id": c.DocumentID,
		"origin":      c.Origin,
		"position":    fmt.Sprint(c.Position),
		"overlap":     fmt.Sprint(c.Overlap),
	}
}

// ChunkFromMetadata rebuilds a chunk from a stored record.
func ChunkFromMetadata(id, content string, meta map[string]string) domain.Chunk {
	position, _ := strconv.Atoi(meta["position"])
	overlap, _ := strconv.Atoi(meta["overlap"])
	return domain.Chunk{
		ID:         id,
		DocumentID: meta["document_id"],
		Origin:     meta["origin"],
		Content:    content,
		Position:   position,
		Overlap:    overlap,
	}
}
