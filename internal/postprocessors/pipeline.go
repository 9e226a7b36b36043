// Package postprocessors turns normalised documents into chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Pipeline chains PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline creates a pipeline that runs processors in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs one document through all processors.
// The first processor receives nil chunks and creates them.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return chunks, nil
}

// ProcessAll chunks documents in order. The result keeps document order and,
// within a document, chunk position order.
func (p *Pipeline) ProcessAll(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := p.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", docs[i].Origin, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
