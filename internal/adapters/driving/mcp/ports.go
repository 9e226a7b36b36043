package mcp

import (
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer composes grounded answers.
	Answer driving.AnswerService

	// Retriever finds relevant chunks.
	Retriever driving.RetrieverService

	// Documents exposes ingested documents as resources. Optional.
	Documents driven.DocumentStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	return nil
}
