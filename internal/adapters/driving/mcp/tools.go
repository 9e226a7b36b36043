package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the UDI documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Degraded bool           `json:"degraded,omitempty"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput identifies a chunk an answer was grounded on.
type SourceOutput struct {
	ChunkID string  `json:"chunk_id"`
	Origin  string  `json:"origin"`
	Score   float64 `json:"score"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Origin     string  `json:"origin"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

var errEmptyQuery = errors.New("query must not be empty")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about Norwegian immigration using only the indexed UDI documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the indexed UDI passages most similar to a query, best first",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation. Model failures come back as a
// degraded answer rather than a tool error.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, errEmptyQuery
	}

	answer := s.ports.Answer.Answer(ctx, question)

	output := AskOutput{
		Answer:   answer.Text,
		Degraded: answer.Degraded,
		Sources:  make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			ChunkID: src.Chunk.ID,
			Origin:  src.Chunk.Origin,
			Score:   src.Score,
		}
	}

	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, RetrieveOutput{}, errEmptyQuery
	}

	results, err := s.ports.Retriever.Retrieve(ctx, query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(results)),
		Count:  len(results),
	}
	for i := range results {
		output.Chunks[i] = chunkOutput(results[i])
	}

	return nil, output, nil
}

func chunkOutput(r domain.RetrievedChunk) ChunkOutput {
	return ChunkOutput{
		ChunkID:    r.Chunk.ID,
		DocumentID: r.Chunk.DocumentID,
		Origin:     r.Chunk.Origin,
		Position:   r.Chunk.Position,
		Score:      r.Score,
		Content:    r.Chunk.Content,
	}
}
