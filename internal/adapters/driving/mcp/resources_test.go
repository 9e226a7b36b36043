package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/udirag/internal/core/domain"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		kind string
		want string
	}{
		{"document", "udirag://documents/doc-1", "documents/", "doc-1"},
		{"chunk", "udirag://chunks/c-9", "chunks/", "c-9"},
		{"wrong kind", "udirag://chunks/c-9", "documents/", ""},
		{"wrong scheme", "other://documents/doc-1", "documents/", ""},
		{"nested path", "udirag://documents/a/b", "documents/", ""},
		{"empty id", "udirag://documents/", "documents/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractID(tt.uri, tt.kind))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func newResourceServer(t *testing.T) *Server {
	t.Helper()

	store := memory.NewDocumentStore()
	docs := []domain.Document{{
		ID: "doc-1", Origin: "https://www.udi.no/en/work", Title: "Work", Content: "Full page text",
	}}
	chunks := []domain.Chunk{{
		ID: "c-1", DocumentID: "doc-1", Origin: "https://www.udi.no/en/work", Content: "Chunk text",
	}}
	require.NoError(t, store.ReplaceAll(context.Background(), docs, chunks))

	server, err := NewServer(&Ports{
		Answer:    &mockAnswerService{},
		Retriever: &mockRetrieverService{},
		Documents: store,
	})
	require.NoError(t, err)
	return server
}

func TestServer_handleDocumentsResource(t *testing.T) {
	server := newResourceServer(t)

	result, err := server.handleDocumentsResource(context.Background(), makeReadResourceRequest("udirag://documents"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"id": "doc-1"`)
	assert.Contains(t, result.Contents[0].Text, "https://www.udi.no/en/work")
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	server := newResourceServer(t)
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("udirag://documents/doc-1"))

		require.NoError(t, err)
		assert.Equal(t, "Full page text", result.Contents[0].Text)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("udirag://documents/missing"))

		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("udirag://documents/"))

		assert.Error(t, err)
	})
}

func TestServer_handleChunkResource(t *testing.T) {
	server := newResourceServer(t)
	ctx := context.Background()

	result, err := server.handleChunkResource(ctx, makeReadResourceRequest("udirag://chunks/c-1"))
	require.NoError(t, err)
	assert.Equal(t, "Chunk text", result.Contents[0].Text)

	_, err = server.handleChunkResource(ctx, makeReadResourceRequest("udirag://chunks/nope"))
	assert.Error(t, err)
}
