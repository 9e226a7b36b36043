package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// ReplaceAll discards every stored document and chunk and stores the given ones.
func (s *DocumentStore) ReplaceAll(_ context.Context, docs []domain.Document, chunks []domain.Chunk) error {
	documents := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		documents[doc.ID] = doc
	}
	byDoc := make(map[string][]domain.Chunk, len(docs))
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}
	for id := range byDoc {
		sortByPosition(byDoc[id])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = documents
	s.chunks = byDoc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents ordered by origin.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedDocuments(), nil
}

// sortedDocuments returns documents by origin. Caller holds the lock.
func (s *DocumentStore) sortedDocuments() []domain.Document {
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Origin != result[j].Origin {
			return result[i].Origin < result[j].Origin
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	return append([]domain.Chunk(nil), chunks...), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ListChunks returns every chunk ordered by document origin and position.
func (s *DocumentStore) ListChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, doc := range s.sortedDocuments() {
		result = append(result, s.chunks[doc.ID]...)
	}
	return result, nil
}

// CountChunks returns the number of stored chunks.
func (s *DocumentStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunks := range s.chunks {
		n += len(chunks)
	}
	return n, nil
}

func sortByPosition(chunks []domain.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
}
