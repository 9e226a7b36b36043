package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func fixture() ([]domain.Document, []domain.Chunk) {
	now := time.Now().UTC().Truncate(time.Second)
	docs := []domain.Document{
		{
			ID: "doc-b", Origin: "https://www.udi.no/en/b", Title: "Work", Content: "work text",
			Metadata: map[string]any{"path": "doc_1.txt"}, CreatedAt: now,
		},
		{ID: "doc-a", Origin: "https://www.udi.no/en/a", Title: "Study", Content: "study text", CreatedAt: now},
	}
	chunks := []domain.Chunk{
		{ID: "b1", DocumentID: "doc-b", Origin: docs[0].Origin, Content: "work second", Position: 1, Overlap: 4},
		{ID: "b0", DocumentID: "doc-b", Origin: docs[0].Origin, Content: "work first", Position: 0},
		{ID: "a0", DocumentID: "doc-a", Origin: docs[1].Origin, Content: "study first", Position: 0},
	}
	return docs, chunks
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(dir, DBFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestDocumentStore_ReplaceAll(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()

	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	doc, err := ds.GetDocument(ctx, "doc-b")
	require.NoError(t, err)
	assert.Equal(t, "Work", doc.Title)
	assert.Equal(t, "https://www.udi.no/en/b", doc.Origin)
	assert.Equal(t, "doc_1.txt", doc.Metadata["path"])
	assert.True(t, doc.CreatedAt.Equal(docs[0].CreatedAt))

	listed, err := ds.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "doc-a", listed[0].ID)

	n, err := ds.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentStore_ListChunksOrder(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()
	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	all, err := ds.ListChunks(ctx)
	require.NoError(t, err)

	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"a0", "b0", "b1"}, ids)
	assert.Equal(t, 4, all[2].Overlap)
}

func TestDocumentStore_ReplaceAllDiscardsPrevious(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()
	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	require.NoError(t, ds.ReplaceAll(ctx, docs[1:], chunks[2:]))

	_, err := ds.GetDocument(ctx, "doc-b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ds.GetChunk(ctx, "b0")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := ds.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDocumentStore_ReplaceAllRollsBack(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()
	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	orphan := []domain.Chunk{{ID: "x", DocumentID: "missing", Content: "x"}}
	err := ds.ReplaceAll(ctx, docs[:1], orphan)
	require.Error(t, err, "foreign key violation")

	n, err := ds.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "previous contents survive a failed replace")
}

func TestDocumentStore_GetChunks(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()
	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	got, err := ds.GetChunks(ctx, "doc-b")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b0", got[0].ID)
	assert.Equal(t, "b1", got[1].ID)

	none, err := ds.GetChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentStore_GetChunk(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	docs, chunks := fixture()
	require.NoError(t, ds.ReplaceAll(ctx, docs, chunks))

	chunk, err := ds.GetChunk(ctx, "a0")
	require.NoError(t, err)
	assert.Equal(t, "study first", chunk.Content)
	assert.Equal(t, "doc-a", chunk.DocumentID)
}

func TestDocumentStore_EmptyStore(t *testing.T) {
	ds := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	_, err := ds.GetDocument(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := ds.ListChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
