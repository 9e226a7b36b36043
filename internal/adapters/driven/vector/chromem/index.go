// Package chromem implements the vector index on chromem-go, persisted to a
// directory on disk.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/udirag/internal/adapters/driven/vector"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "udi_docs"

// Config configures the chromem index.
type Config struct {
	// Dir is the live index directory.
	Dir string

	// Collection is the chromem collection name.
	Collection string

	// Compress gzips persisted records.
	Compress bool

	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int

	// Concurrency bounds in-flight embedding requests during a rebuild.
	Concurrency int
}

// Index is a chromem-go backed vector index.
// Rebuilds write a fresh directory and swap it in, so queries always see
// either the old or the new index.
type Index struct {
	cfg      Config
	embedder driven.EmbeddingService

	buildMu sync.Mutex

	mu   sync.RWMutex
	coll *chromem.Collection
}

// New opens the index at cfg.Dir. A missing directory is not an error: the
// index reports Exists false until the first Rebuild.
func New(embedder driven.EmbeddingService, cfg Config) (*Index, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: index directory", domain.ErrConfigMissing)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	x := &Index{cfg: cfg, embedder: embedder}

	if _, err := os.Stat(cfg.Dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return x, nil
		}
		return nil, fmt.Errorf("stat index directory: %w", err)
	}

	coll, err := x.open(cfg.Dir)
	if err != nil {
		return nil, err
	}
	x.coll = coll
	return x, nil
}

// open loads a persisted database and returns its collection, or nil if the
// collection was never created.
func (x *Index) open(dir string) (*chromem.Collection, error) {
	db, err := chromem.NewPersistentDB(dir, x.cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", dir, err)
	}
	return db.GetCollection(x.cfg.Collection, x.embed), nil
}

// embed adapts the embedding service to chromem's embedding function.
func (x *Index) embed(ctx context.Context, text string) ([]float32, error) {
	return x.embedder.Embed(ctx, text)
}

// Rebuild embeds every chunk, writes them into a new directory and swaps it
// in place of the live one.
func (x *Index) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	logger.Section("Rebuilding vector index")
	vectors, err := vector.EmbedChunks(ctx, x.embedder, chunks, x.cfg.BatchSize, x.cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	stamp := time.Now().UnixNano()
	buildDir := fmt.Sprintf("%s.building-%d", x.cfg.Dir, stamp)
	if err := x.write(ctx, buildDir, chunks, vectors); err != nil {
		os.RemoveAll(buildDir)
		return fmt.Errorf("rebuild index: %w", err)
	}

	if err := x.swap(buildDir, fmt.Sprintf("%s.old-%d", x.cfg.Dir, stamp)); err != nil {
		os.RemoveAll(buildDir)
		return fmt.Errorf("rebuild index: %w", err)
	}

	logger.Info("vector index rebuilt with %d records", len(chunks))
	return nil
}

// write persists chunks and their vectors into a new database at dir.
func (x *Index) write(ctx context.Context, dir string, chunks []domain.Chunk, vectors [][]float32) error {
	db, err := chromem.NewPersistentDB(dir, x.cfg.Compress)
	if err != nil {
		return fmt.Errorf("create build database: %w", err)
	}
	coll, err := db.CreateCollection(x.cfg.Collection, nil, x.embed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  vector.ChunkMetadata(c),
			Embedding: vectors[i],
		}
	}

	concurrency := x.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = vector.DefaultConcurrency
	}
	if err := coll.AddDocuments(ctx, docs, concurrency); err != nil {
		return fmt.Errorf("add records: %w", err)
	}
	return nil
}

// swap moves the build directory into the live location and reloads it.
// On failure the previous live directory is restored.
func (x *Index) swap(buildDir, oldDir string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	hadLive := false
	if _, err := os.Stat(x.cfg.Dir); err == nil {
		if err := os.Rename(x.cfg.Dir, oldDir); err != nil {
			return fmt.Errorf("move live index aside: %w", err)
		}
		hadLive = true
	}

	if err := os.Rename(buildDir, x.cfg.Dir); err != nil {
		if hadLive {
			os.Rename(oldDir, x.cfg.Dir)
		}
		return fmt.Errorf("move new index live: %w", err)
	}

	coll, err := x.open(x.cfg.Dir)
	if err != nil || coll == nil {
		os.RemoveAll(x.cfg.Dir)
		if hadLive {
			os.Rename(oldDir, x.cfg.Dir)
		}
		if err == nil {
			err = errors.New("collection missing after swap")
		}
		return err
	}
	x.coll = coll

	if hadLive {
		if err := os.RemoveAll(oldDir); err != nil {
			logger.Warn("failed to remove old index %s: %v", oldDir, err)
		}
	}
	return nil
}

// live returns the current collection.
func (x *Index) live() *chromem.Collection {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.coll
}

// Query returns up to k chunks nearest to text, best first.
func (x *Index) Query(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error) {
	coll := x.live()
	if coll == nil {
		return nil, domain.ErrIndexNotFound
	}

	k = min(k, coll.Count())
	if k <= 0 {
		return nil, nil
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := coll.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(results))
	for _, r := range results {
		out = append(out, domain.RetrievedChunk{
			Chunk: vector.ChunkFromMetadata(r.ID, r.Content, r.Metadata),
			Score: float64(r.Similarity),
		})
	}
	return out, nil
}

// Exists reports whether an index has been built.
func (x *Index) Exists(_ context.Context) (bool, error) {
	return x.live() != nil, nil
}

// Count returns the number of records in the live index.
func (x *Index) Count(_ context.Context) (int, error) {
	coll := x.live()
	if coll == nil {
		return 0, nil
	}
	return coll.Count(), nil
}

// Close releases the in-process handle. Persisted data is kept.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.coll = nil
	return nil
}
