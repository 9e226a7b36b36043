// Package vectortest provides a deterministic embedding service for tests.
package vectortest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*HashEmbedder)(nil)

// Dims is the vector size produced by HashEmbedder.
const Dims = 64

// HashEmbedder hashes lower-cased words into a bag-of-words vector. Texts
// sharing words get similar vectors and identical texts get identical ones.
type HashEmbedder struct {
	mu    sync.Mutex
	calls int

	// Err, when set, is returned by every call.
	Err error
}

// Embed returns the vector for text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text.
func (e *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, Dims)
		v[0] = 0.01
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(w, ".,!?")))
			v[1+h.Sum32()%(Dims-1)]++
		}
		out[i] = v
	}
	return out, nil
}

// Calls returns the number of EmbedBatch calls.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Fail makes later calls return domain.ErrServiceUnavailable.
func (e *HashEmbedder) Fail() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Err = domain.ErrServiceUnavailable
}

func (e *HashEmbedder) Dimensions() int              { return Dims }
func (e *HashEmbedder) ModelName() string            { return "hash" }
func (e *HashEmbedder) Ping(_ context.Context) error { return nil }
func (e *HashEmbedder) Close() error                 { return nil }
