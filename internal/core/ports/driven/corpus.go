package driven

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// CorpusProvider gives access to the corpus directory.
type CorpusProvider interface {
	// List returns the URIs of all corpus files, sorted.
	List(ctx context.Context) ([]string, error)

	// Read loads one corpus file as a raw document.
	Read(ctx context.Context, uri string) (*domain.RawDocument, error)

	// Exists reports whether a scraped page with the given index is present.
	Exists(index int) bool

	// WritePage stores a scraped page as "Source: <origin>" followed by the
	// body text, under the given index.
	WritePage(ctx context.Context, index int, origin, text string) error

	// Remove deletes a corpus file.
	Remove(ctx context.Context, uri string) error
}
