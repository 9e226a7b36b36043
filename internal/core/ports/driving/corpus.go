package driving

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// ScrapeService builds the corpus from a website.
type ScrapeService interface {
	// DiscoverURLs reads the sitemap and returns page URLs matching the filter.
	DiscoverURLs(ctx context.Context) ([]string, error)

	// Scrape fetches pages and writes their text into the corpus.
	Scrape(ctx context.Context, urls []string) (*domain.ScrapeStats, error)
}

// CleanService removes unusable files from the corpus.
type CleanService interface {
	// Clean deletes empty files and files not in the configured language.
	Clean(ctx context.Context) (*domain.CleanStats, error)
}
