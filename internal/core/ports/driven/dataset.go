package driven

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// DatasetStore persists pipeline artifacts: the scraper URL list and the
// benchmark datasets and reports.
type DatasetStore interface {
	// SaveCandidates writes the generated, unaudited dataset.
	SaveCandidates(ctx context.Context, items []domain.QACandidate) error

	// LoadCandidates reads the generated dataset.
	LoadCandidates(ctx context.Context) ([]domain.QACandidate, error)

	// SaveVerified writes the audited dataset.
	SaveVerified(ctx context.Context, items []domain.QACandidate) error

	// LoadVerified reads the audited dataset.
	LoadVerified(ctx context.Context) ([]domain.QACandidate, error)

	// SaveReport writes a benchmark report.
	SaveReport(ctx context.Context, report *domain.BenchmarkReport) error

	// SaveURLs writes the scraper's URL list, one per line.
	SaveURLs(ctx context.Context, urls []string) error

	// LoadURLs reads the scraper's URL list.
	LoadURLs(ctx context.Context) ([]string, error)
}
