package driving

import (
	"context"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// GeneratorService synthesises benchmark questions from stored chunks.
type GeneratorService interface {
	// Generate samples sampleSize chunks and asks the model for QA pairs.
	// A sampleSize of zero or less uses the configured default.
	Generate(ctx context.Context, sampleSize int) ([]domain.QACandidate, *domain.GenerationStats, error)
}

// AuditorService filters generated questions down to grounded ones.
type AuditorService interface {
	// Audit keeps candidates whose answer is supported by their context.
	Audit(ctx context.Context, candidates []domain.QACandidate) (*domain.AuditResult, error)
}

// RunnerService scores the answering pipeline against a verified dataset.
type RunnerService interface {
	// Run answers every item and grades it against the ground truth.
	Run(ctx context.Context, items []domain.QACandidate) (*domain.BenchmarkReport, error)
}
