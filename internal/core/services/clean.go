package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure CleanService implements the interface.
var _ driving.CleanService = (*CleanService)(nil)

// CleanService deletes corpus files that are empty, whose language cannot
// be detected, or that are not in the wanted language.
type CleanService struct {
	corpus      driven.CorpusProvider
	normalisers driven.NormaliserRegistry
	detector    driven.LanguageDetector
	language    string
}

// NewCleanService creates a new clean service. language is an ISO 639-1 code.
func NewCleanService(
	corpus driven.CorpusProvider,
	normalisers driven.NormaliserRegistry,
	detector driven.LanguageDetector,
	language string,
) *CleanService {
	if language == "" {
		language = "en"
	}
	return &CleanService{
		corpus:      corpus,
		normalisers: normalisers,
		detector:    detector,
		language:    strings.ToLower(language),
	}
}

// Clean checks every corpus file. Files that cannot be read are logged and
// left in place.
func (s *CleanService) Clean(ctx context.Context) (*domain.CleanStats, error) {
	logger.Section("Clean")

	uris, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	stats := &domain.CleanStats{}
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Checked++

		text, err := s.text(ctx, uri)
		if err != nil {
			logger.Warn("Error processing %s: %v", uri, err)
			continue
		}

		var counter *int
		switch lang, reliable := s.detector.Detect(text); {
		case text == "":
			logger.Info("Deleting empty file: %s", uri)
			counter = &stats.Empty
		case !reliable:
			logger.Info("Could not detect language: %s", uri)
			counter = &stats.Undetected
		case lang != s.language:
			logger.Info("Deleting %s file: %s", strings.ToUpper(lang), uri)
			counter = &stats.Foreign
		default:
			stats.Kept++
			continue
		}

		if err := s.corpus.Remove(ctx, uri); err != nil {
			logger.Warn("Could not delete %s: %v", uri, err)
			stats.Kept++
			continue
		}
		*counter++
	}

	return stats, nil
}

func (s *CleanService) text(ctx context.Context, uri string) (string, error) {
	raw, err := s.corpus.Read(ctx, uri)
	if err != nil {
		return "", err
	}
	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Document.Content), nil
}
