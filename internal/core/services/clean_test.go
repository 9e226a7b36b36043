package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

func TestCleanService_Clean(t *testing.T) {
	corpus := newMockCorpus(map[string]string{
		"doc_0.txt": "Students may work part-time.",
		"doc_1.txt": "   ",
		"doc_2.txt": "Søknad om oppholdstillatelse.",
		"doc_3.txt": "???",
		"doc_4.txt": "Family immigration.",
		"doc_5.txt": "unreadable",
	})
	corpus.readErr["doc_5.txt"] = errors.New("permission denied")

	stats, err := NewCleanService(corpus, &mockNormalisers{}, mockDetector{}, "EN").Clean(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.CleanStats{Checked: 6, Empty: 1, Undetected: 1, Foreign: 1, Kept: 2}, *stats)
	assert.Equal(t, 3, stats.Removed())
	assert.ElementsMatch(t, []string{"doc_1.txt", "doc_2.txt", "doc_3.txt"}, corpus.removed)
	assert.Contains(t, corpus.files, "doc_5.txt")
}

func TestCleanService_RemoveFailureKeepsFile(t *testing.T) {
	corpus := newMockCorpus(map[string]string{"doc_0.txt": ""})
	corpus.removeErr = errors.New("read-only")

	stats, err := NewCleanService(corpus, &mockNormalisers{}, mockDetector{}, "").Clean(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Empty)
	assert.Equal(t, 1, stats.Kept)
}
