package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

func TestRequireProvider_NotConfigured(t *testing.T) {
	old := provider
	provider = nil
	defer func() { provider = old }()

	_, err := requireProvider()

	assert.ErrorIs(t, err, errNotConfigured)
}

func TestSitemapCmd_SavesURLs(t *testing.T) {
	m, buf := setupTestProvider(t)
	m.scraper.urls = []string{"https://www.udi.no/en/a", "https://www.udi.no/en/b"}

	require.NoError(t, execute("sitemap"))

	urls, err := m.datasets.LoadURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m.scraper.urls, urls)
	assert.Contains(t, buf.String(), "Found 2 matching URLs.")
}

func TestScrapeCmd_RequiresURLList(t *testing.T) {
	setupTestProvider(t)

	err := execute("scrape")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "udirag sitemap")
}

func TestScrapeCmd_AppliesLimit(t *testing.T) {
	m, buf := setupTestProvider(t)
	ctx := context.Background()
	require.NoError(t, m.datasets.SaveURLs(ctx, []string{"u1", "u2", "u3"}))
	m.scraper.stats = &domain.ScrapeStats{Requested: 2, Saved: 1, Skipped: 1}

	require.NoError(t, execute("scrape", "--limit", "2"))

	assert.Equal(t, []string{"u1", "u2"}, m.scraper.lastInput)
	assert.Contains(t, buf.String(), "Scraped 1 of 2 pages (1 already present, 0 failed).")
}

func TestCleanCmd_PrintsStats(t *testing.T) {
	m, buf := setupTestProvider(t)
	m.cleaner.stats = &domain.CleanStats{Checked: 5, Empty: 1, Foreign: 2, Kept: 2}

	require.NoError(t, execute("clean"))

	assert.Contains(t, buf.String(), "Foreign:    2")
	assert.Contains(t, buf.String(), "Kept:       2")
}

func TestIngestCmd(t *testing.T) {
	t.Run("prints stats", func(t *testing.T) {
		m, buf := setupTestProvider(t)
		m.ingester.stats = &domain.IngestStats{Documents: 3, Skipped: 1, Chunks: 12}

		require.NoError(t, execute("ingest"))

		assert.Contains(t, buf.String(), "Indexed 12 chunks from 3 documents (1 files skipped).")
	})

	t.Run("wraps failure", func(t *testing.T) {
		m, _ := setupTestProvider(t)
		m.ingester.err = domain.ErrNotFound

		err := execute("ingest")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAskCmd(t *testing.T) {
	answer := domain.Answer{
		Text: "You need a residence permit.",
		Sources: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ID: "c1", Origin: "https://www.udi.no/en/a"}, Score: 0.9},
			{Chunk: domain.Chunk{ID: "c2", Origin: "https://www.udi.no/en/a"}, Score: 0.8},
			{Chunk: domain.Chunk{ID: "c3", Origin: "https://www.udi.no/en/b"}, Score: 0.7},
		},
	}

	t.Run("text with sources", func(t *testing.T) {
		m, buf := setupTestProvider(t)
		m.answers.answer = answer

		require.NoError(t, execute("ask", "--sources", "Do I need a permit?"))

		out := buf.String()
		assert.Contains(t, out, "You need a residence permit.")
		assert.Contains(t, out, "  - https://www.udi.no/en/a\n  - https://www.udi.no/en/b")
	})

	t.Run("json", func(t *testing.T) {
		m, buf := setupTestProvider(t)
		m.answers.answer = answer

		require.NoError(t, execute("ask", "--json", "Do I need a permit?"))

		var got askOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, answer.Text, got.Answer)
		assert.Len(t, got.Sources, 2)
		assert.False(t, got.Degraded)
	})
}

func TestRetrieveCmd(t *testing.T) {
	m, buf := setupTestProvider(t)
	m.retriever.results = []domain.RetrievedChunk{
		{Chunk: domain.Chunk{Origin: "https://www.udi.no/en/a", Content: "Line one\nline two"}, Score: 0.91},
	}

	require.NoError(t, execute("retrieve", "-k", "5", "family immigration"))

	assert.Equal(t, 5, m.retriever.lastK)
	assert.Contains(t, buf.String(), "[1] https://www.udi.no/en/a (0.910)")
	assert.Contains(t, buf.String(), "Line one line two")
}

func TestRetrieveCmd_NoResults(t *testing.T) {
	setupTestProvider(t)

	require.NoError(t, execute("retrieve", "nothing"))
}

func TestBenchmarkFlow(t *testing.T) {
	m, buf := setupTestProvider(t)
	ctx := context.Background()
	m.generator.items = []domain.QACandidate{
		{Question: "Q1", GroundTruth: "A1", ContextUsed: "context one", SourceChunkID: "c1"},
		{Question: "Q2", GroundTruth: "A2", ContextUsed: "", SourceChunkID: "c2"},
		{Question: "Q3", GroundTruth: "A3", ContextUsed: "context three", SourceChunkID: "c3"},
	}
	m.generator.stats = &domain.GenerationStats{Sampled: 3, Pairs: 3}

	require.NoError(t, execute("generate", "--sample", "3"))
	assert.Equal(t, 3, m.generator.lastCount)

	resetFlags()
	require.NoError(t, execute("audit"))
	verified, err := m.datasets.LoadVerified(ctx)
	require.NoError(t, err)
	assert.Len(t, verified, 2)
	assert.Contains(t, buf.String(), "Context too short:    1")

	resetFlags()
	require.NoError(t, execute("benchmark", "--limit", "1"))
	assert.Len(t, m.runner.lastItems, 1)
	assert.Contains(t, buf.String(), "[1] PASS Q1")
	assert.Contains(t, buf.String(), "      Expected: A1\n      Got:      A1\n")
	assert.Contains(t, buf.String(), "Accuracy: 100.0% (1/1) with llama3, k=3")
}

func TestAuditCmd_RequiresDataset(t *testing.T) {
	setupTestProvider(t)

	err := execute("audit")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "udirag generate")
}

func TestServeCmd_RequiresIndex(t *testing.T) {
	setupTestProvider(t)

	err := execute("serve")

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	m, buf := setupTestProvider(t)
	m.index.exists = true

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := executeContext(ctx, "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Serving chat completions on 127.0.0.1:0")
}

func TestServeCmd_StopsOnCancelAfterEarlierRun(t *testing.T) {
	m, _ := setupTestProvider(t)
	m.index.exists = true

	first, cancelFirst := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelFirst()
	require.NoError(t, executeContext(first, "serve", "--addr", "127.0.0.1:0"))

	resetFlags()
	second, cancelSecond := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelSecond()
	done := make(chan error, 1)
	go func() { done <- executeContext(second, "serve", "--addr", "127.0.0.1:0") }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after its context was cancelled")
	}
}

func TestDocumentCmds(t *testing.T) {
	m, buf := setupTestProvider(t)
	ctx := context.Background()
	doc := domain.Document{
		ID:      "doc-1",
		Origin:  "https://www.udi.no/en/a",
		Title:   "Work permits",
		Content: "Skilled workers can apply.",
	}
	chunk := domain.Chunk{ID: "doc-1-0", DocumentID: "doc-1", Origin: doc.Origin, Content: doc.Content}
	require.NoError(t, m.documents.ReplaceAll(ctx, []domain.Document{doc}, []domain.Chunk{chunk}))

	require.NoError(t, execute("document", "list"))
	assert.Contains(t, buf.String(), "Total: 1 documents, 1 chunks")

	buf.Reset()
	require.NoError(t, execute("document", "get", "doc-1"))
	assert.Contains(t, buf.String(), "Work permits")
	assert.Contains(t, buf.String(), "Chunks:   1")

	buf.Reset()
	require.NoError(t, execute("document", "content", "doc-1"))
	assert.Contains(t, buf.String(), "Skilled workers can apply.")

	buf.Reset()
	require.NoError(t, execute("document", "chunks", "doc-1"))
	assert.Contains(t, buf.String(), "[0] doc-1-0 (overlap 0)")
}

func TestDocumentGet_NotFound(t *testing.T) {
	setupTestProvider(t)

	err := execute("document", "get", "missing")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSettingsCmds(t *testing.T) {
	m, buf := setupTestProvider(t)

	require.NoError(t, execute("settings", "set", "retrieval.k", "7"))
	s, err := m.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, s.Retrieval.K)

	buf.Reset()
	require.NoError(t, execute("settings", "show"))
	out := buf.String()
	assert.Contains(t, out, "Retrieval k: 7")
	assert.Contains(t, out, "[LLM judge]")
	assert.Contains(t, out, "Config file: /tmp/udirag/config.toml")

	buf.Reset()
	require.NoError(t, execute("settings", "keys"))
	assert.Contains(t, buf.String(), "retrieval.k")
}

func TestSettingsSetKey_RejectsLocalProvider(t *testing.T) {
	setupTestProvider(t)

	err := execute("settings", "set-key", "ollama")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSourceOrigins(t *testing.T) {
	got := sourceOrigins([]domain.RetrievedChunk{
		{Chunk: domain.Chunk{Origin: "b"}},
		{Chunk: domain.Chunk{Origin: ""}},
		{Chunk: domain.Chunk{Origin: "a"}},
		{Chunk: domain.Chunk{Origin: "b"}},
	})

	assert.Equal(t, []string{"b", "a"}, got)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("a\nb", 10))
	assert.Equal(t, "ååå...", snippet("åååå", 3))
}
