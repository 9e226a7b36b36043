package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/udirag/internal/adapters/driven/dataset/file"
	"github.com/custodia-labs/udirag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/core/services"
)

// mockProvider hands out canned services.
type mockProvider struct {
	settings  *services.SettingsService
	datasets  *file.Store
	documents *memory.DocumentStore
	index     *mockIndex
	scraper   *mockScraper
	cleaner   *mockCleaner
	ingester  *mockIngester
	retriever *mockRetriever
	answers   *mockAnswers
	generator *mockGenerator
	auditor   *mockAuditor
	runner    *mockRunner
	closed    bool
}

func (m *mockProvider) Settings() driving.SettingsService { return m.settings }
func (m *mockProvider) ConfigPath() string                { return "/tmp/udirag/config.toml" }

func (m *mockProvider) WatchPrompts(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *mockProvider) Datasets() (driven.DatasetStore, error)   { return m.datasets, nil }
func (m *mockProvider) Documents() (driven.DocumentStore, error) { return m.documents, nil }

func (m *mockProvider) Index(_ context.Context) (driven.VectorIndex, error) {
	return m.index, nil
}

func (m *mockProvider) Scraper() (driving.ScrapeService, error) { return m.scraper, nil }
func (m *mockProvider) Cleaner() (driving.CleanService, error)  { return m.cleaner, nil }

func (m *mockProvider) Ingester(_ context.Context) (driving.IngestService, error) {
	return m.ingester, nil
}

func (m *mockProvider) Retriever(_ context.Context) (driving.RetrieverService, error) {
	return m.retriever, nil
}

func (m *mockProvider) Answerer(_ context.Context) (driving.AnswerService, error) {
	return m.answers, nil
}

func (m *mockProvider) Generator(_ context.Context) (driving.GeneratorService, error) {
	return m.generator, nil
}

func (m *mockProvider) Auditor(_ context.Context) (driving.AuditorService, error) {
	return m.auditor, nil
}

func (m *mockProvider) Runner(_ context.Context) (driving.RunnerService, error) {
	return m.runner, nil
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}

type mockIndex struct {
	exists bool
}

func (m *mockIndex) Rebuild(_ context.Context, _ []domain.Chunk) error { return nil }
func (m *mockIndex) Query(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return nil, nil
}
func (m *mockIndex) Exists(_ context.Context) (bool, error) { return m.exists, nil }
func (m *mockIndex) Count(_ context.Context) (int, error)   { return 0, nil }
func (m *mockIndex) Close() error                           { return nil }

type mockScraper struct {
	urls      []string
	stats     *domain.ScrapeStats
	lastInput []string
}

func (m *mockScraper) DiscoverURLs(_ context.Context) ([]string, error) { return m.urls, nil }

func (m *mockScraper) Scrape(_ context.Context, urls []string) (*domain.ScrapeStats, error) {
	m.lastInput = urls
	return m.stats, nil
}

type mockCleaner struct {
	stats *domain.CleanStats
}

func (m *mockCleaner) Clean(_ context.Context) (*domain.CleanStats, error) { return m.stats, nil }

type mockIngester struct {
	stats *domain.IngestStats
	err   error
}

func (m *mockIngester) Ingest(_ context.Context) (*domain.IngestStats, error) {
	return m.stats, m.err
}

type mockRetriever struct {
	results []domain.RetrievedChunk
	lastK   int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.lastK = k
	return m.results, nil
}

type mockAnswers struct {
	answer domain.Answer
}

func (m *mockAnswers) Answer(_ context.Context, _ string) domain.Answer { return m.answer }

type mockGenerator struct {
	items     []domain.QACandidate
	stats     *domain.GenerationStats
	lastCount int
}

func (m *mockGenerator) Generate(_ context.Context, n int) ([]domain.QACandidate, *domain.GenerationStats, error) {
	m.lastCount = n
	return m.items, m.stats, nil
}

type mockAuditor struct{}

// Audit keeps every candidate with a non-empty context.
func (m *mockAuditor) Audit(_ context.Context, candidates []domain.QACandidate) (*domain.AuditResult, error) {
	result := &domain.AuditResult{Stats: domain.AuditStats{Total: len(candidates)}}
	for _, c := range candidates {
		if c.ContextUsed == "" {
			result.Stats.RejectedShortContext++
			continue
		}
		result.Kept = append(result.Kept, c)
	}
	result.Stats.Kept = len(result.Kept)
	return result, nil
}

type mockRunner struct {
	lastItems []domain.QACandidate
}

// Run passes every item.
func (m *mockRunner) Run(_ context.Context, items []domain.QACandidate) (*domain.BenchmarkReport, error) {
	m.lastItems = items
	report := &domain.BenchmarkReport{RunID: "run-1", Model: "llama3", K: 3}
	for _, it := range items {
		report.Results = append(report.Results, domain.BenchmarkResult{
			Question:    it.Question,
			GroundTruth: it.GroundTruth,
			Answer:      it.GroundTruth,
			Verdict:     domain.VerdictPass,
		})
	}
	report.Score()
	return report, nil
}

// setupTestProvider installs a mock provider and returns it with the
// command output buffer.
func setupTestProvider(t *testing.T) (*mockProvider, *bytes.Buffer) {
	t.Helper()

	m := &mockProvider{
		settings:  services.NewSettingsService(memory.NewConfigStore(), nil, nil),
		datasets:  file.NewStore(t.TempDir()),
		documents: memory.NewDocumentStore(),
		index:     &mockIndex{},
		scraper:   &mockScraper{stats: &domain.ScrapeStats{}},
		cleaner:   &mockCleaner{stats: &domain.CleanStats{}},
		ingester:  &mockIngester{stats: &domain.IngestStats{}},
		retriever: &mockRetriever{},
		answers:   &mockAnswers{},
		generator: &mockGenerator{stats: &domain.GenerationStats{}},
		auditor:   &mockAuditor{},
		runner:    &mockRunner{},
	}

	resetFlags()
	oldProvider, oldFactory := provider, providerFactory
	provider, providerFactory = m, nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		provider, providerFactory = oldProvider, oldFactory
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return m, buf
}

// resetFlags clears flag variables left over from earlier commands.
func resetFlags() {
	scrapeLimit = 0
	askJSON, askSources = false, false
	retrieveK, retrieveRaw = 0, false
	generateSample, benchmarkLimit = 0, 0
	serveAddr = ""
}

// execute runs the root command with args.
func execute(args ...string) error {
	return executeContext(context.Background(), args...)
}

// executeContext runs the root command with args under ctx. cobra only
// hands the root context to subcommands that have none, so every command
// is given ctx first.
func executeContext(ctx context.Context, args ...string) error {
	setContexts(ctx, rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func setContexts(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContexts(ctx, sub)
	}
}
