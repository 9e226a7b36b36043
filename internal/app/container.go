// Package app is the composition root. Container builds every adapter and
// service from the effective settings and hands them to the driving
// adapters. Expensive dependencies (model clients, the vector index, the
// document database) are created on first use, so commands that do not
// need them never require their credentials.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/udirag/internal/adapters/driven/ai"
	"github.com/custodia-labs/udirag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/udirag/internal/adapters/driven/config/file"
	datasetfile "github.com/custodia-labs/udirag/internal/adapters/driven/dataset/file"
	"github.com/custodia-labs/udirag/internal/adapters/driven/langdetect"
	"github.com/custodia-labs/udirag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/udirag/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/udirag/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/udirag/internal/connectors/filesystem"
	"github.com/custodia-labs/udirag/internal/connectors/web"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/core/services"
	"github.com/custodia-labs/udirag/internal/logger"
	"github.com/custodia-labs/udirag/internal/normalisers"
	"github.com/custodia-labs/udirag/internal/normalisers/html"
	"github.com/custodia-labs/udirag/internal/normalisers/markdown"
	"github.com/custodia-labs/udirag/internal/normalisers/pdf"
	"github.com/custodia-labs/udirag/internal/normalisers/plaintext"
	"github.com/custodia-labs/udirag/internal/postprocessors"
)

// Options configures a Container.
type Options struct {
	// ConfigDir holds config.toml and the prompts directory.
	// Empty means ~/.udirag.
	ConfigDir string

	// EnvFile is the dotenv file overlaid on the environment.
	// Empty means .env in the working directory.
	EnvFile string
}

// Container owns the application's adapters and services.
type Container struct {
	configStore *file.ConfigStore
	prompts     *file.PromptStore
	settingsSvc *services.SettingsService

	mu          sync.Mutex
	settings    *domain.AppSettings
	normalisers *normalisers.Registry
	store       *sqlite.Store
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	llms        map[domain.LLMRole]driven.LLMService
	modelPacer  *web.Pacer
	retriever   *services.RetrieverService
	answers     *services.AnswerService
}

// New creates a container. Only the config and prompt stores are opened.
func New(opts Options) (*Container, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompt store: %w", err)
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = env.DefaultEnvFile
	}
	overlay, err := env.New(envFile)
	if err != nil {
		return nil, err
	}

	return &Container{
		configStore: configStore,
		prompts:     prompts,
		settingsSvc: services.NewSettingsService(configStore, overlay, ai.NewConfigValidator()),
		llms:        make(map[domain.LLMRole]driven.LLMService),
	}, nil
}

// Settings returns the settings service.
func (c *Container) Settings() driving.SettingsService {
	return c.settingsSvc
}

// ConfigPath returns the config file location.
func (c *Container) ConfigPath() string {
	return c.configStore.Path()
}

// WatchPrompts reloads prompt templates on change until ctx is done.
func (c *Container) WatchPrompts(ctx context.Context) error {
	return c.prompts.Watch(ctx)
}

// Datasets returns the benchmark artifact store.
func (c *Container) Datasets() (driven.DatasetStore, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	return datasetfile.NewStore(s.Paths.DataDir), nil
}

// Scraper returns the sitemap and page scraper.
func (c *Container) Scraper() (driving.ScrapeService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}

	pacer := web.NewPacer(s.Pacing.ScrapeInterval)
	fetcher := web.NewFetcher(web.Config{UserAgent: s.Scrape.UserAgent, Pacer: pacer})
	return services.NewScrapeService(
		fetcher, c.normaliserRegistry(), filesystem.New(s.Paths.CorpusDir), pacer, s.Scrape,
	), nil
}

// Cleaner returns the corpus cleaner.
func (c *Container) Cleaner() (driving.CleanService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	return services.NewCleanService(
		filesystem.New(s.Paths.CorpusDir), c.normaliserRegistry(), langdetect.New(), s.CleanLanguage,
	), nil
}

// Ingester returns the ingestion service.
func (c *Container) Ingester(ctx context.Context) (driving.IngestService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, s.Pipeline)
	if err != nil {
		return nil, err
	}

	docs, err := c.Documents()
	if err != nil {
		return nil, err
	}
	index, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}

	return services.NewIngestService(
		filesystem.New(s.Paths.CorpusDir), c.normaliserRegistry(), pipeline, docs, index,
	), nil
}

// Retriever returns the retrieval service.
func (c *Container) Retriever(ctx context.Context) (driving.RetrieverService, error) {
	return c.retrieverService(ctx)
}

// Answerer returns the answer service used by ask, serve and the benchmark.
func (c *Container) Answerer(ctx context.Context) (driving.AnswerService, error) {
	c.mu.Lock()
	if c.answers != nil {
		defer c.mu.Unlock()
		return c.answers, nil
	}
	c.mu.Unlock()

	retriever, err := c.retrieverService(ctx)
	if err != nil {
		return nil, err
	}
	llms, err := c.roleLLMs(domain.LLMRoleAnswer)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answers == nil {
		composer := services.NewComposer(llms[domain.LLMRoleAnswer], c.prompts)
		c.answers = services.NewAnswerService(retriever, composer)
	}
	return c.answers, nil
}

// Generator returns the benchmark generator.
func (c *Container) Generator(_ context.Context) (driving.GeneratorService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	docs, err := c.Documents()
	if err != nil {
		return nil, err
	}
	llms, err := c.roleLLMs(domain.LLMRoleGenerator)
	if err != nil {
		return nil, err
	}
	return services.NewGeneratorService(
		docs, llms[domain.LLMRoleGenerator], c.prompts, c.pacer(s), s.Benchmark, s.Concurrency,
	), nil
}

// Auditor returns the dataset auditor.
func (c *Container) Auditor(_ context.Context) (driving.AuditorService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	llms, err := c.roleLLMs(domain.LLMRoleAuditor)
	if err != nil {
		return nil, err
	}
	return services.NewAuditorService(
		llms[domain.LLMRoleAuditor], c.prompts, c.pacer(s), s.Benchmark, s.Concurrency,
	), nil
}

// Runner returns the benchmark runner.
func (c *Container) Runner(ctx context.Context) (driving.RunnerService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	answers, err := c.Answerer(ctx)
	if err != nil {
		return nil, err
	}
	llms, err := c.roleLLMs(domain.LLMRoleJudge)
	if err != nil {
		return nil, err
	}
	return services.NewRunnerService(
		answers, llms[domain.LLMRoleJudge], c.prompts, c.pacer(s),
		s.LLMFor(domain.LLMRoleAnswer).Model, s.Retrieval.K, s.Concurrency,
	), nil
}

// Documents returns the SQLite document store, opening it on first use.
func (c *Container) Documents() (driven.DocumentStore, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		store, err := sqlite.NewStore(s.Paths.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open document store: %w", err)
		}
		c.store = store
	}
	return c.store.DocumentStore(), nil
}

// Index returns the configured vector index, creating the embedding client
// on first use.
func (c *Container) Index(ctx context.Context) (driven.VectorIndex, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		return c.index, nil
	}

	if err := c.settingsSvc.Validate(); err != nil {
		return nil, err
	}
	if c.embedder == nil {
		embedder, err := ai.CreateEmbeddingService(&s.Embedding)
		if err != nil {
			return nil, fmt.Errorf("embedding model: %w", err)
		}
		c.embedder = ai.WithRetryEmbedding(embedder, ai.RetryPolicy{
			Attempts:  s.Retry.Attempts,
			BaseDelay: s.Retry.BaseDelay,
		})
	}

	switch s.Vector.Backend {
	case domain.VectorBackendPgvector:
		index, err := pgvector.New(ctx, c.embedder, pgvector.Config{
			DSN:         s.Vector.DSN,
			Table:       s.Vector.Collection,
			BatchSize:   s.Embedding.BatchSize,
			Concurrency: s.Concurrency,
		})
		if err != nil {
			return nil, err
		}
		c.index = index
	default:
		index, err := chromem.New(c.embedder, chromem.Config{
			Dir:         s.Paths.IndexDir,
			Collection:  s.Vector.Collection,
			Compress:    s.Vector.Compress,
			BatchSize:   s.Embedding.BatchSize,
			Concurrency: s.Concurrency,
		})
		if err != nil {
			return nil, err
		}
		c.index = index
	}
	logger.Debug("Vector index: %s (%s)", s.Vector.Backend, s.Embedding.Model)
	return c.index, nil
}

// Close releases every opened resource.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.index != nil {
		errs = append(errs, c.index.Close())
		c.index = nil
	}
	if c.embedder != nil {
		errs = append(errs, c.embedder.Close())
		c.embedder = nil
	}
	closed := make(map[driven.LLMService]bool)
	for role, llm := range c.llms {
		if !closed[llm] {
			errs = append(errs, llm.Close())
			closed[llm] = true
		}
		delete(c.llms, role)
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	c.retriever = nil
	c.answers = nil
	return errors.Join(errs...)
}

// effective loads the settings once per container.
func (c *Container) effective() (*domain.AppSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings == nil {
		s, err := c.settingsSvc.Get()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		c.settings = s
	}
	return c.settings, nil
}

func (c *Container) retrieverService(ctx context.Context) (*services.RetrieverService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	index, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retriever == nil {
		c.retriever = services.NewRetrieverService(index, s.Retrieval)
	}
	return c.retriever, nil
}

// roleLLMs returns model clients for roles, reusing clients already created
// for an identical configuration.
func (c *Container) roleLLMs(roles ...domain.LLMRole) (map[domain.LLMRole]driven.LLMService, error) {
	s, err := c.effective()
	if err != nil {
		return nil, err
	}
	if err := c.settingsSvc.Validate(roles...); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []domain.LLMRole
	for _, role := range roles {
		if _, ok := c.llms[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		created, err := ai.CreateRoleLLMs(s, missing...)
		if err != nil {
			return nil, err
		}
		for role, llm := range created {
			c.llms[role] = c.reuse(s, role, llm)
		}
	}

	out := make(map[domain.LLMRole]driven.LLMService, len(roles))
	for _, role := range roles {
		out[role] = c.llms[role]
	}
	return out, nil
}

// reuse returns an existing client for role's configuration, closing the
// fresh duplicate. Caller holds c.mu.
func (c *Container) reuse(s *domain.AppSettings, role domain.LLMRole, fresh driven.LLMService) driven.LLMService {
	cfg := s.LLMFor(role)
	for other, llm := range c.llms {
		if other != role && s.LLMFor(other) == cfg {
			if llm != fresh {
				fresh.Close()
			}
			return llm
		}
	}
	return fresh
}

// pacer returns the shared model-call pacer.
func (c *Container) pacer(s *domain.AppSettings) driven.Pacer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modelPacer == nil {
		c.modelPacer = web.NewPacer(s.Pacing.ModelInterval)
	}
	return c.modelPacer
}

func (c *Container) normaliserRegistry() *normalisers.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.normalisers == nil {
		c.normalisers = normalisers.NewRegistry(plaintext.New(), html.New(), markdown.New(), pdf.New())
	}
	return c.normalisers
}
