// Package cli implements the udirag command line with cobra.
// Commands reach the application through a Provider, which main supplies
// from the composition root.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Provider hands out the services commands run against. Services are
// created on demand so a command only needs the credentials it uses.
type Provider interface {
	Settings() driving.SettingsService
	ConfigPath() string
	WatchPrompts(ctx context.Context) error

	Datasets() (driven.DatasetStore, error)
	Documents() (driven.DocumentStore, error)
	Index(ctx context.Context) (driven.VectorIndex, error)

	Scraper() (driving.ScrapeService, error)
	Cleaner() (driving.CleanService, error)
	Ingester(ctx context.Context) (driving.IngestService, error)
	Retriever(ctx context.Context) (driving.RetrieverService, error)
	Answerer(ctx context.Context) (driving.AnswerService, error)
	Generator(ctx context.Context) (driving.GeneratorService, error)
	Auditor(ctx context.Context) (driving.AuditorService, error)
	Runner(ctx context.Context) (driving.RunnerService, error)

	Close() error
}

// ProviderFactory builds a Provider for a config directory.
type ProviderFactory func(configDir string) (Provider, error)

var (
	provider        Provider
	providerFactory ProviderFactory

	verbose   bool
	configDir string
)

var errNotConfigured = errors.New("application not configured")

var rootCmd = &cobra.Command{
	Use:   "udirag",
	Short: "Retrieval-augmented answers over UDI immigration pages",
	Long: `udirag builds a question-answering pipeline over pages scraped from udi.no.

Typical workflow:
  udirag sitemap      # collect page URLs
  udirag scrape       # download pages into the corpus
  udirag clean        # drop empty and non-English pages
  udirag ingest       # chunk, embed and index the corpus
  udirag ask "..."    # answer a question
  udirag serve        # OpenAI-compatible chat API

Benchmark:
  udirag generate     # synthesise questions from random chunks
  udirag audit        # keep only grounded questions
  udirag benchmark    # score the answering pipeline`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.udirag)")
}

// SetProviderFactory registers how the provider is built once flags are parsed.
func SetProviderFactory(f ProviderFactory) {
	providerFactory = f
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer teardown() //nolint:errcheck // Already closed on the success path.
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if provider != nil || providerFactory == nil {
		return nil
	}
	p, err := providerFactory(configDir)
	if err != nil {
		return err
	}
	provider = p
	return nil
}

func teardown() error {
	if provider == nil || providerFactory == nil {
		return nil
	}
	err := provider.Close()
	provider = nil
	return err
}

// requireProvider returns the provider or a configuration error.
func requireProvider() (Provider, error) {
	if provider == nil {
		return nil, errNotConfigured
	}
	return provider, nil
}
