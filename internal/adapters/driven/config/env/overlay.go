// Package env overlays environment variables onto application settings.
//
// Variables are read from the process environment and, when present, from a
// dotenv file. Process variables win over the file, and both win over the
// TOML config store.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure Overlay implements the interface.
var _ driven.SettingsOverlay = (*Overlay)(nil)

// DefaultEnvFile is the dotenv file read from the working directory.
const DefaultEnvFile = ".env"

// Prefix namespaces every non-credential variable.
const Prefix = "UDIRAG_"

// variables mirrors the overridable settings. Nil means unset.
type variables struct {
	DataDir   *string `env:"DATA_DIR"`
	CorpusDir *string `env:"CORPUS_DIR"`
	IndexDir  *string `env:"INDEX_DIR"`

	EmbeddingProvider  *string `env:"EMBEDDING_PROVIDER"`
	EmbeddingModel     *string `env:"EMBEDDING_MODEL"`
	EmbeddingBaseURL   *string `env:"EMBEDDING_BASE_URL"`
	EmbeddingBatchSize *int    `env:"EMBEDDING_BATCH_SIZE"`

	LLMProvider *string `env:"LLM_PROVIDER"`
	LLMModel    *string `env:"LLM_MODEL"`
	LLMBaseURL  *string `env:"LLM_BASE_URL"`

	VectorBackend    *string `env:"VECTOR_BACKEND"`
	VectorDSN        *string `env:"VECTOR_DSN"`
	VectorCollection *string `env:"VECTOR_COLLECTION"`
	VectorCompress   *bool   `env:"VECTOR_COMPRESS"`

	RetrievalK    *int           `env:"RETRIEVAL_K"`
	Workers       *int           `env:"WORKERS"`
	ModelInterval *time.Duration `env:"MODEL_INTERVAL"`
	ServerAddr    *string        `env:"SERVER_ADDR"`
}

// credentials are read without the prefix, under their conventional names.
type credentials struct {
	OpenAI    string `env:"OPENAI_API_KEY"`
	Anthropic string `env:"ANTHROPIC_API_KEY"`
}

// Overlay applies environment overrides to settings.
type Overlay struct {
	environ map[string]string
}

// New creates an overlay over the process environment plus envFile.
// A missing envFile is not an error; an unreadable one is.
func New(envFile string) (*Overlay, error) {
	environ := map[string]string{}

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			logger.Debug("Loaded %d variables from %s", len(fromFile), envFile)
			for k, v := range fromFile {
				environ[k] = v
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}

	return &Overlay{environ: environ}, nil
}

// NewFromMap creates an overlay over a fixed set of variables.
func NewFromMap(environ map[string]string) *Overlay {
	copied := make(map[string]string, len(environ))
	for k, v := range environ {
		copied[k] = v
	}
	return &Overlay{environ: copied}
}

// Apply writes every set variable into settings.
func (o *Overlay) Apply(settings *domain.AppSettings) error {
	var vars variables
	if err := env.ParseWithOptions(&vars, env.Options{Environment: o.environ, Prefix: Prefix}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var creds credentials
	if err := env.ParseWithOptions(&creds, env.Options{Environment: o.environ}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	setString(&settings.Paths.DataDir, vars.DataDir)
	setString(&settings.Paths.CorpusDir, vars.CorpusDir)
	setString(&settings.Paths.IndexDir, vars.IndexDir)

	if err := setProvider(&settings.Embedding.Provider, vars.EmbeddingProvider, "EMBEDDING_PROVIDER"); err != nil {
		return err
	}
	setString(&settings.Embedding.Model, vars.EmbeddingModel)
	setString(&settings.Embedding.BaseURL, vars.EmbeddingBaseURL)
	setInt(&settings.Embedding.BatchSize, vars.EmbeddingBatchSize)

	if err := setProvider(&settings.LLM.Provider, vars.LLMProvider, "LLM_PROVIDER"); err != nil {
		return err
	}
	setString(&settings.LLM.Model, vars.LLMModel)
	setString(&settings.LLM.BaseURL, vars.LLMBaseURL)

	if vars.VectorBackend != nil {
		backend := domain.VectorBackend(*vars.VectorBackend)
		if !backend.IsValid() {
			return fmt.Errorf("%w: %sVECTOR_BACKEND %q", domain.ErrInvalidInput, Prefix, backend)
		}
		settings.Vector.Backend = backend
	}
	setString(&settings.Vector.DSN, vars.VectorDSN)
	setString(&settings.Vector.Collection, vars.VectorCollection)
	if vars.VectorCompress != nil {
		settings.Vector.Compress = *vars.VectorCompress
	}

	setInt(&settings.Retrieval.K, vars.RetrievalK)
	setInt(&settings.Concurrency, vars.Workers)
	if vars.ModelInterval != nil {
		settings.Pacing.ModelInterval = *vars.ModelInterval
	}
	setString(&settings.Server.Addr, vars.ServerAddr)

	if settings.APIKeys == nil {
		settings.APIKeys = map[domain.AIProvider]string{}
	}
	if creds.OpenAI != "" {
		settings.APIKeys[domain.AIProviderOpenAI] = creds.OpenAI
	}
	if creds.Anthropic != "" {
		settings.APIKeys[domain.AIProviderAnthropic] = creds.Anthropic
	}
	return nil
}

func setString(dst, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setInt(dst, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setProvider(dst *domain.AIProvider, src *string, name string) error {
	if src == nil || *src == "" {
		return nil
	}
	p := domain.AIProvider(strings.ToLower(*src))
	if !p.IsValid() {
		return fmt.Errorf("%w: %s%s %q", domain.ErrInvalidInput, Prefix, name, *src)
	}
	*dst = p
	return nil
}
