package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir          = "paths.data_dir"
	keyCorpusDir        = "paths.corpus_dir"
	keyIndexDir         = "paths.index_dir"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyVectorBackend    = "vector.backend"
	keyVectorCollection = "vector.collection"
	keyVectorDSN        = "vector.dsn"
	keyVectorCompress   = "vector.compress"
	keyChunkSize        = "pipeline.chunk_size"
	keyOverlap          = "pipeline.overlap"
	keyRetrievalK       = "retrieval.k"
	keyDedupeBySource   = "retrieval.dedupe_by_source"
	keySampleSize       = "benchmark.sample_size"
	keyPairsPerChunk    = "benchmark.pairs_per_chunk"
	keyMinContext       = "benchmark.min_context_length"
	keySeed             = "benchmark.seed"
	keyConcurrency      = "workers.concurrency"
	keyModelInterval    = "pacing.model_interval"
	keyScrapeInterval   = "pacing.scrape_interval"
	keyRetryAttempts    = "retry.attempts"
	keyRetryBaseDelay   = "retry.base_delay"
	keyServerAddr       = "server.addr"
	keyServerModelID    = "server.model_id"
	keyServerOwnedBy    = "server.owned_by"
	keySitemapURL       = "scrape.sitemap_url"
	keyURLFilter        = "scrape.url_filter"
	keyScrapeLimit      = "scrape.limit"
	keyUserAgent        = "scrape.user_agent"
	keyCleanLanguage    = "clean.language"
	keyAPIKeyPrefix     = "keys."
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindDuration
	kindProvider
)

// settingKinds lists every key accepted by Set. Per-role LLM keys
// (llm.<role>.provider, .model, .base_url) are added in init.
var settingKinds = map[string]valueKind{
	keyDataDir: kindString, keyCorpusDir: kindString, keyIndexDir: kindString,
	keyEmbedProvider: kindProvider, keyEmbedModel: kindString, keyEmbedBaseURL: kindString,
	keyEmbedBatchSize: kindInt,
	keyLLMProvider:    kindProvider, keyLLMModel: kindString, keyLLMBaseURL: kindString,
	keyVectorBackend: kindString, keyVectorCollection: kindString, keyVectorDSN: kindString,
	keyVectorCompress: kindBool,
	keyChunkSize:      kindInt, keyOverlap: kindInt,
	keyRetrievalK: kindInt, keyDedupeBySource: kindBool,
	keySampleSize: kindInt, keyPairsPerChunk: kindInt, keyMinContext: kindInt, keySeed: kindInt,
	keyConcurrency:   kindInt,
	keyModelInterval: kindDuration, keyScrapeInterval: kindDuration,
	keyRetryAttempts: kindInt, keyRetryBaseDelay: kindDuration,
	keyServerAddr: kindString, keyServerModelID: kindString, keyServerOwnedBy: kindString,
	keySitemapURL: kindString, keyURLFilter: kindString, keyScrapeLimit: kindInt, keyUserAgent: kindString,
	keyCleanLanguage: kindString,
}

func init() {
	for _, role := range domain.AllLLMRoles() {
		prefix := "llm." + string(role) + "."
		settingKinds[prefix+"provider"] = kindProvider
		settingKinds[prefix+"model"] = kindString
		settingKinds[prefix+"base_url"] = kindString
	}
}

// SettingKeys returns every settable key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
// Effective settings are built from defaults, then the config store, then
// the overlay (environment).
type SettingsService struct {
	configStore driven.ConfigStore
	overlay     driven.SettingsOverlay
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The overlay and aiValidator may be nil.
func NewSettingsService(
	configStore driven.ConfigStore,
	overlay driven.SettingsOverlay,
	aiValidator driven.AIConfigValidator,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		overlay:     overlay,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	s.readString(keyDataDir, &settings.Paths.DataDir)
	s.readString(keyCorpusDir, &settings.Paths.CorpusDir)
	s.readString(keyIndexDir, &settings.Paths.IndexDir)

	s.readProvider(keyEmbedProvider, &settings.Embedding.Provider)
	s.readString(keyEmbedModel, &settings.Embedding.Model)
	s.readString(keyEmbedBaseURL, &settings.Embedding.BaseURL)
	s.readInt(keyEmbedBatchSize, &settings.Embedding.BatchSize)

	s.readLLM("llm.", &settings.LLM)
	for _, role := range domain.AllLLMRoles() {
		prefix := "llm." + string(role) + "."
		o, ok := settings.LLMOverrides[role]
		if s.readLLM(prefix, &o) || ok {
			settings.LLMOverrides[role] = o
		}
	}

	var backend string
	s.readString(keyVectorBackend, &backend)
	if b := domain.VectorBackend(backend); b.IsValid() {
		settings.Vector.Backend = b
	}
	s.readString(keyVectorCollection, &settings.Vector.Collection)
	s.readString(keyVectorDSN, &settings.Vector.DSN)
	s.readBool(keyVectorCompress, &settings.Vector.Compress)

	s.readInt(keyChunkSize, &settings.Pipeline.ChunkSize)
	s.readInt(keyOverlap, &settings.Pipeline.Overlap)
	s.readInt(keyRetrievalK, &settings.Retrieval.K)
	s.readBool(keyDedupeBySource, &settings.Retrieval.DedupeBySource)

	s.readInt(keySampleSize, &settings.Benchmark.SampleSize)
	s.readInt(keyPairsPerChunk, &settings.Benchmark.PairsPerChunk)
	s.readInt(keyMinContext, &settings.Benchmark.MinContextLength)
	var seed int
	if s.readInt(keySeed, &seed) {
		settings.Benchmark.Seed = int64(seed)
	}

	s.readInt(keyConcurrency, &settings.Concurrency)
	s.readDuration(keyModelInterval, &settings.Pacing.ModelInterval)
	s.readDuration(keyScrapeInterval, &settings.Pacing.ScrapeInterval)
	s.readInt(keyRetryAttempts, &settings.Retry.Attempts)
	s.readDuration(keyRetryBaseDelay, &settings.Retry.BaseDelay)

	s.readString(keyServerAddr, &settings.Server.Addr)
	s.readString(keyServerModelID, &settings.Server.ModelID)
	s.readString(keyServerOwnedBy, &settings.Server.OwnedBy)

	s.readString(keySitemapURL, &settings.Scrape.SitemapURL)
	s.readString(keyURLFilter, &settings.Scrape.URLFilter)
	s.readInt(keyScrapeLimit, &settings.Scrape.Limit)
	s.readString(keyUserAgent, &settings.Scrape.UserAgent)
	s.readString(keyCleanLanguage, &settings.CleanLanguage)

	for _, p := range domain.AllLLMProviders() {
		if key := s.configStore.GetString(keyAPIKeyPrefix + string(p)); key != "" {
			settings.APIKeys[p] = key
		}
	}

	if s.overlay != nil {
		if err := s.overlay.Apply(&settings); err != nil {
			return nil, fmt.Errorf("apply environment: %w", err)
		}
	}

	settings.ResolveAPIKeys()
	return &settings, nil
}

// Set stores a single config key, converting value to the key's type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 2s", domain.ErrInvalidInput, key)
		}
		typed = value
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	default:
		typed = value
	}

	if key == keyVectorBackend && !domain.VectorBackend(value).IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, value)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetAPIKey stores the API key for a provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, provider)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyAPIKeyPrefix+string(provider), apiKey); err != nil {
		return fmt.Errorf("save %s api key: %w", provider, err)
	}
	return nil
}

// Validate checks the embedding settings and the LLM settings of the given
// roles. Missing credentials return domain.ErrConfigMissing.
func (s *SettingsService) Validate(roles ...domain.LLMRole) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := checkProvider("embedding", settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	if settings.Vector.Backend == domain.VectorBackendPgvector && settings.Vector.DSN == "" {
		return fmt.Errorf("%w: vector.dsn is required for the pgvector backend", domain.ErrConfigMissing)
	}

	for _, role := range roles {
		llm := settings.LLMFor(role)
		if err := checkProvider(string(role)+" llm", llm.Provider, llm.APIKey); err != nil {
			return err
		}
	}
	return nil
}

func checkProvider(what string, provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: %s provider %q", domain.ErrInvalidInput, what, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: %s provider %s needs an API key (set %s_API_KEY or run 'udirag settings set-key %s')",
			domain.ErrConfigMissing, what, provider, strings.ToUpper(string(provider)), provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates a role's LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(role domain.LLMRole) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	llm := settings.LLMFor(role)
	return s.aiValidator.ValidateLLM(&llm)
}

// Helper methods for reading config over defaults. Each returns true when
// the key was present and valid.

func (s *SettingsService) readString(key string, dst *string) bool {
	if v := s.configStore.GetString(key); v != "" {
		*dst = v
		return true
	}
	return false
}

func (s *SettingsService) readInt(key string, dst *int) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return false
	}
	if v := s.configStore.GetInt(key); v != 0 {
		*dst = v
		return true
	}
	return false
}

func (s *SettingsService) readBool(key string, dst *bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return false
	}
	*dst = s.configStore.GetBool(key)
	return true
}

func (s *SettingsService) readDuration(key string, dst *time.Duration) bool {
	v := s.configStore.GetString(key)
	if v == "" {
		return false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return false
	}
	*dst = d
	return true
}

func (s *SettingsService) readProvider(key string, dst *domain.AIProvider) bool {
	p := domain.AIProvider(s.configStore.GetString(key))
	if !p.IsValid() {
		return false
	}
	*dst = p
	return true
}

func (s *SettingsService) readLLM(prefix string, dst *domain.LLMSettings) bool {
	found := s.readProvider(prefix+"provider", &dst.Provider)
	found = s.readString(prefix+"model", &dst.Model) || found
	found = s.readString(prefix+"base_url", &dst.BaseURL) || found
	return found
}
