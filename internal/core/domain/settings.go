package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMRole names the pipeline stage a language model serves.
// Each role may be configured with its own provider and model.
type LLMRole string

// Pipeline roles.
const (
	// LLMRoleAnswer composes user-facing answers.
	LLMRoleAnswer LLMRole = "answer"

	// LLMRoleGenerator synthesises benchmark questions.
	LLMRoleGenerator LLMRole = "generator"

	// LLMRoleAuditor checks benchmark questions for grounding.
	LLMRoleAuditor LLMRole = "auditor"

	// LLMRoleJudge grades benchmark answers.
	LLMRoleJudge LLMRole = "judge"
)

// AllLLMRoles returns every pipeline role.
func AllLLMRoles() []LLMRole {
	return []LLMRole{LLMRoleAnswer, LLMRoleGenerator, LLMRoleAuditor, LLMRoleJudge}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize bounds the number of texts per embedding request.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendChromem is an embedded, file-persisted index.
	VectorBackendChromem VectorBackend = "chromem"

	// VectorBackendPgvector stores vectors in Postgres with pgvector.
	VectorBackendPgvector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendChromem || b == VectorBackendPgvector
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	Backend    VectorBackend
	Collection string

	// DSN is the Postgres connection string (pgvector only).
	DSN string

	// Compress gzips persisted records (chromem only).
	Compress bool
}

// PathSettings holds on-disk locations.
type PathSettings struct {
	DataDir   string
	CorpusDir string
	IndexDir  string
}

// PipelineSettings holds chunking configuration.
type PipelineSettings struct {
	ChunkSize int
	Overlap   int
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per query.
	K int

	// DedupeBySource keeps only the best chunk per origin.
	DedupeBySource bool
}

// BenchmarkSettings holds benchmark generation and audit configuration.
type BenchmarkSettings struct {
	SampleSize       int
	PairsPerChunk    int
	MinContextLength int

	// Seed makes chunk sampling reproducible. Zero seeds from the clock.
	Seed int64
}

// PacingSettings holds inter-request delays.
type PacingSettings struct {
	ModelInterval  time.Duration
	ScrapeInterval time.Duration
}

// RetrySettings holds backoff configuration for unavailable services.
type RetrySettings struct {
	Attempts  int
	BaseDelay time.Duration
}

// ServerSettings holds chat API configuration.
type ServerSettings struct {
	Addr    string
	ModelID string
	OwnedBy string
}

// ScrapeSettings holds crawler configuration.
type ScrapeSettings struct {
	SitemapURL string
	URLFilter  string
	Limit      int
	UserAgent  string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Paths     PathSettings
	Embedding EmbeddingSettings

	// LLM is the default model, used for every role without an override.
	LLM LLMSettings

	// LLMOverrides holds per-role models.
	LLMOverrides map[LLMRole]LLMSettings

	Vector    VectorSettings
	Pipeline  PipelineSettings
	Retrieval RetrievalSettings
	Benchmark BenchmarkSettings
	Pacing    PacingSettings
	Retry     RetrySettings
	Server    ServerSettings
	Scrape    ScrapeSettings

	// Concurrency bounds in-flight model requests in batch stages.
	Concurrency int

	// CleanLanguage is the ISO 639-1 code kept by the corpus cleaner.
	CleanLanguage string

	// APIKeys holds provider credentials, shared by every role using the
	// provider. ResolveAPIKeys copies them into the embedding and LLM settings.
	APIKeys map[AIProvider]string
}

// ResolveAPIKeys fills empty APIKey fields from APIKeys by provider.
func (s *AppSettings) ResolveAPIKeys() {
	if s.Embedding.APIKey == "" {
		s.Embedding.APIKey = s.APIKeys[s.Embedding.Provider]
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = s.APIKeys[s.LLM.Provider]
	}
	for role, o := range s.LLMOverrides {
		if o.APIKey == "" {
			o.APIKey = s.APIKeys[o.Provider]
			s.LLMOverrides[role] = o
		}
	}
}

// LLMFor returns the settings for a role, falling back to the default LLM.
func (s AppSettings) LLMFor(role LLMRole) LLMSettings {
	if o, ok := s.LLMOverrides[role]; ok && o.Provider != "" {
		return o
	}
	return s.LLM
}

// DefaultAppSettings returns settings matching the reference deployment:
// OpenAI embeddings and question generation, local Ollama answering.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Paths: PathSettings{
			DataDir:   "data",
			CorpusDir: "data/scraped_text",
			IndexDir:  "data/chroma_db",
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize: 100,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3",
		},
		LLMOverrides: map[LLMRole]LLMSettings{
			LLMRoleGenerator: {Provider: AIProviderOpenAI, Model: "gpt-3.5-turbo"},
			LLMRoleAuditor:   {Provider: AIProviderOpenAI, Model: "gpt-3.5-turbo"},
		},
		Vector: VectorSettings{
			Backend:    VectorBackendChromem,
			Collection: "udi_docs",
		},
		Pipeline: PipelineSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalSettings{
			K: 4,
		},
		Benchmark: BenchmarkSettings{
			SampleSize:       20,
			PairsPerChunk:    3,
			MinContextLength: 200,
		},
		Pacing: PacingSettings{
			ScrapeInterval: 2 * time.Second,
		},
		Retry: RetrySettings{
			Attempts:  3,
			BaseDelay: 500 * time.Millisecond,
		},
		Server: ServerSettings{
			Addr:    ":8000",
			ModelID: "norwegian-rag-hybrid",
			OwnedBy: "local-llama3",
		},
		Scrape: ScrapeSettings{
			SitemapURL: "https://www.udi.no/sitemap.xml",
			URLFilter:  "/en/",
			Limit:      400,
			UserAgent:  "MyStudentProject/1.0 (Educational RAG Experiment)",
		},
		Concurrency:   4,
		CleanLanguage: "en",
		APIKeys:       map[AIProvider]string{},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3",
		AIProviderOpenAI:    "gpt-3.5-turbo",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
