package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

func TestOverlay_Apply_Empty(t *testing.T) {
	settings := domain.DefaultAppSettings()
	want := domain.DefaultAppSettings()

	require.NoError(t, NewFromMap(nil).Apply(&settings))

	assert.Equal(t, want, settings)
}

func TestOverlay_Apply_Overrides(t *testing.T) {
	overlay := NewFromMap(map[string]string{
		"UDIRAG_DATA_DIR":             "/srv/udi",
		"UDIRAG_CORPUS_DIR":           "/srv/udi/pages",
		"UDIRAG_EMBEDDING_PROVIDER":   "OLLAMA",
		"UDIRAG_EMBEDDING_MODEL":      "nomic-embed-text",
		"UDIRAG_EMBEDDING_BATCH_SIZE": "32",
		"UDIRAG_LLM_MODEL":            "llama3.1",
		"UDIRAG_VECTOR_BACKEND":       "pgvector",
		"UDIRAG_VECTOR_DSN":           "postgres://localhost/udi",
		"UDIRAG_VECTOR_COMPRESS":      "true",
		"UDIRAG_RETRIEVAL_K":          "6",
		"UDIRAG_WORKERS":              "8",
		"UDIRAG_MODEL_INTERVAL":       "250ms",
		"UDIRAG_SERVER_ADDR":          ":9000",
		"OPENAI_API_KEY":              "sk-env",
		"ANTHROPIC_API_KEY":           "ak-env",
	})
	settings := domain.DefaultAppSettings()

	require.NoError(t, overlay.Apply(&settings))

	assert.Equal(t, "/srv/udi", settings.Paths.DataDir)
	assert.Equal(t, "/srv/udi/pages", settings.Paths.CorpusDir)
	assert.Equal(t, "data/chroma_db", settings.Paths.IndexDir, "unset keeps default")
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, 32, settings.Embedding.BatchSize)
	assert.Equal(t, "llama3.1", settings.LLM.Model)
	assert.Equal(t, domain.VectorBackendPgvector, settings.Vector.Backend)
	assert.Equal(t, "postgres://localhost/udi", settings.Vector.DSN)
	assert.True(t, settings.Vector.Compress)
	assert.Equal(t, 6, settings.Retrieval.K)
	assert.Equal(t, 8, settings.Concurrency)
	assert.Equal(t, 250*time.Millisecond, settings.Pacing.ModelInterval)
	assert.Equal(t, ":9000", settings.Server.Addr)
	assert.Equal(t, "sk-env", settings.APIKeys[domain.AIProviderOpenAI])
	assert.Equal(t, "ak-env", settings.APIKeys[domain.AIProviderAnthropic])
}

func TestOverlay_Apply_KeyOverridesFile(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.APIKeys[domain.AIProviderOpenAI] = "sk-file"

	require.NoError(t, NewFromMap(map[string]string{"OPENAI_API_KEY": "sk-env"}).Apply(&settings))

	assert.Equal(t, "sk-env", settings.APIKeys[domain.AIProviderOpenAI])
}

func TestOverlay_Apply_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad provider", "UDIRAG_LLM_PROVIDER", "cohere"},
		{"bad backend", "UDIRAG_VECTOR_BACKEND", "faiss"},
		{"bad int", "UDIRAG_RETRIEVAL_K", "four"},
		{"bad bool", "UDIRAG_VECTOR_COMPRESS", "maybe"},
		{"bad duration", "UDIRAG_MODEL_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			err := NewFromMap(map[string]string{tt.key: tt.val}).Apply(&settings)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestNew_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# local overrides\nUDIRAG_RETRIEVAL_K=9\nUDIRAG_SERVER_ADDR=:7000\n"), 0600))
	t.Setenv("UDIRAG_SERVER_ADDR", ":7777")

	overlay, err := New(path)
	require.NoError(t, err)

	settings := domain.DefaultAppSettings()
	require.NoError(t, overlay.Apply(&settings))

	assert.Equal(t, 9, settings.Retrieval.K)
	assert.Equal(t, ":7777", settings.Server.Addr, "process environment wins over the file")
}

func TestNew_MissingEnvFile(t *testing.T) {
	overlay, err := New(filepath.Join(t.TempDir(), "absent.env"))

	require.NoError(t, err)
	assert.NotNil(t, overlay)
}
