package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// mockLLM answers from a reply function and records every conversation.
type mockLLM struct {
	mu    sync.Mutex
	reply func(messages []driven.ChatMessage) (string, error)
	calls [][]driven.ChatMessage
	opts  []driven.ChatOptions
}

func newMockLLM(reply func(messages []driven.ChatMessage) (string, error)) *mockLLM {
	return &mockLLM{reply: reply}
}

// fixedLLM always returns the same reply.
func fixedLLM(reply string) *mockLLM {
	return newMockLLM(func([]driven.ChatMessage) (string, error) { return reply, nil })
}

// failingLLM always fails with err.
func failingLLM(err error) *mockLLM {
	return newMockLLM(func([]driven.ChatMessage) (string, error) { return "", err })
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{
		MaxTokens: opts.MaxTokens, Temperature: opts.Temperature, JSON: opts.JSON,
	})
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]driven.ChatMessage(nil), messages...))
	m.opts = append(m.opts, opts)
	m.mu.Unlock()
	return m.reply(messages)
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	msgs := m.calls[len(m.calls)-1]
	return msgs[len(msgs)-1].Content
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts serves small templates with the same verbs as the real ones.
type mockPrompts struct {
	templates map[string]string
	missing   bool
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{templates: map[string]string{
		driven.PromptAnswerSystem:   "REFUSAL: %s\nCONTEXT:\n%s\nQUESTION: %s",
		driven.PromptGenerateQA:     "Write %d pairs from:\n%s",
		driven.PromptAuditGrounding: "CONTEXT: %s\nQ: %s\nA: %s",
		driven.PromptBenchmarkJudge: "REFUSAL: %s\nQ: %s\nTRUTH: %s\nCANDIDATE: %s",
		driven.PromptJSONCorrection: "Invalid JSON (%s). Reply with JSON only.",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.missing {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return tmpl, nil
}

func (m *mockPrompts) Reload() {}

// mockVectorIndex ranks chunks by the number of query words they contain.
type mockVectorIndex struct {
	mu       sync.Mutex
	chunks   []domain.Chunk
	built    bool
	queryErr error
	buildErr error
	lastK    int
}

func (m *mockVectorIndex) Rebuild(_ context.Context, chunks []domain.Chunk) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append([]domain.Chunk(nil), chunks...)
	m.built = true
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, text string, k int) ([]domain.RetrievedChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if !m.built {
		return nil, domain.ErrIndexNotFound
	}

	words := strings.Fields(strings.ToLower(text))
	results := make([]domain.RetrievedChunk, 0, len(m.chunks))
	for _, ch := range m.chunks {
		content := strings.ToLower(ch.Content)
		hits := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				hits++
			}
		}
		results = append(results, domain.RetrievedChunk{Chunk: ch, Score: float64(hits) / float64(len(words)+1)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *mockVectorIndex) Exists(_ context.Context) (bool, error) { return m.built, nil }

func (m *mockVectorIndex) Count(_ context.Context) (int, error) { return len(m.chunks), nil }

func (m *mockVectorIndex) Close() error { return nil }

// staticIndex returns fixed results for any query.
type staticIndex struct {
	mockVectorIndex
	results []domain.RetrievedChunk
}

func (s *staticIndex) Query(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	s.lastK = k
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

// mockDocStore is an in-memory driven.DocumentStore.
type mockDocStore struct {
	docs       []domain.Document
	chunks     []domain.Chunk
	replaceErr error
	listErr    error
	replaced   int
}

func (m *mockDocStore) ReplaceAll(_ context.Context, docs []domain.Document, chunks []domain.Chunk) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.docs, m.chunks = docs, chunks
	m.replaced++
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	for i := range m.chunks {
		if m.chunks[i].ID == id {
			return &m.chunks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, ch := range m.chunks {
		if ch.DocumentID == documentID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (m *mockDocStore) ListChunks(_ context.Context) ([]domain.Chunk, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.chunks, nil
}

func (m *mockDocStore) CountChunks(_ context.Context) (int, error) { return len(m.chunks), nil }

// mockCorpus is an in-memory driven.CorpusProvider holding text files.
type mockCorpus struct {
	files     map[string]string
	readErr   map[string]error
	removeErr error
	removed   []string
	pages     map[int]string
}

func newMockCorpus(files map[string]string) *mockCorpus {
	if files == nil {
		files = map[string]string{}
	}
	return &mockCorpus{files: files, readErr: map[string]error{}, pages: map[int]string{}}
}

func (m *mockCorpus) List(_ context.Context) ([]string, error) {
	uris := make([]string, 0, len(m.files))
	for uri := range m.files {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris, nil
}

func (m *mockCorpus) Read(_ context.Context, uri string) (*domain.RawDocument, error) {
	if err := m.readErr[uri]; err != nil {
		return nil, err
	}
	content, ok := m.files[uri]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.RawDocument{URI: uri, MIMEType: "text/plain", Content: []byte(content)}, nil
}

func (m *mockCorpus) Exists(index int) bool {
	_, ok := m.pages[index]
	return ok
}

func (m *mockCorpus) WritePage(_ context.Context, index int, origin, text string) error {
	m.pages[index] = "Source: " + origin + "\n\n" + text
	return nil
}

func (m *mockCorpus) Remove(_ context.Context, uri string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, uri)
	m.removed = append(m.removed, uri)
	return nil
}

// mockFetcher serves canned bodies by URL.
type mockFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	body, ok := m.bodies[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: status 404", url)
	}
	return []byte(body), nil
}

// mockDetector reports languages by looking up a marker word.
type mockDetector struct{}

func (mockDetector) Detect(text string) (string, bool) {
	switch {
	case strings.Contains(text, "???"):
		return "", false
	case strings.Contains(text, "Søknad"):
		return "nb", true
	default:
		return "en", true
	}
}

// countingPacer counts waits and never blocks.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// mockNormalisers passes text through, optionally failing on a URI.
type mockNormalisers struct {
	failOn string
}

func (m *mockNormalisers) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw.URI == m.failOn {
		return nil, errors.New("cannot normalise")
	}
	text := string(raw.Content)
	if raw.MIMEType == "text/html" {
		text = strings.TrimSpace(stripTags(text))
	}
	return &driven.NormaliseResult{Document: domain.Document{
		ID:      "doc-" + raw.URI,
		Origin:  raw.URI,
		Content: text,
	}}, nil
}

func (m *mockNormalisers) Register(driven.Normaliser) {}

func (m *mockNormalisers) SupportedMIMETypes() []string { return []string{"text/plain", "text/html"} }

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// chunkOf builds a chunk with the given text.
func chunkOf(id, origin, text string) domain.Chunk {
	return domain.Chunk{ID: id, DocumentID: "doc-" + origin, Origin: origin, Content: text}
}

// retrieved wraps chunks as query results with descending scores.
func retrieved(chunks ...domain.Chunk) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(chunks))
	for i, ch := range chunks {
		out[i] = domain.RetrievedChunk{Chunk: ch, Score: 1 - float64(i)/10}
	}
	return out
}
