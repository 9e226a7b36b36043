package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure GeneratorService implements the interface.
var _ driving.GeneratorService = (*GeneratorService)(nil)

// GenerationTemperature keeps generated questions varied.
const GenerationTemperature = 0.7

// GeneratorService synthesises benchmark QA pairs from stored chunks.
type GeneratorService struct {
	docStore    driven.DocumentStore
	prompts     driven.PromptStore
	caller      *structuredCaller
	settings    domain.BenchmarkSettings
	concurrency int
}

// NewGeneratorService creates a new generator. The pacer may be nil.
func NewGeneratorService(
	docStore driven.DocumentStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	pacer driven.Pacer,
	settings domain.BenchmarkSettings,
	concurrency int,
) *GeneratorService {
	return &GeneratorService{
		docStore:    docStore,
		prompts:     prompts,
		caller:      &structuredCaller{llm: llm, prompts: prompts, pacer: pacer},
		settings:    settings,
		concurrency: concurrency,
	}
}

// qaReply is the generation schema: {"qa_pairs":[{"question","answer"}]}.
type qaReply struct {
	QAPairs []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"qa_pairs"`
}

// Validate requires at least one complete pair.
func (r *qaReply) Validate() error {
	for _, p := range r.QAPairs {
		if strings.TrimSpace(p.Question) != "" && strings.TrimSpace(p.Answer) != "" {
			return nil
		}
	}
	return errors.New("qa_pairs must contain at least one pair with a question and an answer")
}

// Generate samples chunks uniformly without replacement and asks the model
// for QA pairs from each. Chunks whose reply cannot be decoded are skipped
// and counted. Output order follows sample order.
func (s *GeneratorService) Generate(
	ctx context.Context, sampleSize int,
) ([]domain.QACandidate, *domain.GenerationStats, error) {
	logger.Section("Generate Benchmark")

	chunks, err := s.docStore.ListChunks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("no chunks stored, run ingest first: %w", domain.ErrNotFound)
	}

	if sampleSize <= 0 {
		sampleSize = s.settings.SampleSize
	}
	sample := s.sample(chunks, sampleSize)
	logger.Info("Selected %d of %d chunks", len(sample), len(chunks))

	type outcome struct {
		pairs []domain.QACandidate
		err   error
	}

	outcomes, err := mapOrdered(ctx, sample, s.concurrency, func(ctx context.Context, i int, ch domain.Chunk) outcome {
		logger.Debug("Processing chunk %d/%d", i+1, len(sample))
		pairs, err := s.generateFor(ctx, ch)
		return outcome{pairs: pairs, err: err}
	})
	if err != nil {
		return nil, nil, err
	}

	stats := &domain.GenerationStats{Sampled: len(sample)}
	var candidates []domain.QACandidate
	for i, o := range outcomes {
		if o.err != nil {
			logger.Warn("Skipped chunk %s: %v", sample[i].ID, o.err)
			stats.Failed++
			continue
		}
		candidates = append(candidates, o.pairs...)
	}
	stats.Pairs = len(candidates)

	return candidates, stats, nil
}

func (s *GeneratorService) sample(chunks []domain.Chunk, n int) []domain.Chunk {
	if n > len(chunks) {
		n = len(chunks)
	}

	seed := uint64(s.settings.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	picked := make([]domain.Chunk, n)
	for i, idx := range rng.Perm(len(chunks))[:n] {
		picked[i] = chunks[idx]
	}
	return picked
}

func (s *GeneratorService) generateFor(ctx context.Context, ch domain.Chunk) ([]domain.QACandidate, error) {
	perChunk := s.settings.PairsPerChunk
	if perChunk <= 0 {
		perChunk = 3
	}

	tmpl, err := s.prompts.Load(driven.PromptGenerateQA)
	if err != nil {
		return nil, fmt.Errorf("load generation prompt: %w", err)
	}

	var reply qaReply
	messages := []driven.ChatMessage{
		{Role: driven.RoleUser, Content: fmt.Sprintf(tmpl, perChunk, ch.Content)},
	}
	if err := s.caller.call(ctx, messages, driven.ChatOptions{Temperature: GenerationTemperature}, &reply); err != nil {
		return nil, err
	}

	pairs := make([]domain.QACandidate, 0, perChunk)
	for _, p := range reply.QAPairs {
		q, a := strings.TrimSpace(p.Question), strings.TrimSpace(p.Answer)
		if q == "" || a == "" {
			continue
		}
		pairs = append(pairs, domain.QACandidate{
			Question:      q,
			GroundTruth:   a,
			ContextUsed:   ch.Content,
			SourceChunkID: ch.ID,
			Origin:        ch.Origin,
		})
		if len(pairs) == perChunk {
			break
		}
	}
	return pairs, nil
}
