package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure RunnerService implements the interface.
var _ driving.RunnerService = (*RunnerService)(nil)

// Verdict reasons recorded without a judge call.
const (
	ReasonDegraded   = "answer generation failed"
	ReasonExactMatch = "exact match with ground truth"
)

// RunnerService scores the answering pipeline against a verified dataset.
type RunnerService struct {
	answers     driving.AnswerService
	prompts     driven.PromptStore
	pacer       driven.Pacer
	caller      *structuredCaller
	model       string
	k           int
	concurrency int
}

// NewRunnerService creates a new benchmark runner. The judge may be a
// different model from the one answering. The pacer spaces out both the
// answer calls and the judge calls; it may be nil.
func NewRunnerService(
	answers driving.AnswerService,
	judge driven.LLMService,
	prompts driven.PromptStore,
	pacer driven.Pacer,
	model string,
	k int,
	concurrency int,
) *RunnerService {
	return &RunnerService{
		answers:     answers,
		prompts:     prompts,
		pacer:       pacer,
		caller:      &structuredCaller{llm: judge, prompts: prompts, pacer: pacer},
		model:       model,
		k:           k,
		concurrency: concurrency,
	}
}

// Run answers and grades every item. Per-item failures become FAIL
// verdicts; only cancellation aborts the run.
func (s *RunnerService) Run(ctx context.Context, items []domain.QACandidate) (*domain.BenchmarkReport, error) {
	logger.Section("Run Benchmark")

	report := &domain.BenchmarkReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Model:     s.model,
		K:         s.k,
	}

	results, err := mapOrdered(ctx, items, s.concurrency,
		func(ctx context.Context, i int, item domain.QACandidate) domain.BenchmarkResult {
			r := s.evaluate(ctx, item)
			logger.Info("Q%d %s: %s", i+1, r.Verdict, item.Question)
			return r
		})
	if err != nil {
		return nil, err
	}

	report.Results = results
	report.FinishedAt = time.Now()
	report.Score()

	return report, nil
}

func (s *RunnerService) evaluate(ctx context.Context, item domain.QACandidate) domain.BenchmarkResult {
	result := domain.BenchmarkResult{
		Question:    item.Question,
		GroundTruth: item.GroundTruth,
	}

	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			result.Verdict = domain.VerdictFail
			result.Reason = err.Error()
			return result
		}
	}

	answer := s.answers.Answer(ctx, item.Question)
	result.Answer = answer.Text

	switch {
	case answer.Degraded:
		result.Verdict = domain.VerdictFail
		result.Reason = ReasonDegraded
	case normaliseAnswer(answer.Text) == normaliseAnswer(item.GroundTruth):
		result.Verdict = domain.VerdictPass
		result.Reason = ReasonExactMatch
	default:
		j, err := s.grade(ctx, item, answer.Text)
		if err != nil {
			result.Verdict = domain.VerdictFail
			result.Reason = err.Error()
			return result
		}
		result.Verdict = j.Verdict
		result.Reason = j.Reason
	}
	return result
}

func (s *RunnerService) grade(ctx context.Context, item domain.QACandidate, answer string) (domain.Judgement, error) {
	tmpl, err := s.prompts.Load(driven.PromptBenchmarkJudge)
	if err != nil {
		return domain.Judgement{}, fmt.Errorf("load judge prompt: %w", err)
	}
	return s.caller.judge(ctx, fmt.Sprintf(tmpl, domain.RefusalAnswer, item.Question, item.GroundTruth, answer))
}

func normaliseAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
