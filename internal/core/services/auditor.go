package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure AuditorService implements the interface.
var _ driving.AuditorService = (*AuditorService)(nil)

// DefaultMinContextLength is the shortest context, in characters, worth auditing.
const DefaultMinContextLength = 200

// AuditorService keeps only QA candidates whose answer is grounded in
// their context. Candidates are never edited.
type AuditorService struct {
	prompts     driven.PromptStore
	caller      *structuredCaller
	minContext  int
	concurrency int
}

// NewAuditorService creates a new auditor. The pacer may be nil.
func NewAuditorService(
	llm driven.LLMService,
	prompts driven.PromptStore,
	pacer driven.Pacer,
	settings domain.BenchmarkSettings,
	concurrency int,
) *AuditorService {
	minContext := settings.MinContextLength
	if minContext <= 0 {
		minContext = DefaultMinContextLength
	}
	return &AuditorService{
		prompts:     prompts,
		caller:      &structuredCaller{llm: llm, prompts: prompts, pacer: pacer},
		minContext:  minContext,
		concurrency: concurrency,
	}
}

type auditOutcome struct {
	short     bool
	judgement domain.Judgement
	err       error
}

// Audit filters candidates. Short contexts are rejected without a judge
// call; judge failures are counted and the candidate dropped. Kept
// candidates stay in input order.
func (s *AuditorService) Audit(ctx context.Context, candidates []domain.QACandidate) (*domain.AuditResult, error) {
	logger.Section("Audit Benchmark")

	outcomes, err := mapOrdered(ctx, candidates, s.concurrency,
		func(ctx context.Context, _ int, c domain.QACandidate) auditOutcome {
			if utf8.RuneCountInString(c.ContextUsed) < s.minContext {
				return auditOutcome{short: true}
			}
			j, err := s.check(ctx, c)
			return auditOutcome{judgement: j, err: err}
		})
	if err != nil {
		return nil, err
	}

	result := &domain.AuditResult{
		Kept:       []domain.QACandidate{},
		Rejections: []domain.Rejection{},
		Stats:      domain.AuditStats{Total: len(candidates)},
	}

	for i, o := range outcomes {
		c := candidates[i]
		switch {
		case o.short:
			s.reject(result, i, c, domain.RejectContextTooShort)
			result.Stats.RejectedShortContext++
		case o.err != nil:
			logger.Warn("Error checking Q%d: %v", i, o.err)
			result.Stats.Failed++
		case o.judgement.Verdict.Passed():
			result.Kept = append(result.Kept, c)
		default:
			reason := domain.RejectUngrounded
			if o.judgement.Reason != "" {
				reason += ": " + o.judgement.Reason
			}
			s.reject(result, i, c, reason)
			result.Stats.RejectedHallucination++
		}
	}
	result.Stats.Kept = len(result.Kept)

	return result, nil
}

func (s *AuditorService) reject(result *domain.AuditResult, i int, c domain.QACandidate, reason string) {
	r := domain.Rejection{Index: i, Candidate: c, Reason: reason}
	logger.Debug("Q%d: %v", i, r.Err())
	result.Rejections = append(result.Rejections, r)
}

func (s *AuditorService) check(ctx context.Context, c domain.QACandidate) (domain.Judgement, error) {
	tmpl, err := s.prompts.Load(driven.PromptAuditGrounding)
	if err != nil {
		return domain.Judgement{}, fmt.Errorf("load audit prompt: %w", err)
	}
	return s.caller.judge(ctx, fmt.Sprintf(tmpl, c.ContextUsed, c.Question, c.GroundTruth))
}
