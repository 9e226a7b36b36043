package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Retry defaults.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	maxRetryDelay         = 10 * time.Second
)

// RetryPolicy retries calls failing with domain.ErrServiceUnavailable.
// The delay doubles after each attempt starting from BaseDelay, capped at
// ten seconds.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryBaseDelay
	}
	return p
}

// backOff builds the exponential schedule for p, bounded by its attempts
// and by ctx.
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = maxRetryDelay
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.Attempts-1)), ctx)
}

// do runs fn until it succeeds, fails with a non-retryable error, the
// attempts are used up, or ctx ends. The last error from fn is returned.
func (p RetryPolicy) do(ctx context.Context, op string, fn func() error) error {
	p = p.withDefaults()

	var (
		attempt int
		last    error
	)
	operation := func() error {
		attempt++
		last = fn()
		if last != nil && !errors.Is(last, domain.ErrServiceUnavailable) {
			return backoff.Permanent(last)
		}
		return last
	}
	notify := func(err error, next time.Duration) {
		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, p.Attempts, next, err)
	}

	if err := backoff.RetryNotify(operation, p.backOff(ctx), notify); err != nil {
		if last != nil {
			return last
		}
		return err
	}
	return nil
}

// retryLLM decorates an LLM service with retries.
type retryLLM struct {
	driven.LLMService
	policy RetryPolicy
}

// WithRetryLLM wraps svc so that unavailable-service errors are retried.
func WithRetryLLM(svc driven.LLMService, policy RetryPolicy) driven.LLMService {
	return &retryLLM{LLMService: svc, policy: policy}
}

func (r *retryLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := r.policy.do(ctx, "generate", func() error {
		var err error
		out, err = r.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

func (r *retryLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := r.policy.do(ctx, "chat", func() error {
		var err error
		out, err = r.LLMService.Chat(ctx, messages, opts)
		return err
	})
	return out, err
}

// retryEmbedding decorates an embedding service with retries.
type retryEmbedding struct {
	driven.EmbeddingService
	policy RetryPolicy
}

// WithRetryEmbedding wraps svc so that unavailable-service errors are retried.
func WithRetryEmbedding(svc driven.EmbeddingService, policy RetryPolicy) driven.EmbeddingService {
	return &retryEmbedding{EmbeddingService: svc, policy: policy}
}

func (r *retryEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.policy.do(ctx, "embed", func() error {
		var err error
		out, err = r.EmbeddingService.Embed(ctx, text)
		return err
	})
	return out, err
}

func (r *retryEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.policy.do(ctx, "embed batch", func() error {
		var err error
		out, err = r.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}
