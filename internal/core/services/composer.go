package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Composer turns a question and retrieved chunks into a grounded answer.
type Composer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewComposer creates a new answer composer.
func NewComposer(llm driven.LLMService, prompts driven.PromptStore) *Composer {
	return &Composer{llm: llm, prompts: prompts}
}

// BuildPrompt renders the answering prompt. Chunk texts are embedded
// verbatim, separated by blank lines.
func (c *Composer) BuildPrompt(query string, chunks []domain.RetrievedChunk) (string, error) {
	tmpl, err := c.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("load answer prompt: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Chunk.Content
	}

	return fmt.Sprintf(tmpl, domain.RefusalAnswer, strings.Join(texts, "\n\n"), query), nil
}

// Compose answers query from chunks. It never returns an error: with no
// chunks it refuses without calling the model, and a failed model call
// yields the fallback answer marked Degraded.
func (c *Composer) Compose(ctx context.Context, query string, chunks []domain.RetrievedChunk) domain.Answer {
	if len(chunks) == 0 {
		return domain.Answer{Text: domain.RefusalAnswer, Sources: []domain.RetrievedChunk{}}
	}

	prompt, err := c.BuildPrompt(query, chunks)
	if err != nil {
		logger.Error("Compose: %v", err)
		return domain.Answer{Text: domain.FallbackAnswer, Sources: chunks, Degraded: true}
	}

	text, err := c.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{Temperature: 0})
	if err != nil {
		logger.Error("Answer generation failed: %v", err)
		return domain.Answer{Text: domain.FallbackAnswer, Sources: chunks, Degraded: true}
	}

	return domain.Answer{Text: strings.TrimSpace(text), Sources: chunks}
}
