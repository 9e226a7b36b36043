package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// validator is implemented by structured replies that check their own fields.
type validator interface {
	Validate() error
}

// structuredCaller asks a model for a JSON object and decodes it.
// An invalid reply gets one correction round trip before the call fails
// with domain.ErrParseFailure.
type structuredCaller struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	pacer   driven.Pacer
}

// call sends messages and decodes the reply into out.
func (c *structuredCaller) call(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, out any,
) error {
	opts.JSON = true

	reply, err := c.chat(ctx, messages, opts)
	if err != nil {
		return err
	}

	decodeErr := decodeStructured(reply, out)
	if decodeErr == nil {
		return nil
	}
	logger.Debug("Structured reply rejected, asking for correction: %v", decodeErr)

	tmpl, err := c.prompts.Load(driven.PromptJSONCorrection)
	if err != nil {
		return fmt.Errorf("load correction prompt: %w", err)
	}

	retry := make([]driven.ChatMessage, 0, len(messages)+2)
	retry = append(retry, messages...)
	retry = append(retry,
		driven.ChatMessage{Role: driven.RoleAssistant, Content: reply},
		driven.ChatMessage{Role: driven.RoleUser, Content: fmt.Sprintf(tmpl, decodeErr.Error())},
	)

	reply, err = c.chat(ctx, retry, opts)
	if err != nil {
		return err
	}
	if err := decodeStructured(reply, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	return nil
}

func (c *structuredCaller) chat(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions,
) (string, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	return c.llm.Chat(ctx, messages, opts)
}

// decodeStructured extracts the JSON object from a model reply, decodes it
// into out and validates it. Markdown code fences and surrounding prose are
// tolerated.
func decodeStructured(reply string, out any) error {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return errors.New("reply contains no JSON object")
	}

	if err := json.Unmarshal([]byte(reply[start:end+1]), out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	if v, ok := out.(validator); ok {
		return v.Validate()
	}
	return nil
}

// verdictReply is the judge schema: {"verdict":"PASS"|"FAIL","reason":string}.
type verdictReply struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// Validate checks the verdict field.
func (v *verdictReply) Validate() error {
	_, err := domain.ParseVerdict(v.Verdict)
	return err
}

// Judgement converts a validated reply.
func (v *verdictReply) Judgement() domain.Judgement {
	verdict, _ := domain.ParseVerdict(v.Verdict)
	return domain.Judgement{Verdict: verdict, Reason: strings.TrimSpace(v.Reason)}
}

// judge renders a judge prompt and decodes the verdict.
func (c *structuredCaller) judge(ctx context.Context, prompt string) (domain.Judgement, error) {
	var reply verdictReply
	messages := []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}
	if err := c.call(ctx, messages, driven.ChatOptions{Temperature: 0}, &reply); err != nil {
		return domain.Judgement{}, err
	}
	return reply.Judgement(), nil
}
