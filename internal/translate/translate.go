// Package translate wraps the OpenAI chat completion API behind a narrow
// Uzbek-to-Russian company-name translator, reusing the circuit-breaker and
// bounded-retry pattern of the host application's AI client.
package translate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Translator translates a company name from Uzbek to Russian.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// noop keeps the original string unchanged. Used when OPENAI_API_KEY is
// absent, matching "on translator failure, keep original".
type noop struct{}

func (noop) Translate(_ context.Context, text string) (string, error) { return text, nil }

// NewNoop returns a Translator that never calls out, always returning the
// input unchanged.
func NewNoop() Translator { return noop{} }

const (
	maxAttempts   = 3
	baseDelay     = time.Second
)

// Client is the OpenAI-backed Translator.
type Client struct {
	client  openai.Client
	model   string
	breaker *CircuitBreaker
}

// New builds a Client. model defaults to "gpt-4o-mini" when empty.
func New(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}
}

// Translate returns text translated to Russian. On exhausted retries, a
// non-transient error, or an open circuit, it returns the original text
// alongside the error so the caller can log-and-keep per the Uzbekistan
// resolver's "on translator failure, keep original" rule.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if !c.breaker.Allow() {
		return text, errors.New("translate: circuit open")
	}

	delay := baseDelay
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(delay) / 2))
			select {
			case <-time.After(delay + jitter):
			case <-ctx.Done():
				return text, ctx.Err()
			}
			delay *= 2
		}

		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage("Translate the given Uzbek company name to Russian. Respond with only the translated name, no commentary."),
				openai.UserMessage(text),
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("translate: empty response")
			continue
		}

		c.breaker.RecordSuccess()
		translated := strings.TrimSpace(resp.Choices[0].Message.Content)
		if translated == "" {
			return text, nil
		}
		return translated, nil
	}

	c.breaker.RecordFailure()
	return text, fmt.Errorf("translate: exhausted %d attempts: %w", maxAttempts, lastErr)
}
