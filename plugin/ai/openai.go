package ai

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter uses the legacy completions endpoint of an OpenAI-compatible server.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	stop        []string
	maxRetries  int
}

// NewOpenAICompleter creates a new OpenAICompleter.
func NewOpenAICompleter(cfg *CompletionConfig) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.intSetting("max_tokens", cfg.intSetting("max_length", DefaultMaxTokens)),
		temperature: cfg.floatSetting("temperature", 0.7),
		stop:        cfg.stopSetting("stop"),
		maxRetries:  max(cfg.MaxRetries, 1),
	}
}

// Complete implements Completer. The prompt is prepended to the returned
// text so callers can treat both providers alike.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (*Completion, error) {
	start := time.Now()
	var text string
	err := doWithRetry(ctx, c.maxRetries, func() error {
		resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
			Model:       c.model,
			Prompt:      prompt,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Stop:        c.stop,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				return errors.Wrap(ErrCompletionFailed, apiErr.Message)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.Wrap(ErrEmptyCompletion, "no choices returned")
		}
		text = resp.Choices[0].Text
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Completion{Text: prompt + text, Latency: time.Since(start)}, nil
}

var _ Completer = (*OpenAICompleter)(nil)
