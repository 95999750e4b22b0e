package ai

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrCompletionFailed is returned when the backend reports an error.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrEmptyCompletion is returned when no usable text came back.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Completion is the raw generated text for one prompt.
type Completion struct {
	Text    string
	Latency time.Duration
}

// Completer is the text completion service interface.
type Completer interface {
	// Complete continues prompt and returns the generated text,
	// which by convention includes the prompt.
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// NewCompleter creates a Completer for cfg.Provider.
func NewCompleter(cfg *CompletionConfig) (Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAICompleter(cfg), nil
	default:
		return NewHTTPCompleter(cfg, nil), nil
	}
}

// doWithRetry executes fn with exponential backoff. Backend-reported
// errors are not retried.
func doWithRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrCompletionFailed) || attempt == maxRetries-1 {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		slog.Debug("completion request failed, retrying",
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
