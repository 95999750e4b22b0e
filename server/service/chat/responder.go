// Package chat turns a channel's recent history into a character's reply.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/faber6/eliz/internal/profile"
	"github.com/faber6/eliz/plugin/ai"
	aicontext "github.com/faber6/eliz/plugin/ai/context"
	"github.com/faber6/eliz/plugin/ai/duplicate"
	"github.com/faber6/eliz/plugin/ai/timeout"
	aierrors "github.com/faber6/eliz/server/internal/errors"
	"github.com/faber6/eliz/server/internal/observability"
)

const (
	// DefaultHistoryLimit is how many recent messages are read per reply.
	DefaultHistoryLimit = 40
	// DefaultMaxConcurrent bounds in-flight completions.
	DefaultMaxConcurrent = 2
)

// Config configures a Responder.
type Config struct {
	HistoryLimit  int
	SpamThreshold float64
	MaxConcurrent int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:  DefaultHistoryLimit,
		SpamThreshold: duplicate.DefaultThreshold,
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// Responder produces replies for one character.
type Responder struct {
	character  *profile.Character
	compositor *aicontext.Compositor
	completer  ai.Completer
	history    HistorySource
	detector   *duplicate.Detector
	sem        *semaphore.Weighted
	metrics    *observability.Metrics
	logger     *slog.Logger

	historyLimit int
}

// NewResponder creates a new Responder.
func NewResponder(character *profile.Character, tok aicontext.Tokenizer, completer ai.Completer, history HistorySource, cfg *Config, metrics *observability.Metrics, logger *slog.Logger) *Responder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if metrics == nil {
		metrics = observability.NewMetrics(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Responder{
		character:    character,
		compositor:   NewCompositor(tok, character),
		completer:    completer,
		history:      history,
		detector:     duplicate.NewDetector(cfg.SpamThreshold),
		sem:          semaphore.NewWeighted(cfg.MaxConcurrent),
		metrics:      metrics,
		logger:       logger,
		historyLimit: cfg.HistoryLimit,
	}
}

// Metrics returns the responder's metrics collector.
func (r *Responder) Metrics() *observability.Metrics {
	return r.metrics
}

// Respond reads the channel history, assembles a prompt within the
// character's context size, and returns the character's next line.
func (r *Responder) Respond(ctx context.Context, req Request) (*Reply, error) {
	if req.ChannelID == "" {
		return nil, aierrors.InvalidArgument("channel id is required")
	}

	rc := observability.NewRequestContext(r.logger, r.character.Name, req.ChannelID, req.Author)
	r.metrics.RecordRequest(req.ChannelID)

	reply, err := r.respond(ctx, rc, req)
	r.metrics.RecordDuration(req.ChannelID, rc.Duration())
	if err != nil {
		r.metrics.RecordFailure(req.ChannelID)
		code := aierrors.GetCodeFromError(err, aierrors.ErrCodeCompletionFailed)
		rc.Error("reply failed", err,
			slog.String(observability.LogFieldErrorCode, string(code)),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		return nil, err
	}

	rc.Info("reply ready",
		slog.String("reply", duplicate.Truncate(reply.Text, timeout.MaxTruncateLength)),
		slog.Int(observability.LogFieldPromptTokens, reply.PromptTokens),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return reply, nil
}

func (r *Responder) respond(ctx context.Context, rc *observability.RequestContext, req Request) (*Reply, error) {
	messages, err := r.history.Recent(ctx, req.ChannelID, r.historyLimit)
	if err != nil {
		return nil, aierrors.Wrap(err, aierrors.ErrCodeHistoryUnavailable, "failed to read channel history")
	}

	messages, removed := r.filterSpam(messages)
	if removed > 0 {
		r.metrics.RecordSpamRemoved(removed)
		rc.Info("removed repeated messages from the context", slog.Int("removed", removed))
	}

	conversation := BuildConversation(messages, r.character.Name)
	res, err := r.compositor.AssembleConversationResult(conversation, true, r.character.Name)
	if err != nil {
		code := aierrors.ErrCodeAssemblyFailed
		if errors.Is(err, aicontext.ErrNilTokenizer) {
			code = aierrors.ErrCodeTokenizerFailed
		}
		return nil, aierrors.Wrap(err, code, "failed to assemble prompt")
	}
	r.metrics.RecordPromptTokens(res.Tokens())
	rc.Debug("prompt assembled",
		slog.Int(observability.LogFieldPromptTokens, res.Tokens()),
		slog.Int("fragments", len(res.Activated)),
		slog.Int("remaining", res.Remaining))

	completion, err := r.complete(ctx, res.Text)
	if err != nil {
		return nil, err
	}

	text, err := ai.ExtractReply(completion.Text, r.character.Name)
	if err != nil {
		return nil, aierrors.Wrap(err, aierrors.ErrCodeCompletionEmpty, "completion has no reply")
	}

	return &Reply{
		RequestID:    rc.RequestID,
		Text:         text,
		Prompt:       res.Text,
		PromptTokens: res.Tokens(),
		SpamRemoved:  removed,
	}, nil
}

func (r *Responder) complete(ctx context.Context, prompt string) (*ai.Completion, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, aierrors.Wrap(err, aierrors.ErrCodeContextCanceled, "waiting for a completion slot")
	}
	defer r.sem.Release(1)

	start := time.Now()
	completion, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		code := aierrors.ErrCodeCompletionFailed
		if errors.Is(err, ai.ErrEmptyCompletion) {
			code = aierrors.ErrCodeCompletionEmpty
		}
		return nil, aierrors.Wrap(err, code, "completion request failed").
			WithContext("elapsed", time.Since(start).String())
	}
	return completion, nil
}

// filterSpam drops messages that repeat an earlier (newer) one.
func (r *Responder) filterSpam(messages []HistoryMessage) ([]HistoryMessage, int) {
	contents := make([]string, len(messages))
	for i, m := range messages {
		contents[i] = m.Content
	}
	kept, removed := r.detector.Filter(contents)
	if removed == 0 {
		return messages, 0
	}

	out := make([]HistoryMessage, 0, len(kept))
	for _, i := range kept {
		out = append(out, messages[i])
	}
	return out, removed
}
