package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// HTTPCompleter posts generation settings plus the prompt to a completion
// server. The server answers [{"generated_text": "..."}] or {"error": "..."}.
type HTTPCompleter struct {
	endpoint   string
	settings   []byte
	client     *http.Client
	maxRetries int
}

// NewHTTPCompleter creates a new HTTPCompleter. A nil client gets one with cfg.Timeout.
func NewHTTPCompleter(cfg *CompletionConfig, client *http.Client) *HTTPCompleter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	settings, err := json.Marshal(cfg.GenSettings)
	if err != nil || len(cfg.GenSettings) == 0 {
		settings = []byte("{}")
	}

	return &HTTPCompleter{
		endpoint:   cfg.Endpoint,
		settings:   settings,
		client:     client,
		maxRetries: max(cfg.MaxRetries, 1),
	}
}

// Complete implements Completer.
func (c *HTTPCompleter) Complete(ctx context.Context, prompt string) (*Completion, error) {
	body, err := sjson.SetBytes(append([]byte(nil), c.settings...), "prompt", prompt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode completion request")
	}

	start := time.Now()
	var text string
	err = doWithRetry(ctx, c.maxRetries, func() error {
		text, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Completion{Text: text, Latency: time.Since(start)}, nil
}

func (c *HTTPCompleter) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "completion request to %s failed", c.endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read completion response")
	}

	return parseCompletion(resp.StatusCode, raw)
}

// parseCompletion extracts the generated text from a completion server response.
func parseCompletion(status int, raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.Errorf("completion server returned status %d with invalid JSON", status)
	}

	doc := gjson.ParseBytes(raw)
	if msg := doc.Get("error"); msg.Exists() {
		return "", errors.Wrap(ErrCompletionFailed, msg.String())
	}
	if status != http.StatusOK {
		return "", errors.Errorf("completion server returned status %d", status)
	}

	text := doc.Get("0.generated_text")
	if !text.Exists() {
		text = doc.Get("generated_text")
	}
	if !text.Exists() {
		return "", errors.Wrap(ErrEmptyCompletion, "response has no generated_text")
	}
	return text.String(), nil
}

var _ Completer = (*HTTPCompleter)(nil)
