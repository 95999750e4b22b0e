package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/faber6/eliz/internal/profile"
	"github.com/faber6/eliz/plugin/ai/timeout"
)

const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"

	DefaultModel      = "gpt-3.5-turbo-instruct"
	DefaultMaxTokens  = 64
	DefaultTimeout    = timeout.CompletionTimeout
	DefaultMaxRetries = 1
)

// CompletionConfig represents the text completion backend configuration.
type CompletionConfig struct {
	Provider    string // http, openai
	Endpoint    string
	Model       string // openai only
	APIKey      string // openai only
	GenSettings map[string]any
	Timeout     time.Duration
	MaxRetries  int
}

// NewCompletionConfig creates a completion config for a character.
func NewCompletionConfig(p *profile.Profile, c *profile.Character) *CompletionConfig {
	cfg := &CompletionConfig{
		Provider:    c.ModelProvider.Provider,
		Model:       c.ModelProvider.Model,
		APIKey:      c.ModelProvider.APIKey,
		GenSettings: c.ModelProvider.GenSettings,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		// An unset endpoint means the public API.
		if c.ModelProvider.Endpoint != profile.DefaultCompletionEndpoint {
			cfg.Endpoint = c.ModelProvider.Endpoint
		}
	default:
		cfg.Endpoint = p.CompletionEndpoint(c)
	}

	return cfg
}

// Validate validates the configuration.
func (c *CompletionConfig) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.GenSettings == nil {
		c.GenSettings = map[string]any{}
	}

	switch c.Provider {
	case "", ProviderHTTP:
		if c.Endpoint == "" {
			return errors.New("completion endpoint is required")
		}
	case ProviderOpenAI:
		if c.APIKey == "" {
			return errors.New("openai API key is required")
		}
		if c.Model == "" {
			c.Model = DefaultModel
		}
	default:
		return errors.Errorf("unsupported completion provider: %s", c.Provider)
	}

	return nil
}

// intSetting reads an integer generation setting. JSON numbers decode as float64.
func (c *CompletionConfig) intSetting(key string, fallback int) int {
	switch v := c.GenSettings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// floatSetting reads a float generation setting.
func (c *CompletionConfig) floatSetting(key string, fallback float32) float32 {
	switch v := c.GenSettings[key].(type) {
	case float64:
		return float32(v)
	case float32:
		return v
	case int:
		return float32(v)
	}
	return fallback
}

// stopSetting reads stop sequences given as a string or a list of strings.
func (c *CompletionConfig) stopSetting(key string) []string {
	switch v := c.GenSettings[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		stop := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				stop = append(stop, str)
			}
		}
		return stop
	}
	return nil
}
