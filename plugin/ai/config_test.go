package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faber6/eliz/internal/profile"
)

func TestNewCompletionConfig(t *testing.T) {
	tests := []struct {
		name     string
		profile  *profile.Profile
		provider profile.ModelProvider
		endpoint string
	}{
		{
			name:     "http with host override",
			profile:  &profile.Profile{Endpoint: "10.0.0.2"},
			provider: profile.ModelProvider{Provider: "http", Endpoint: profile.DefaultCompletionEndpoint},
			endpoint: "http://10.0.0.2:8000/completion",
		},
		{
			name:     "http with character endpoint",
			profile:  &profile.Profile{Endpoint: "10.0.0.2"},
			provider: profile.ModelProvider{Provider: "http", Endpoint: "https://gen.example/completion"},
			endpoint: "https://gen.example/completion",
		},
		{
			name:     "openai default base url",
			profile:  &profile.Profile{Endpoint: "10.0.0.2"},
			provider: profile.ModelProvider{Provider: "openai", Endpoint: profile.DefaultCompletionEndpoint, APIKey: "k"},
			endpoint: "",
		},
		{
			name:     "openai compatible server",
			profile:  &profile.Profile{},
			provider: profile.ModelProvider{Provider: "openai", Endpoint: "http://localhost:1234/v1", APIKey: "k"},
			endpoint: "http://localhost:1234/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &profile.Character{Name: "Eliz", ModelProvider: tt.provider}
			cfg := NewCompletionConfig(tt.profile, c)
			assert.Equal(t, tt.endpoint, cfg.Endpoint)
			assert.Equal(t, tt.provider.Provider, cfg.Provider)
			assert.Equal(t, DefaultTimeout, cfg.Timeout)
		})
	}
}

func TestCompletionConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *CompletionConfig
		expectError bool
	}{
		{"http", &CompletionConfig{Provider: "http", Endpoint: "http://x"}, false},
		{"http without endpoint", &CompletionConfig{Provider: "http"}, true},
		{"openai", &CompletionConfig{Provider: "openai", APIKey: "k"}, false},
		{"openai without key", &CompletionConfig{Provider: "openai"}, true},
		{"unsupported", &CompletionConfig{Provider: "grpc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tt.cfg.GenSettings)
			assert.Equal(t, DefaultMaxRetries, tt.cfg.MaxRetries)
		})
	}

	cfg := &CompletionConfig{Provider: "openai", APIKey: "k"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultModel, cfg.Model)
}

func TestGenSettings(t *testing.T) {
	cfg := &CompletionConfig{GenSettings: map[string]any{
		"max_length":  float64(80),
		"temperature": 0.5,
		"stop":        []any{"\n", 3},
		"single":      "END",
	}}

	assert.Equal(t, 80, cfg.intSetting("max_length", 1))
	assert.Equal(t, 1, cfg.intSetting("missing", 1))
	assert.InDelta(t, 0.5, cfg.floatSetting("temperature", 0), 0.0001)
	assert.Equal(t, []string{"\n"}, cfg.stopSetting("stop"))
	assert.Equal(t, []string{"END"}, cfg.stopSetting("single"))
	assert.Nil(t, cfg.stopSetting("missing"))
}
