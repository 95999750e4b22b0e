package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCharacter = `{
  "name": "Eliz",
  "prompt": "Eliz is a cheerful assistant.",
  "client_args": {
    "nicknames": ["eliz", "Lizzy"],
    "context_size": 2048,
    "status": "thinking"
  },
  "model_provider": {
    "endpoint": "http://0.0.0.0:8000/completion",
    "gensettings": {"temperature": 0.7, "max_length": 64}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnvVars isolates a test from the caller's environment.
func clearEnvVars(t *testing.T) {
	for _, key := range []string{"CONFIG", "ENDPOINT", "DISCORD_TOKEN", "PREFIX"} {
		t.Setenv(key, "")
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearEnvVars(t)

	t.Run("defaults", func(t *testing.T) {
		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "", p.Character)
		assert.Equal(t, "", p.Endpoint)
		assert.Equal(t, DefaultPrefix, p.Prefix)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CONFIG", "eliz")
		t.Setenv("ENDPOINT", "10.0.0.2")
		t.Setenv("DISCORD_TOKEN", "secret")
		t.Setenv("PREFIX", "!")

		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "eliz", p.Character)
		assert.Equal(t, "10.0.0.2", p.Endpoint)
		assert.Equal(t, "secret", p.DiscordToken)
		assert.Equal(t, "!", p.Prefix)
	})

	t.Run("flags win", func(t *testing.T) {
		t.Setenv("CONFIG", "eliz")
		p := &Profile{Character: "other"}
		p.FromEnv()
		assert.Equal(t, "other", p.Character)
	})
}

func TestProfileLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		p := &Profile{ConfigFile: filepath.Join(dir, "absent.yaml")}
		require.NoError(t, p.LoadFile())
		assert.Equal(t, "", p.Character)
	})

	t.Run("fills unset fields", func(t *testing.T) {
		path := writeFile(t, dir, "config.yaml", "config: eliz\nendpoint: 192.168.1.5\n")
		p := &Profile{ConfigFile: path}
		require.NoError(t, p.LoadFile())
		assert.Equal(t, "eliz", p.Character)
		assert.Equal(t, "192.168.1.5", p.Endpoint)
	})

	t.Run("environment wins", func(t *testing.T) {
		path := writeFile(t, dir, "config2.yaml", "config: eliz\n")
		p := &Profile{ConfigFile: path, Character: "from-env"}
		require.NoError(t, p.LoadFile())
		assert.Equal(t, "from-env", p.Character)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "config: [unterminated\n")
		p := &Profile{ConfigFile: path}
		assert.Error(t, p.LoadFile())
	})
}

func TestProfileValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eliz.json", sampleCharacter)

	t.Run("applies defaults", func(t *testing.T) {
		p := &Profile{Mode: "weird", CharacterDir: dir, Character: "eliz"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "prod", p.Mode)
		assert.False(t, p.IsDev())
		assert.Equal(t, DefaultPrefix, p.Prefix)
		assert.Equal(t, DefaultLogFile, p.LogFile)
		assert.Equal(t, DefaultMaxConcurrent, p.MaxConcurrent)
		assert.Equal(t, filepath.Join(dir, "eliz.json"), p.CharacterPath())
	})

	t.Run("no character", func(t *testing.T) {
		p := &Profile{CharacterDir: dir}
		assert.Error(t, p.Validate())
	})

	t.Run("missing character file", func(t *testing.T) {
		p := &Profile{CharacterDir: dir, Character: "nobody"}
		assert.Error(t, p.Validate())
	})
}

func TestCompletionEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		own      string
		expected string
	}{
		{"nothing configured", "", "", DefaultCompletionEndpoint},
		{"default character endpoint", "", DefaultCompletionEndpoint, DefaultCompletionEndpoint},
		{"host override", "10.0.0.2", DefaultCompletionEndpoint, "http://10.0.0.2:8000/completion"},
		{"character endpoint wins", "10.0.0.2", "https://model.example/generate", "https://model.example/generate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Endpoint: tt.endpoint}
			c := &Character{ModelProvider: ModelProvider{Endpoint: tt.own}}
			assert.Equal(t, tt.expected, p.CompletionEndpoint(c))
		})
	}
}
