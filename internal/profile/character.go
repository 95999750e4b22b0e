package profile

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

// DefaultCompletionEndpoint is the endpoint character files ship with.
const DefaultCompletionEndpoint = "http://0.0.0.0:8000/completion"

// DefaultContextSize is the prompt token budget when a character sets none.
const DefaultContextSize = 1024

// Character is a persona loaded from <CharacterDir>/<name>.json.
type Character struct {
	Name          string        `mapstructure:"name"`
	Prompt        string        `mapstructure:"prompt"`
	ClientArgs    ClientArgs    `mapstructure:"client_args"`
	ModelProvider ModelProvider `mapstructure:"model_provider"`
}

// ClientArgs controls how the bot behaves in chat.
type ClientArgs struct {
	Nicknames   []string `mapstructure:"nicknames"`
	ContextSize int      `mapstructure:"context_size"`
	Status      string   `mapstructure:"status"`
}

// ModelProvider describes the completion backend.
type ModelProvider struct {
	Provider    string         `mapstructure:"provider"` // http, openai
	Endpoint    string         `mapstructure:"endpoint"`
	Model       string         `mapstructure:"model"`
	APIKey      string         `mapstructure:"api_key"`
	GenSettings map[string]any `mapstructure:"gensettings"`
}

// LoadCharacter reads and validates a character file. Comments and trailing
// commas are allowed. Keys inside gensettings are lower-cased by the loader.
func LoadCharacter(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read character file %s", path)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
		return nil, errors.Wrapf(err, "failed to parse character file %s", path)
	}

	c := &Character{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrapf(err, "failed to decode character file %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid character file %s", path)
	}
	return c, nil
}

// Validate checks required fields and applies defaults.
func (c *Character) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.ClientArgs.ContextSize <= 0 {
		c.ClientArgs.ContextSize = DefaultContextSize
	}
	if c.ModelProvider.Provider == "" {
		c.ModelProvider.Provider = "http"
	}
	if c.ModelProvider.GenSettings == nil {
		c.ModelProvider.GenSettings = map[string]any{}
	}
	return nil
}

// Triggered reports whether content mentions any of the character's nicknames.
func (c *Character) Triggered(content string) bool {
	lower := strings.ToLower(content)
	for _, nick := range c.ClientArgs.Nicknames {
		nick = strings.ToLower(strings.TrimSpace(nick))
		if nick != "" && strings.Contains(lower, nick) {
			return true
		}
	}
	return false
}
