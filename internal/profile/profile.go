package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the bot.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// ConfigFile is the YAML file naming the default character and endpoint
	ConfigFile string
	// CharacterDir holds the <name>.json character files
	CharacterDir string
	// Character is the character file name without extension
	Character string // CONFIG (falls back to the YAML "config" key)
	// Endpoint is the completion host
	Endpoint string // ENDPOINT (falls back to the YAML "endpoint" key)
	// DiscordToken authenticates the bot
	DiscordToken string // DISCORD_TOKEN
	// Prefix is the command prefix; prefixed messages are not answered
	Prefix string // PREFIX (default: ?)
	// LogFile receives the structured log
	LogFile string
	// MaxConcurrent bounds in-flight completions
	MaxConcurrent int
	// Version is the current version of the bot
	Version string
}

const (
	DefaultConfigFile    = "./config.yaml"
	DefaultCharacterDir  = "./config"
	DefaultPrefix        = "?"
	DefaultLogFile       = "./log"
	DefaultMaxConcurrent = 2
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills unset fields from the environment.
// Values already set (by flags) are left alone.
func (p *Profile) FromEnv() {
	fill := func(field *string, key, defaultValue string) {
		if *field == "" {
			*field = getEnvOrDefault(key, defaultValue)
		}
	}

	fill(&p.Character, "CONFIG", "")
	fill(&p.Endpoint, "ENDPOINT", "")
	fill(&p.DiscordToken, "DISCORD_TOKEN", "")
	fill(&p.Prefix, "PREFIX", DefaultPrefix)
}

// LoadFile fills Character and Endpoint from the YAML config file when they
// are still unset. A missing file is not an error.
func (p *Profile) LoadFile() error {
	if p.ConfigFile == "" {
		p.ConfigFile = DefaultConfigFile
	}
	if _, err := os.Stat(p.ConfigFile); os.IsNotExist(err) {
		slog.Debug("config file not found, skipping", slog.String("file", p.ConfigFile))
		return nil
	}

	v := viper.New()
	v.SetConfigFile(p.ConfigFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", p.ConfigFile)
	}

	if p.Character == "" {
		p.Character = v.GetString("config")
	}
	if p.Endpoint == "" {
		p.Endpoint = v.GetString("endpoint")
	}
	return nil
}

// CharacterPath returns the path of the selected character file.
func (p *Profile) CharacterPath() string {
	return filepath.Join(p.CharacterDir, p.Character+".json")
}

// CompletionEndpoint resolves the completion URL for c. A configured endpoint
// host becomes http://<host>:8000/completion, but a character file that names
// anything other than the default endpoint always wins.
func (p *Profile) CompletionEndpoint(c *Character) string {
	own := strings.TrimSpace(c.ModelProvider.Endpoint)
	if own != "" && own != DefaultCompletionEndpoint {
		return own
	}
	if p.Endpoint != "" {
		return fmt.Sprintf("http://%s:8000/completion", p.Endpoint)
	}
	return DefaultCompletionEndpoint
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "prod"
	}
	if p.ConfigFile == "" {
		p.ConfigFile = DefaultConfigFile
	}
	if p.CharacterDir == "" {
		p.CharacterDir = DefaultCharacterDir
	}
	if p.Prefix == "" {
		p.Prefix = DefaultPrefix
	}
	if p.LogFile == "" {
		p.LogFile = DefaultLogFile
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = DefaultMaxConcurrent
	}

	if p.Character == "" {
		return errors.New("no character selected, set CONFIG or the config key in " + p.ConfigFile)
	}
	if _, err := os.Stat(p.CharacterPath()); err != nil {
		slog.Error("failed to access character file", slog.String("file", p.CharacterPath()), slog.String("error", err.Error()))
		return errors.Wrapf(err, "unable to access character file %s", p.CharacterPath())
	}
	return nil
}
