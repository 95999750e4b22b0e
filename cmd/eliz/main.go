package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faber6/eliz/internal/profile"
	"github.com/faber6/eliz/plugin/ai"
	"github.com/faber6/eliz/plugin/ai/cache"
	aicontext "github.com/faber6/eliz/plugin/ai/context"
	"github.com/faber6/eliz/plugin/discord"
	"github.com/faber6/eliz/server/service/chat"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "eliz",
		Short: `A Discord chat bot that plays a character backed by a text completion model.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, character, err := loadProfile()
			if err != nil {
				return err
			}

			logFile, err := setupLogger(instanceProfile)
			if err != nil {
				return err
			}
			defer logFile.Close()

			return run(instanceProfile, character)
		},
	}

	assembleCmd = &cobra.Command{
		Use:   "assemble",
		Short: "Print the prompt the character would send for a conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, character, err := loadProfile()
			if err != nil {
				return err
			}

			conversation, err := readConversation(viper.GetString("file"))
			if err != nil {
				return err
			}

			tok, err := newTokenizer()
			if err != nil {
				return err
			}

			res, err := chat.NewCompositor(tok, character).AssembleConversationResult(conversation, true, character.Name)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			if instanceProfile.IsDev() {
				fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d of %d, fragments: %d\n", res.Tokens(), character.ClientArgs.ContextSize, len(res.Activated))
			}
			return nil
		},
	}
)

func run(instanceProfile *profile.Profile, character *profile.Character) error {
	tok, err := newTokenizer()
	if err != nil {
		return err
	}

	completer, err := ai.NewCompleter(ai.NewCompletionConfig(instanceProfile, character))
	if err != nil {
		return err
	}

	bot, err := discord.New(instanceProfile.DiscordToken, character, instanceProfile.Prefix, slog.Default())
	if err != nil {
		return err
	}

	cfg := chat.DefaultConfig()
	cfg.MaxConcurrent = int64(instanceProfile.MaxConcurrent)
	// NewResponder creates the metrics collector; the observability package is internal to server.
	responder := chat.NewResponder(character, tok, completer, bot, cfg, nil, slog.Default())
	metrics := responder.Metrics()
	bot.SetResponder(responder)

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := bot.Start(); err != nil {
		return err
	}
	slog.Info("bot started",
		slog.String("version", instanceProfile.Version),
		slog.String("mode", instanceProfile.Mode),
		slog.String("character", character.Name),
		slog.String("provider", character.ModelProvider.Provider))
	printGreetings(instanceProfile, character)

	sig := <-c
	slog.Info(fmt.Sprintf("%s received", sig.String()))

	snap := metrics.Snapshot()
	slog.Info("bot stopped",
		slog.Int64("replies", snap.RequestTotal),
		slog.Int64("failed", snap.RequestFailed),
		slog.Int64("prompt_tokens", snap.PromptTokens))
	return bot.Stop()
}

func loadProfile() (*profile.Profile, *profile.Character, error) {
	instanceProfile := &profile.Profile{
		Mode:          viper.GetString("mode"),
		ConfigFile:    viper.GetString("config"),
		CharacterDir:  viper.GetString("character-dir"),
		Character:     viper.GetString("character"),
		Endpoint:      viper.GetString("endpoint"),
		LogFile:       viper.GetString("log-file"),
		MaxConcurrent: viper.GetInt("max-concurrent"),
		Version:       version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.LoadFile(); err != nil {
		return nil, nil, err
	}
	if err := instanceProfile.Validate(); err != nil {
		return nil, nil, err
	}

	character, err := profile.LoadCharacter(instanceProfile.CharacterPath())
	if err != nil {
		return nil, nil, err
	}
	return instanceProfile, character, nil
}

func newTokenizer() (aicontext.Tokenizer, error) {
	tok, err := aicontext.NewTiktokenTokenizer(aicontext.DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return cache.NewTokenizerCache(tok, cache.DefaultCapacity), nil
}

// setupLogger appends structured logs to the profile's log file. In dev mode
// the log is mirrored to stderr at debug level.
func setupLogger(p *profile.Profile) (io.Closer, error) {
	f, err := os.OpenFile(p.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", p.LogFile)
	}

	var w io.Writer = f
	level := slog.LevelInfo
	if p.IsDev() {
		w = io.MultiWriter(f, os.Stderr)
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return f, nil
}

func readConversation(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read conversation %s", path)
	}
	return string(data), nil
}

func init() {
	viper.SetDefault("mode", "prod")
	viper.SetDefault("config", profile.DefaultConfigFile)
	viper.SetDefault("character-dir", profile.DefaultCharacterDir)
	viper.SetDefault("log-file", profile.DefaultLogFile)
	viper.SetDefault("max-concurrent", profile.DefaultMaxConcurrent)

	rootCmd.PersistentFlags().String("mode", "prod", `mode of the bot, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("config", profile.DefaultConfigFile, "YAML file naming the default character and endpoint")
	rootCmd.PersistentFlags().String("character", "", "character file name without extension (overrides CONFIG)")
	rootCmd.PersistentFlags().String("character-dir", profile.DefaultCharacterDir, "directory holding character files")
	rootCmd.PersistentFlags().String("endpoint", "", "completion host (overrides ENDPOINT)")
	rootCmd.PersistentFlags().String("log-file", profile.DefaultLogFile, "file to append logs to")
	rootCmd.PersistentFlags().Int("max-concurrent", profile.DefaultMaxConcurrent, "maximum in-flight completions")
	assembleCmd.Flags().String("file", "-", `conversation transcript, "-" for stdin`)

	for _, name := range []string{"mode", "config", "character", "character-dir", "endpoint", "log-file", "max-concurrent"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("file", assembleCmd.Flags().Lookup("file")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("eliz")
	viper.AutomaticEnv()
	if err := viper.BindEnv("character-dir", "ELIZ_CHARACTER_DIR"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("log-file", "ELIZ_LOG_FILE"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("max-concurrent", "ELIZ_MAX_CONCURRENT"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(assembleCmd)
}

func printGreetings(p *profile.Profile, c *profile.Character) {
	if p.IsDev() {
		println("Development mode is enabled")
		println("Character:", p.CharacterPath())
	}
	fmt.Printf(`---
%s is online (version %s)
---
`, c.Name, p.Version)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
