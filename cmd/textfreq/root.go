package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-textfreq/internal/config"
	"github.com/example/go-textfreq/internal/metrics"
	"github.com/example/go-textfreq/internal/server"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "textfreq",
		Short:         "Token, word, two-gram and palindrome frequencies for text files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			path := activeCfg.Metrics.Textfile
			if path == "" {
				return nil
			}
			if err := metrics.WriteTextfile(path, metrics.Registry); err != nil {
				return fmt.Errorf("write metrics textfile: %w", err)
			}
			slog.Debug("metrics written", slog.String("path", path))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newFrequencyCmd("words", "Print word frequencies, most frequent first"))
	cmd.AddCommand(newFrequencyCmd("twograms", "Print adjacent token pair frequencies"))
	cmd.AddCommand(newFrequencyCmd("palindromes", "Print palindromic token span frequencies"))
	cmd.AddCommand(newMenuCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Source.BufferSize == 0 {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}
