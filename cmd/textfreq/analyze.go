package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/go-textfreq/internal/config"
	"github.com/example/go-textfreq/internal/metrics"
	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/report"
)

var errNoSource = errors.New("no source file: pass a path argument or set --source-path")

// sourcePath prefers the positional argument over source.path.
func sourcePath(cfg config.Config, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Source.Path == "" {
		return "", errNoSource
	}
	return cfg.Source.Path, nil
}

func newProcessor(cfg config.Config, path string) (*processor.Processor, error) {
	return processor.NewFile(path,
		processor.WithEncoding(cfg.Source.Encoding),
		processor.WithBufferSize(cfg.Source.BufferSize),
		processor.WithNFC(cfg.Source.NFC),
		processor.WithLogger(slog.Default()),
		processor.WithRecorder(metrics.Default()),
	)
}

func newTokensCmd() *cobra.Command {
	var distinct bool

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token sequence of a text file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := sourcePath(cfg, args)
			if err != nil {
				return err
			}
			p, err := newProcessor(cfg, path)
			if err != nil {
				return err
			}

			list, err := report.BuildTokens(cmd.Context(), p, distinct, path)
			if err != nil {
				return err
			}
			return report.WriteTokens(cmd.OutOrStdout(), cfg.Output.Format, list)
		},
	}

	cmd.Flags().BoolVar(&distinct, "distinct", false, "Print each token once, in first-occurrence order")

	return cmd
}

// newFrequencyCmd builds the words, twograms and palindromes commands; op is
// both the command name and the report operation.
func newFrequencyCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " [file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := sourcePath(cfg, args)
			if err != nil {
				return err
			}
			p, err := newProcessor(cfg, path)
			if err != nil {
				return err
			}

			rep, err := report.Build(cmd.Context(), p, op, path)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), cfg.Output.Format, rep.Truncate(cfg.Output.Limit))
		},
	}
}
