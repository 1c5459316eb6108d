package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-textfreq/internal/bench"
	"github.com/example/go-textfreq/internal/config"
	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/report"
)

var benchOps = []string{processor.OpTokens, processor.OpWords, processor.OpTwoGrams, processor.OpPalindromes}

func newBenchCmd() *cobra.Command {
	var (
		op        string
		runs      int
		format    string
		maxMeanMS float64
	)

	cmd := &cobra.Command{
		Use:   "bench [file]",
		Short: "Benchmark one analysis over a text file",
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

			if !slices.Contains(benchOps, op) {
				return fmt.Errorf("--op must be one of %s", strings.Join(benchOps, "|"))
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			results, err := bench.Run(cmd.Context(), runs, benchRunFunc(cfg, path, op))
			if err != nil {
				return err
			}

			return writeBench(cmd.OutOrStdout(), results, format, maxMeanMS)
		},
	}

	cmd.Flags().StringVar(&op, "op", processor.OpWords, "Operation to time: "+strings.Join(benchOps, "|"))
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&maxMeanMS, "max-mean-ms", 0, "Exit non-zero if the mean run exceeds this many milliseconds (0 = disabled)")

	return cmd
}

// benchRunFunc times op on a fresh processor per run, so every run includes
// the tokenize pass.
func benchRunFunc(cfg config.Config, path, op string) bench.RunFunc {
	return func(ctx context.Context) (int, error) {
		p, err := newProcessor(cfg, path)
		if err != nil {
			return 0, err
		}

		if op == processor.OpTokens {
			tokens, err := p.Tokenize(ctx)
			return len(tokens), err
		}

		rep, err := report.Build(ctx, p, op, path)
		if err != nil {
			return 0, err
		}
		slog.Debug("bench run", slog.String("op", op), slog.Int("entries", len(rep.Entries)))
		return len(rep.Entries), nil
	}
}

func writeBench(w io.Writer, results []bench.RunResult, format string, maxMeanMS float64) error {
	stats := bench.ComputeStats(bench.Durations(results))

	switch format {
	case "json":
		bench.FormatJSON(results, stats, w)
	default:
		bench.FormatTable(results, stats, w)
	}

	return bench.CheckMeanThreshold(stats.Mean, maxMeanMS)
}
