package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-textfreq/internal/config"
	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/report"
)

const menuPrompt = `Press 1 to tokenize
Press 2 to calculate word frequencies
Press 3 to calculate 2-gram frequencies
Press 4 to calculate palindrome frequencies
Press 0 to exit
`

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu [file]",
		Short: "Interactively run analyses over one text file",
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

			return runMenu(cmd.Context(), menuSession{
				cfg:  cfg,
				path: path,
				proc: p,
				in:   cmd.InOrStdin(),
				out:  cmd.OutOrStdout(),
				errw: cmd.ErrOrStderr(),
			})
		},
	}
}

type menuSession struct {
	cfg  config.Config
	path string
	proc *processor.Processor
	in   io.Reader
	out  io.Writer
	errw io.Writer
}

// runMenu reads one choice per line until 0 or end of input. All choices share
// one processor, so only the first analysis (and every tokenize) reads the file.
func runMenu(ctx context.Context, s menuSession) error {
	sc := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, menuPrompt)
		if !sc.Scan() {
			return sc.Err()
		}

		choice := strings.TrimSpace(sc.Text())
		if choice == "0" {
			return nil
		}

		start := time.Now()
		err := s.run(ctx, choice)
		if err != nil {
			fmt.Fprintf(s.errw, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(s.out, "Elapsed time: %s\n\n", time.Since(start))
	}
}

func (s menuSession) run(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		list, err := report.BuildTokens(ctx, s.proc, false, s.path)
		if err != nil {
			return err
		}
		return report.WriteTokens(s.out, s.cfg.Output.Format, list)
	case "2", "3", "4":
		op := map[string]string{
			"2": processor.OpWords,
			"3": processor.OpTwoGrams,
			"4": processor.OpPalindromes,
		}[choice]
		rep, err := report.Build(ctx, s.proc, op, s.path)
		if err != nil {
			return err
		}
		return report.Write(s.out, s.cfg.Output.Format, rep.Truncate(s.cfg.Output.Limit))
	default:
		return fmt.Errorf("unknown option %q", choice)
	}
}
