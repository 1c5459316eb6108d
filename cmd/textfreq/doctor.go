package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-textfreq/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var skipScan bool

	cmd := &cobra.Command{
		Use:   "doctor [file]",
		Short: "Run source file and settings checks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// A missing path is reported as a failed check, not a usage error.
			path, _ := sourcePath(cfg, args)

			out := cmd.OutOrStdout()
			result := doctor.Run(cmd.Context(), doctor.Config{
				SourcePath:   path,
				Encoding:     cfg.Source.Encoding,
				BufferSize:   cfg.Source.BufferSize,
				OutputFormat: cfg.Output.Format,
				NFC:          cfg.Source.NFC,
				SkipScan:     skipScan,
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipScan, "skip-scan", false, "Skip the trial tokenize pass")

	return cmd
}
