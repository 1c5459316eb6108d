// Package doctor provides preflight checks for a textfreq source file.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/report"
	"github.com/example/go-textfreq/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds the settings each doctor check inspects.
type Config struct {
	// SourcePath is the text file to analyse.
	SourcePath string
	// Encoding is the configured source encoding name.
	Encoding string
	// BufferSize is the tokenizer chunk size in runes.
	BufferSize int
	// OutputFormat is the configured report format. Empty skips the check.
	OutputFormat string
	// NFC enables Unicode NFC composition during the trial scan.
	NFC bool
	// SkipScan skips the trial tokenize pass over the source.
	SkipScan bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends a failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

// Run executes all checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(ctx context.Context, cfg Config, w io.Writer) Result {
	var res Result

	// ---- encoding ---------------------------------------------------------
	enc, encErr := text.NormalizeEncoding(cfg.Encoding)
	if encErr != nil {
		res.AddFailure(fmt.Sprintf("encoding: %v", encErr))
		fmt.Fprintf(w, "%s encoding: %v\n", FailMark, encErr)
	} else {
		fmt.Fprintf(w, "%s encoding: %s\n", PassMark, enc)
	}

	// ---- buffer size ------------------------------------------------------
	if err := checkBufferSize(cfg.BufferSize); err != nil {
		res.AddFailure(fmt.Sprintf("buffer size: %v", err))
		fmt.Fprintf(w, "%s buffer size: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s buffer size: %d runes\n", PassMark, cfg.BufferSize)
	}

	// ---- output format ----------------------------------------------------
	if cfg.OutputFormat != "" {
		if f, err := report.NormalizeFormat(cfg.OutputFormat); err != nil {
			res.AddFailure(fmt.Sprintf("output format: %v", err))
			fmt.Fprintf(w, "%s output format: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s output format: %s\n", PassMark, f)
		}
	}

	// ---- source path ------------------------------------------------------
	if !processor.ValidSourcePath(cfg.SourcePath) {
		msg := fmt.Sprintf("source path %q: expected a %s file", cfg.SourcePath, processor.SourceExt)
		res.AddFailure(msg)
		fmt.Fprintf(w, "%s %s\n", FailMark, msg)
		return res
	}
	fmt.Fprintf(w, "%s source path: %s\n", PassMark, cfg.SourcePath)

	// ---- source file ------------------------------------------------------
	size, err := checkReadable(cfg.SourcePath)
	if err != nil {
		res.AddFailure(fmt.Sprintf("source file %q: %v", cfg.SourcePath, err))
		fmt.Fprintf(w, "%s source file %s: %v\n", FailMark, cfg.SourcePath, err)
		return res
	}
	fmt.Fprintf(w, "%s source file: %d bytes\n", PassMark, size)

	// ---- trial scan -------------------------------------------------------
	if cfg.SkipScan || encErr != nil || cfg.BufferSize < 1 {
		return res
	}
	tokens, err := trialScan(ctx, cfg.SourcePath, enc, cfg.BufferSize, cfg.NFC)
	if err != nil {
		res.AddFailure(fmt.Sprintf("source scan: %v", err))
		fmt.Fprintf(w, "%s source scan: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s source scan: %d tokens\n", PassMark, tokens)
	}

	return res
}

func trialScan(ctx context.Context, path, enc string, bufferSize int, nfc bool) (int, error) {
	p, err := processor.NewFile(path,
		processor.WithEncoding(enc),
		processor.WithBufferSize(bufferSize),
		processor.WithNFC(nfc),
	)
	if err != nil {
		return 0, err
	}
	tokens, err := p.Tokenize(ctx)
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// checkBufferSize returns an error unless n is a usable tokenizer chunk size.
func checkBufferSize(n int) error {
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

// checkReadable opens path and returns its size. Directories are rejected.
func checkReadable(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("is a directory")
	}
	return info.Size(), nil
}
