// Package processor is the entry point for analysing a text file. A Processor
// tokenizes its source once, caches the token sequence and serves word,
// two-gram and palindrome frequencies from that cache.
//
// A Processor is not safe for concurrent use. Callers that need parallel
// analyses should create one Processor each.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/go-textfreq/internal/frequency"
	"github.com/example/go-textfreq/internal/metrics"
	"github.com/example/go-textfreq/internal/text"
	"github.com/example/go-textfreq/internal/tokenizer"
)

// SourceExt is the file-name suffix a source path must carry.
const SourceExt = ".txt"

var (
	// ErrInvalidSourcePath is returned by NewFile for an empty path or one
	// without the .txt suffix. No I/O happens before it is returned.
	ErrInvalidSourcePath = errors.New("invalid source path")
	// ErrSourceNotFound is returned when no file exists at the path when a
	// scan begins.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrSourceUnreadable wraps any other failure to open, decode or read the
	// source.
	ErrSourceUnreadable = errors.New("source file unreadable")
)

// Operation names, used for metrics and logging.
const (
	OpTokens      = "tokens"
	OpDistinct    = "distinct"
	OpWords       = "words"
	OpTwoGrams    = "twograms"
	OpPalindromes = "palindromes"
)

// State tells whether the token cache is populated.
type State int

const (
	Unscanned State = iota
	Scanned
)

func (s State) String() string {
	switch s {
	case Unscanned:
		return "unscanned"
	case Scanned:
		return "scanned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Processor owns a source file and its cached token sequence.
type Processor struct {
	path       string
	encoding   string
	bufferSize int
	nfc        bool
	root       *os.Root
	tok        tokenizer.Tokenizer
	logger     *slog.Logger
	recorder   metrics.Recorder

	state  State
	tokens []tokenizer.Token
}

// Option configures a Processor.
type Option func(*Processor)

// WithBufferSize sets the tokenizer read chunk, in runes.
func WithBufferSize(n int) Option {
	return func(p *Processor) { p.bufferSize = n }
}

// WithEncoding selects the source character encoding (see text.Encodings).
func WithEncoding(enc string) Option {
	return func(p *Processor) { p.encoding = enc }
}

// WithNFC composes combining sequences to Unicode NFC before tokenizing.
func WithNFC(enabled bool) Option {
	return func(p *Processor) { p.nfc = enabled }
}

// WithRoot resolves the source path inside root. Symlinks and ".." may not
// leave the root directory. The caller keeps root open while the processor is
// in use.
func WithRoot(root *os.Root) Option {
	return func(p *Processor) { p.root = root }
}

// WithTokenizer replaces the default chunked tokenizer.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(p *Processor) { p.tok = t }
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// ValidSourcePath reports whether path names a .txt file. Only the name is
// checked; the file need not exist.
func ValidSourcePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), SourceExt)
}

// NewFile returns an Unscanned processor for the text file at path.
func NewFile(path string, opts ...Option) (*Processor, error) {
	if !ValidSourcePath(path) {
		return nil, fmt.Errorf("%w: %q (expected a %s file)", ErrInvalidSourcePath, path, SourceExt)
	}

	p := &Processor{
		path:       path,
		encoding:   text.EncodingUTF8,
		bufferSize: tokenizer.DefaultBufferSize,
		logger:     slog.Default(),
		recorder:   metrics.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}

	enc, err := text.NormalizeEncoding(p.encoding)
	if err != nil {
		return nil, err
	}
	p.encoding = enc

	if p.tok == nil {
		p.tok = tokenizer.New(tokenizer.WithBufferSize(p.bufferSize))
	}
	return p, nil
}

// Path returns the source path.
func (p *Processor) Path() string { return p.path }

// State returns the cache state.
func (p *Processor) State() State { return p.state }

// Invalidate drops the cached tokens; the next operation rescans the source.
func (p *Processor) Invalidate() {
	p.state = Unscanned
	p.tokens = nil
}

// Tokenize always rescans the source, replaces the cache and returns the
// full token sequence in source order.
func (p *Processor) Tokenize(ctx context.Context) ([]tokenizer.Token, error) {
	if err := p.scan(ctx); err != nil {
		return nil, err
	}
	p.recorder.IncOperation(OpTokens)
	return cloneTokens(p.tokens), nil
}

// DistinctTokens returns each token once, in first-occurrence order.
func (p *Processor) DistinctTokens(ctx context.Context) ([]tokenizer.Token, error) {
	if err := p.ensureScanned(ctx); err != nil {
		return nil, err
	}
	p.recorder.IncOperation(OpDistinct)
	return tokenizer.Distinct(p.tokens), nil
}

// WordFrequencies counts every token, highest count first.
func (p *Processor) WordFrequencies(ctx context.Context) ([]frequency.Entry[tokenizer.Token], error) {
	if err := p.ensureScanned(ctx); err != nil {
		return nil, err
	}
	p.recorder.IncOperation(OpWords)
	return frequency.Words(p.tokens), nil
}

// TwoGramFrequencies counts adjacent token pairs, highest count first.
func (p *Processor) TwoGramFrequencies(ctx context.Context) ([]frequency.Entry[tokenizer.TwoGram], error) {
	if err := p.ensureScanned(ctx); err != nil {
		return nil, err
	}
	p.recorder.IncOperation(OpTwoGrams)
	return frequency.TwoGrams(p.tokens), nil
}

// PalindromeFrequencies counts palindromic token spans, highest count first.
func (p *Processor) PalindromeFrequencies(ctx context.Context) ([]frequency.Entry[string], error) {
	if err := p.ensureScanned(ctx); err != nil {
		return nil, err
	}
	p.recorder.IncOperation(OpPalindromes)
	out, err := frequency.PalindromesContext(ctx, p.tokens)
	if err != nil {
		return nil, fmt.Errorf("palindromes %s: %w", p.path, err)
	}
	return out, nil
}

func (p *Processor) ensureScanned(ctx context.Context) error {
	if p.state == Scanned {
		return nil
	}
	return p.scan(ctx)
}

// scan runs one tokenize pass. A failed pass leaves the processor Unscanned.
func (p *Processor) scan(ctx context.Context) error {
	start := time.Now()

	tokens, err := p.read(ctx)
	elapsed := time.Since(start)
	if err != nil {
		p.Invalidate()
		p.recorder.ObserveScan(elapsed, 0, scanResult(err))
		p.logger.DebugContext(ctx, "scan failed",
			slog.String("path", p.path),
			slog.String("error", err.Error()),
		)
		return err
	}

	p.tokens = tokens
	p.state = Scanned
	p.recorder.ObserveScan(elapsed, len(tokens), metrics.ResultOK)
	p.logger.DebugContext(ctx, "scan complete",
		slog.String("path", p.path),
		slog.String("encoding", p.encoding),
		slog.Int("tokens", len(tokens)),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

func (p *Processor) read(ctx context.Context) ([]tokenizer.Token, error) {
	f, err := p.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := text.NewReader(f, p.encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, p.path, err)
	}
	if p.nfc {
		r = text.NFCReader(r)
	}

	tokens, err := p.tok.Tokenize(ctx, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan %s: %w", p.path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, p.path, err)
	}
	return tokens, nil
}

func (p *Processor) open() (*os.File, error) {
	stat, openFile := os.Stat, os.Open
	if p.root != nil {
		stat, openFile = p.root.Stat, p.root.Open
	}

	info, err := stat(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p.path)
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, p.path)
	}

	f, err := openFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p.path)
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	return f, nil
}

func scanResult(err error) string {
	if errors.Is(err, ErrSourceNotFound) {
		return metrics.ResultNotFound
	}
	return metrics.ResultError
}

func cloneTokens(tokens []tokenizer.Token) []tokenizer.Token {
	out := make([]tokenizer.Token, len(tokens))
	copy(out, tokens)
	return out
}
