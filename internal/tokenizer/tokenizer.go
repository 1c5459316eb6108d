// Package tokenizer splits text into normalized word tokens.
// Words are maximal runs of letters and digits; everything else is a boundary.
// Input is consumed in fixed-size rune chunks, and a word that straddles two
// chunks is reassembled before it is emitted.
package tokenizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode"
)

// DefaultBufferSize is the number of runes read per chunk.
const DefaultBufferSize = 1024

// Tokenizer turns a character stream into tokens in source order.
type Tokenizer interface {
	Tokenize(ctx context.Context, r io.Reader) ([]Token, error)
}

// Stream is the chunked Tokenizer implementation.
type Stream struct {
	bufferSize int
}

// Option configures a Stream.
type Option func(*Stream)

// WithBufferSize sets the chunk size in runes. Values below 1 keep the default.
func WithBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// New returns a Stream tokenizer.
func New(opts ...Option) *Stream {
	s := &Stream{bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BufferSize returns the configured chunk size.
func (s *Stream) BufferSize() int { return s.bufferSize }

// Tokenize reads r to the end and returns every token, duplicates included.
// On error no tokens are returned.
func (s *Stream) Tokenize(ctx context.Context, r io.Reader) ([]Token, error) {
	tokens := make([]Token, 0)

	err := s.Scan(ctx, r, func(t Token) {
		tokens = append(tokens, t)
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Scan reads r chunk by chunk and calls emit for each token as soon as its
// closing boundary is seen. ctx is checked before every chunk.
func (s *Stream) Scan(ctx context.Context, r io.Reader, emit func(Token)) error {
	br := bufio.NewReader(r)
	chunk := make([]rune, s.bufferSize)

	var acc accumulator
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := readChunk(br, chunk)
		for _, c := range chunk[:n] {
			if isWordRune(c) {
				acc.push(c)
				continue
			}
			if t, ok := acc.flush(); ok {
				emit(t)
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read chunk: %w", readErr)
		}
	}

	// Source ended mid-word.
	if t, ok := acc.flush(); ok {
		emit(t)
	}
	return nil
}

// readChunk fills chunk with up to len(chunk) runes. Invalid UTF-8 decodes to
// U+FFFD, which is a word boundary.
func readChunk(br *bufio.Reader, chunk []rune) (int, error) {
	for i := range chunk {
		c, _, err := br.ReadRune()
		if err != nil {
			return i, err
		}
		chunk[i] = c
	}
	return len(chunk), nil
}

type wordState int

const (
	stateIdle wordState = iota
	stateAccumulating
)

// accumulator holds the word in progress. It outlives a single chunk.
type accumulator struct {
	state wordState
	buf   []rune
}

func (a *accumulator) push(c rune) {
	a.buf = append(a.buf, unicode.ToLower(c))
	a.state = stateAccumulating
}

func (a *accumulator) flush() (Token, bool) {
	if a.state == stateIdle {
		return Token{}, false
	}

	t := Token{content: string(a.buf)}
	a.buf = a.buf[:0]
	a.state = stateIdle
	return t, true
}
