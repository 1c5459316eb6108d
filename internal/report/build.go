package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/go-textfreq/internal/frequency"
	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/tokenizer"
)

// ErrUnknownOperation is returned by Build for an operation outside
// FrequencyOps.
var ErrUnknownOperation = errors.New("unknown operation")

// Analyzer is the part of *processor.Processor that reports are built from.
type Analyzer interface {
	Tokenize(ctx context.Context) ([]tokenizer.Token, error)
	DistinctTokens(ctx context.Context) ([]tokenizer.Token, error)
	WordFrequencies(ctx context.Context) ([]frequency.Entry[tokenizer.Token], error)
	TwoGramFrequencies(ctx context.Context) ([]frequency.Entry[tokenizer.TwoGram], error)
	PalindromeFrequencies(ctx context.Context) ([]frequency.Entry[string], error)
}

// FrequencyOps lists the operations Build accepts.
func FrequencyOps() []string {
	return []string{processor.OpWords, processor.OpTwoGrams, processor.OpPalindromes}
}

// Build runs a frequency operation on a and wraps the result in a Report.
func Build(ctx context.Context, a Analyzer, op, source string) (Report, error) {
	var (
		rows []Row
		err  error
	)
	switch op {
	case processor.OpWords:
		var entries []frequency.Entry[tokenizer.Token]
		if entries, err = a.WordFrequencies(ctx); err == nil {
			rows = FromEntries(entries)
		}
	case processor.OpTwoGrams:
		var entries []frequency.Entry[tokenizer.TwoGram]
		if entries, err = a.TwoGramFrequencies(ctx); err == nil {
			rows = FromEntries(entries)
		}
	case processor.OpPalindromes:
		var entries []frequency.Entry[string]
		if entries, err = a.PalindromeFrequencies(ctx); err == nil {
			rows = FromEntries(entries)
		}
	default:
		return Report{}, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownOperation, op, strings.Join(FrequencyOps(), ", "))
	}
	if err != nil {
		return Report{}, err
	}
	return New(op, source, rows), nil
}

// BuildTokens tokenizes through a, or lists distinct tokens when distinct is
// set, and wraps the result in a TokenList.
func BuildTokens(ctx context.Context, a Analyzer, distinct bool, source string) (TokenList, error) {
	op := processor.OpTokens
	fetch := a.Tokenize
	if distinct {
		op = processor.OpDistinct
		fetch = a.DistinctTokens
	}

	tokens, err := fetch(ctx)
	if err != nil {
		return TokenList{}, err
	}

	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Content()
	}
	return NewTokenList(op, source, out), nil
}
