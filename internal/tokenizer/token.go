package tokenizer

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidToken is returned by NewToken for empty or non-normalized content.
var ErrInvalidToken = errors.New("invalid token")

// Token is a normalized word: lowercase, alphanumeric only, never empty.
// Tokens are comparable values and can be used directly as map keys.
type Token struct {
	content string
}

// NewToken validates s and wraps it in a Token.
func NewToken(s string) (Token, error) {
	if s == "" {
		return Token{}, fmt.Errorf("%w: empty content", ErrInvalidToken)
	}

	for _, r := range s {
		if !isWordRune(r) {
			return Token{}, fmt.Errorf("%w: %q contains non-alphanumeric %q", ErrInvalidToken, s, r)
		}
		if unicode.ToLower(r) != r {
			return Token{}, fmt.Errorf("%w: %q is not lowercase", ErrInvalidToken, s)
		}
	}

	return Token{content: s}, nil
}

// MustToken is like NewToken but panics on invalid input.
func MustToken(s string) Token {
	t, err := NewToken(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Content returns the normalized text of the token.
func (t Token) Content() string { return t.content }

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool { return t.content == "" }

func (t Token) String() string { return t.content }

// TwoGram is an ordered pair of adjacent tokens. (a, b) and (b, a) are distinct.
type TwoGram struct {
	First  Token
	Second Token
}

// NewTwoGram pairs first and second in that order.
func NewTwoGram(first, second Token) TwoGram {
	return TwoGram{First: first, Second: second}
}

func (g TwoGram) String() string {
	return g.First.content + " " + g.Second.content
}

// Pairs returns the two-grams formed by every adjacent pair in tokens.
// Fewer than two tokens yield no pairs.
func Pairs(tokens []Token) []TwoGram {
	if len(tokens) < 2 {
		return []TwoGram{}
	}

	pairs := make([]TwoGram, 0, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		pairs = append(pairs, NewTwoGram(tokens[i], tokens[i+1]))
	}
	return pairs
}

// Distinct returns tokens with duplicates removed, keeping first-occurrence order.
func Distinct(tokens []Token) []Token {
	seen := make(map[Token]struct{}, len(tokens))
	out := make([]Token, 0, len(tokens))

	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
