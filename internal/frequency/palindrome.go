package frequency

import (
	"context"

	"github.com/example/go-textfreq/internal/tokenizer"
)

// Palindromes enumerates every contiguous span tokens[i..j], joins the token
// contents without a separator and counts the spans that read the same in
// both directions. Spans shorter than two characters never count.
//
// The scan is O(n²) spans with an O(n) check each.
func Palindromes(tokens []tokenizer.Token) []Entry[string] {
	out, _ := PalindromesContext(context.Background(), tokens)
	return out
}

// PalindromesContext is Palindromes with ctx checked before each start
// position. A cancelled scan returns ctx's error and no result.
func PalindromesContext(ctx context.Context, tokens []tokenizer.Token) ([]Entry[string], error) {
	runes := make([][]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = []rune(t.Content())
	}

	c := NewCounter[string](0)
	var span []rune
	for i := range runes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		span = span[:0]
		for j := i; j < len(runes); j++ {
			span = append(span, runes[j]...)
			if isPalindrome(span) {
				c.Add(string(span))
			}
		}
	}
	return c.Sorted(), nil
}

// IsPalindrome reports whether s has at least two characters and reads the
// same forwards and backwards. Characters are compared as runes.
func IsPalindrome(s string) bool {
	return isPalindrome([]rune(s))
}

func isPalindrome(s []rune) bool {
	n := len(s)
	if n < 2 {
		return false
	}
	for k := 0; k < n/2; k++ {
		if s[k] != s[n-1-k] {
			return false
		}
	}
	return true
}
