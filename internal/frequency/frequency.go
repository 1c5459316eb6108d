// Package frequency counts tokens, two-grams and palindromic token spans.
//
// Every result is ordered by count, highest first. Keys with equal counts keep
// the order in which they were first seen in the token sequence.
package frequency

import (
	"cmp"
	"slices"

	"github.com/example/go-textfreq/internal/tokenizer"
)

// Entry associates a key with the number of times it was observed.
type Entry[K comparable] struct {
	Key   K
	Count int
}

// Counter tallies keys and remembers the order they were first added.
type Counter[K comparable] struct {
	index   map[K]int
	entries []Entry[K]
}

// NewCounter returns an empty Counter. sizeHint presizes the key index.
func NewCounter[K comparable](sizeHint int) *Counter[K] {
	return &Counter[K]{index: make(map[K]int, sizeHint)}
}

// Add records one occurrence of k.
func (c *Counter[K]) Add(k K) {
	if i, ok := c.index[k]; ok {
		c.entries[i].Count++
		return
	}
	c.index[k] = len(c.entries)
	c.entries = append(c.entries, Entry[K]{Key: k, Count: 1})
}

// Len returns the number of distinct keys.
func (c *Counter[K]) Len() int { return len(c.entries) }

// Sorted returns the entries by descending count. The sort is stable over
// first-occurrence order, which makes ties deterministic.
func (c *Counter[K]) Sorted() []Entry[K] {
	out := make([]Entry[K], len(c.entries))
	copy(out, c.entries)
	slices.SortStableFunc(out, func(a, b Entry[K]) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

// Count tallies keys and returns the sorted result.
func Count[K comparable](keys []K) []Entry[K] {
	c := NewCounter[K](len(keys))
	for _, k := range keys {
		c.Add(k)
	}
	return c.Sorted()
}

// Total sums the counts of entries.
func Total[K comparable](entries []Entry[K]) int {
	n := 0
	for _, e := range entries {
		n += e.Count
	}
	return n
}

// Words counts each distinct token in the full sequence.
func Words(tokens []tokenizer.Token) []Entry[tokenizer.Token] {
	return Count(tokens)
}

// TwoGrams counts every adjacent token pair. The sequence must not be
// deduplicated; fewer than two tokens give an empty result.
func TwoGrams(tokens []tokenizer.Token) []Entry[tokenizer.TwoGram] {
	if len(tokens) < 2 {
		return []Entry[tokenizer.TwoGram]{}
	}

	c := NewCounter[tokenizer.TwoGram](len(tokens) - 1)
	for i := 0; i < len(tokens)-1; i++ {
		c.Add(tokenizer.NewTwoGram(tokens[i], tokens[i+1]))
	}
	return c.Sorted()
}
