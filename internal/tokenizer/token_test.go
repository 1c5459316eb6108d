package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lowercase word", "hello", false},
		{"digits", "2024", false},
		{"mixed alnum", "r2d2", false},
		{"unicode lowercase", "straße", false},
		{"empty", "", true},
		{"uppercase", "Hello", true},
		{"space", "a b", true},
		{"punctuation", "end.", true},
		{"underscore", "a_b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewToken(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				assert.True(t, tok.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, tok.Content())
			assert.Equal(t, tt.input, tok.String())
		})
	}
}

func TestMustToken_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { MustToken("Nope") })
	assert.NotPanics(t, func() { MustToken("yes") })
}

func TestToken_StructuralEquality(t *testing.T) {
	a := MustToken("word")
	b := MustToken("word")
	assert.True(t, a == b)

	m := map[Token]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
}

func TestTwoGram_Ordered(t *testing.T) {
	dog, cat := MustToken("dog"), MustToken("cat")

	assert.Equal(t, NewTwoGram(dog, cat), NewTwoGram(dog, cat))
	assert.NotEqual(t, NewTwoGram(dog, cat), NewTwoGram(cat, dog))
	assert.Equal(t, "dog cat", NewTwoGram(dog, cat).String())
}

func TestPairs(t *testing.T) {
	a, b, c := MustToken("a"), MustToken("b"), MustToken("c")

	assert.Empty(t, Pairs(nil))
	assert.Empty(t, Pairs([]Token{a}))
	assert.Equal(t, []TwoGram{{a, b}}, Pairs([]Token{a, b}))
	assert.Equal(t, []TwoGram{{a, b}, {b, c}, {c, a}}, Pairs([]Token{a, b, c, a}))
}

func TestDistinct_FirstOccurrenceOrder(t *testing.T) {
	toks := []Token{MustToken("b"), MustToken("a"), MustToken("b"), MustToken("c"), MustToken("a")}

	got := Distinct(toks)
	assert.Equal(t, []Token{MustToken("b"), MustToken("a"), MustToken("c")}, got)
	assert.Len(t, toks, 5, "input must not be modified")
	assert.Empty(t, Distinct(nil))
}
