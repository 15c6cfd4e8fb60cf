package ngram

import (
	"fmt"
	"strings"
)

// Token represents a single lexical token produced by a tokenizer
type Token struct {
	Type   string // Token type (e.g., "identifier", "word", "char", "bpe")
	Value  string // Original token value
	Line   int    // Line number in source (1-based, 0 if unknown)
	Column int    // Column number in source (1-based, 0 if unknown)
}

// TokenSequence is a slice of tokens
type TokenSequence []Token

// Values returns the raw token values in order
func (ts TokenSequence) Values() []string {
	values := make([]string, len(ts))
	for i, tok := range ts {
		values[i] = tok.Value
	}
	return values
}

// NGram is an ordered, non-empty run of tokens. Tokens are opaque and only
// compared for equality.
type NGram[T comparable] []T

// String returns the n-gram as a space-separated string
func (ng NGram[T]) String() string {
	var sb strings.Builder
	for i, token := range ng {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(&sb, token)
	}
	return sb.String()
}

// Context returns the context (all tokens except the last one)
func (ng NGram[T]) Context() NGram[T] {
	if len(ng) <= 1 {
		return NGram[T]{}
	}
	return ng[:len(ng)-1]
}

// LastToken returns the last token in the n-gram and whether it exists
func (ng NGram[T]) LastToken() (T, bool) {
	var zero T
	if len(ng) == 0 {
		return zero, false
	}
	return ng[len(ng)-1], true
}

// Equal reports whether two n-grams hold the same tokens in the same order
func (ng NGram[T]) Equal(other NGram[T]) bool {
	if len(ng) != len(other) {
		return false
	}
	for i := range ng {
		if ng[i] != other[i] {
			return false
		}
	}
	return true
}

// Entry pairs an n-gram (or skip-gram) with its stratum and count
type Entry[T comparable] struct {
	Tokens NGram[T] `json:"tokens"`
	Skip   int      `json:"skip"`
	Count  int64    `json:"count"`
}
