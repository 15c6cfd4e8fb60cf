package tokenizer

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	model "skipgram-go/internal/model/ngram"
)

// CharTokenizer emits one token per rune, whitespace included
type CharTokenizer struct{}

func NewCharTokenizer() *CharTokenizer {
	return &CharTokenizer{}
}

func (t *CharTokenizer) Tokenize(ctx context.Context, source []byte) (model.TokenSequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := make(model.TokenSequence, 0, utf8.RuneCount(source))
	line, col := 1, 1
	for _, r := range string(source) {
		tokens = append(tokens, model.Token{Type: "char", Value: string(r), Line: line, Column: col})
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return tokens, nil
}

func (t *CharTokenizer) Normalize(token model.Token) string {
	return token.Value
}

func (t *CharTokenizer) Language() string {
	return "char"
}

// WordTokenizer splits on whitespace
type WordTokenizer struct {
	lowercase bool
}

// NewWordTokenizer creates a whitespace tokenizer. With lowercase set,
// Normalize folds case.
func NewWordTokenizer(lowercase bool) *WordTokenizer {
	return &WordTokenizer{lowercase: lowercase}
}

func (t *WordTokenizer) Tokenize(ctx context.Context, source []byte) (model.TokenSequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tokens model.TokenSequence
	for lineNo, line := range strings.Split(string(source), "\n") {
		col := 0
		for col < len(line) {
			start := strings.IndexFunc(line[col:], func(r rune) bool { return !unicode.IsSpace(r) })
			if start < 0 {
				break
			}
			start += col
			end := strings.IndexFunc(line[start:], unicode.IsSpace)
			if end < 0 {
				end = len(line)
			} else {
				end += start
			}
			tokens = append(tokens, model.Token{
				Type:   "word",
				Value:  line[start:end],
				Line:   lineNo + 1,
				Column: utf8.RuneCountInString(line[:start]) + 1,
			})
			col = end
		}
	}
	return tokens, nil
}

func (t *WordTokenizer) Normalize(token model.Token) string {
	if t.lowercase {
		return strings.ToLower(token.Value)
	}
	return token.Value
}

func (t *WordTokenizer) Language() string {
	return "word"
}
