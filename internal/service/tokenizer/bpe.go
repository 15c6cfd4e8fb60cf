package tokenizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	model "skipgram-go/internal/model/ngram"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultBPEEncoding is the encoding used by NewDefaultRegistry
const DefaultBPEEncoding = "cl100k_base"

// BPETokenizer emits tiktoken token ids as decimal strings. Line and Column
// are unknown and left 0.
type BPETokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewBPETokenizer loads a tiktoken encoding such as "cl100k_base". The
// encoding file is fetched and cached by tiktoken-go on first use.
func NewBPETokenizer(encodingName string) (*BPETokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &BPETokenizer{encoding: encoding, name: encodingName}, nil
}

func (t *BPETokenizer) Tokenize(ctx context.Context, source []byte) (model.TokenSequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := t.encoding.Encode(string(source), nil, nil)
	tokens := make(model.TokenSequence, len(ids))
	for i, id := range ids {
		tokens[i] = model.Token{Type: "bpe", Value: strconv.Itoa(id)}
	}
	return tokens, nil
}

func (t *BPETokenizer) Normalize(token model.Token) string {
	return token.Value
}

func (t *BPETokenizer) Language() string {
	return "bpe"
}

// Decode renders normalized token ids back to text, joining the pieces
func (t *BPETokenizer) Decode(values []string) (string, error) {
	ids := make([]int, len(values))
	for i, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("invalid token id %q: %w", v, err)
		}
		ids[i] = id
	}
	return t.encoding.Decode(ids), nil
}
