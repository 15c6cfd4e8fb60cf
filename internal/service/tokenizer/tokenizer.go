package tokenizer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	model "skipgram-go/internal/model/ngram"

	"go.uber.org/zap"
)

// Tokenizer turns raw input into a token sequence
type Tokenizer interface {
	// Tokenize converts source into a sequence of tokens
	Tokenize(ctx context.Context, source []byte) (model.TokenSequence, error)

	// Normalize maps a token to the string counted in collections
	// (e.g., all identifiers -> "ID")
	Normalize(token model.Token) string

	// Language returns the name this tokenizer is registered under
	Language() string
}

// Normalized tokenizes source and returns the normalized token values
func Normalized(ctx context.Context, tok Tokenizer, source []byte) ([]string, error) {
	tokens, err := tok.Tokenize(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}
	values := make([]string, len(tokens))
	for i, token := range tokens {
		values[i] = tok.Normalize(token)
	}
	return values, nil
}

// TokenizerRegistry manages tokenizers by name and by file extension
type TokenizerRegistry struct {
	tokenizers map[string]Tokenizer
	extensions map[string]string // file extension -> language
	mu         sync.RWMutex
}

// NewTokenizerRegistry creates an empty registry
func NewTokenizerRegistry() *TokenizerRegistry {
	return &TokenizerRegistry{
		tokenizers: make(map[string]Tokenizer),
		extensions: make(map[string]string),
	}
}

// Register adds a tokenizer under language and maps the given extensions to it
func (tr *TokenizerRegistry) Register(language string, tokenizer Tokenizer, extensions []string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.tokenizers[language] = tokenizer
	for _, ext := range extensions {
		tr.extensions[strings.ToLower(ext)] = language
	}
}

// GetTokenizer returns the tokenizer registered under language
func (tr *TokenizerRegistry) GetTokenizer(language string) (Tokenizer, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	tokenizer, ok := tr.tokenizers[language]
	return tokenizer, ok
}

// GetTokenizerByExtension returns the tokenizer for a file extension such as ".go"
func (tr *TokenizerRegistry) GetTokenizerByExtension(extension string) (Tokenizer, bool) {
	tr.mu.RLock()
	language, ok := tr.extensions[strings.ToLower(extension)]
	tr.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return tr.GetTokenizer(language)
}

// DetectLanguage returns the language registered for path's extension, or ""
func (tr *TokenizerRegistry) DetectLanguage(path string) string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.extensions[strings.ToLower(filepath.Ext(path))]
}

// SupportedLanguages returns the registered names in sorted order
func (tr *TokenizerRegistry) SupportedLanguages() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	languages := make([]string, 0, len(tr.tokenizers))
	for lang := range tr.tokenizers {
		languages = append(languages, lang)
	}
	slices.Sort(languages)
	return languages
}

// Close releases tokenizers holding native resources
func (tr *TokenizerRegistry) Close() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for _, tok := range tr.tokenizers {
		if c, ok := tok.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// NewDefaultRegistry registers the tree-sitter code tokenizers with their
// file extensions, plus the "char" and "word" text tokenizers. The BPE
// tokenizer is registered as "bpe" only when its encoding can be loaded.
func NewDefaultRegistry(logger *zap.Logger) (*TokenizerRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewTokenizerRegistry()

	for _, spec := range codeLanguages() {
		tok, err := NewTreeSitterTokenizer(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tokenizer: %w", spec.Name, err)
		}
		registry.Register(spec.Name, tok, spec.Extensions)
	}

	registry.Register("char", NewCharTokenizer(), nil)
	registry.Register("word", NewWordTokenizer(true), []string{".txt", ".md"})

	bpe, err := NewBPETokenizer(DefaultBPEEncoding)
	if err != nil {
		logger.Warn("BPE tokenizer unavailable", zap.Error(err))
	} else {
		registry.Register("bpe", bpe, nil)
	}

	logger.Debug("Tokenizer registry ready",
		zap.Strings("languages", registry.SupportedLanguages()))
	return registry, nil
}
