package tokenizer

import (
	"context"
	"fmt"
	"sync"

	model "skipgram-go/internal/model/ngram"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// LanguageSpec describes one tree-sitter grammar and how its leaf kinds are
// normalized
type LanguageSpec struct {
	Name       string
	Extensions []string
	// Grammar returns the raw grammar pointer from a tree-sitter binding
	Grammar func() *tree_sitter.Language
	// Skip lists node kinds dropped from the sequence (comments)
	Skip []string
	// Atomic lists non-leaf node kinds emitted as a single token
	Atomic []string
	// Classes maps node kinds to their normalized class (e.g. "ID", "NUM")
	Classes map[string]string
}

// TreeSitterTokenizer emits the leaves of a tree-sitter parse tree
type TreeSitterTokenizer struct {
	spec   LanguageSpec
	skip   map[string]bool
	atomic map[string]bool

	mu     sync.Mutex // tree-sitter parsers are not thread-safe
	parser *tree_sitter.Parser
}

// NewTreeSitterTokenizer creates a parser for spec's grammar
func NewTreeSitterTokenizer(spec LanguageSpec) (*TreeSitterTokenizer, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(spec.Grammar()); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set %s language: %w", spec.Name, err)
	}

	return &TreeSitterTokenizer{
		spec:   spec,
		skip:   toSet(spec.Skip),
		atomic: toSet(spec.Atomic),
		parser: parser,
	}, nil
}

func (t *TreeSitterTokenizer) Tokenize(ctx context.Context, source []byte) (model.TokenSequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tree := t.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source", t.spec.Name)
	}
	defer tree.Close()

	var tokens model.TokenSequence
	t.traverseNode(tree.RootNode(), source, &tokens)
	return tokens, nil
}

func (t *TreeSitterTokenizer) traverseNode(node *tree_sitter.Node, source []byte, tokens *model.TokenSequence) {
	if node == nil {
		return
	}

	kind := node.Kind()
	if t.skip[kind] {
		return
	}

	if node.ChildCount() == 0 || t.atomic[kind] {
		content := node.Utf8Text(source)
		if content == "" {
			return
		}
		start := node.StartPosition()
		*tokens = append(*tokens, model.Token{
			Type:   kind,
			Value:  content,
			Line:   int(start.Row) + 1,
			Column: int(start.Column) + 1,
		})
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		t.traverseNode(node.Child(i), source, tokens)
	}
}

// Normalize returns the token's class, or its literal value for keywords,
// operators and punctuation
func (t *TreeSitterTokenizer) Normalize(token model.Token) string {
	if class, ok := t.spec.Classes[token.Type]; ok {
		return class
	}
	return token.Value
}

func (t *TreeSitterTokenizer) Language() string {
	return t.spec.Name
}

// Close releases the parser
func (t *TreeSitterTokenizer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parser.Close()
}

func toSet(kinds []string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}
