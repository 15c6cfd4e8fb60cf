package ngram

import (
	"fmt"
	"iter"

	model "skipgram-go/internal/model/ngram"
)

type nodeKind uint8

const (
	branchNode nodeKind = iota
	leafNode
)

// TrieNode is one node of a stratum trie. A branch maps tokens to children
// and remembers first-insertion order; a leaf holds the count of the entry
// that ends there.
type TrieNode[T comparable] struct {
	kind     nodeKind
	count    int64              // Leaf only
	children map[T]*TrieNode[T] // Branch only
	keys     []T                // Branch only, first-insertion order of children
}

// NewTrieNode creates an empty branch
func NewTrieNode[T comparable]() *TrieNode[T] {
	return &TrieNode[T]{
		kind:     branchNode,
		children: make(map[T]*TrieNode[T]),
	}
}

func newLeaf[T comparable](count int64) *TrieNode[T] {
	return &TrieNode[T]{kind: leafNode, count: count}
}

// IsLeaf reports whether the node holds a count rather than children
func (n *TrieNode[T]) IsLeaf() bool {
	return n != nil && n.kind == leafNode
}

// Len returns the number of direct children of a branch, 0 for a leaf
func (n *TrieNode[T]) Len() int {
	if n == nil || n.kind == leafNode {
		return 0
	}
	return len(n.keys)
}

func (n *TrieNode[T]) child(token T) (*TrieNode[T], bool) {
	c, ok := n.children[token]
	return c, ok
}

func (n *TrieNode[T]) setChild(token T, c *TrieNode[T]) {
	if _, exists := n.children[token]; !exists {
		n.keys = append(n.keys, token)
	}
	n.children[token] = c
}

// insert adds count to the leaf reached by tokens, creating branches and the
// leaf as needed. The root must be a branch of a stratum whose length is
// len(tokens).
func (n *TrieNode[T]) insert(tokens []T, count int64) error {
	if len(tokens) == 0 {
		return fmt.Errorf("%w: cannot insert an empty n-gram", ErrInvalidArgument)
	}

	current := n
	for _, token := range tokens[:len(tokens)-1] {
		next, exists := current.child(token)
		if !exists {
			next = NewTrieNode[T]()
			current.setChild(token, next)
		}
		if next.kind != branchNode {
			return fmt.Errorf("%w: n-gram of length %d does not fit this stratum", ErrInvalidArgument, len(tokens))
		}
		current = next
	}

	last := tokens[len(tokens)-1]
	if leaf, exists := current.child(last); exists {
		if leaf.kind != leafNode {
			return fmt.Errorf("%w: n-gram of length %d does not fit this stratum", ErrInvalidArgument, len(tokens))
		}
		leaf.count += count
		return nil
	}
	current.setChild(last, newLeaf[T](count))
	return nil
}

type lookupKind uint8

const (
	lookupNotFound lookupKind = iota
	lookupExact
	lookupSubtree
)

// lookupResult is the outcome of descending a stratum trie along a prefix
type lookupResult[T comparable] struct {
	kind  lookupKind
	count int64        // lookupExact
	node  *TrieNode[T] // lookupSubtree
}

// lookup descends token by token. A prefix that runs past a leaf, or hits a
// missing token, is not found; ending on a leaf is an exact match; ending on a
// branch yields the subtree below it.
func (n *TrieNode[T]) lookup(prefix []T) lookupResult[T] {
	current := n
	for _, token := range prefix {
		if current.kind == leafNode {
			return lookupResult[T]{kind: lookupNotFound}
		}
		next, exists := current.child(token)
		if !exists {
			return lookupResult[T]{kind: lookupNotFound}
		}
		current = next
	}

	if current.kind == leafNode {
		return lookupResult[T]{kind: lookupExact, count: current.count}
	}
	return lookupResult[T]{kind: lookupSubtree, node: current}
}

// flatten yields every (n-gram, count) reachable from a lookup result, with
// prefix prepended to each path. Subtrees are walked depth-first in
// first-insertion order.
func flatten[T comparable](res lookupResult[T], prefix []T) iter.Seq2[model.NGram[T], int64] {
	return func(yield func(model.NGram[T], int64) bool) {
		switch res.kind {
		case lookupExact:
			yield(cloneTokens(prefix), res.count)
		case lookupSubtree:
			path := make([]T, len(prefix), len(prefix)+8)
			copy(path, prefix)
			collectNGrams(res.node, path, yield)
		}
	}
}

// collectNGrams recursively walks a branch, returning false once the consumer
// stops.
func collectNGrams[T comparable](node *TrieNode[T], path []T, yield func(model.NGram[T], int64) bool) bool {
	for _, token := range node.keys {
		child := node.children[token]
		newPath := append(path, token)
		switch child.kind {
		case leafNode:
			if !yield(cloneTokens(newPath), child.count) {
				return false
			}
		case branchNode:
			if !collectNGrams(child, newPath, yield) {
				return false
			}
		}
	}
	return true
}

// countNodes returns the number of nodes in the trie, root included
func (n *TrieNode[T]) countNodes() int64 {
	if n.kind == leafNode {
		return 1
	}
	total := int64(1)
	for _, c := range n.children {
		total += c.countNodes()
	}
	return total
}

func cloneTokens[T comparable](tokens []T) model.NGram[T] {
	ng := make(model.NGram[T], len(tokens))
	copy(ng, tokens)
	return ng
}
