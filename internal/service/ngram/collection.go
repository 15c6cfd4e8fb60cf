package ngram

import (
	"fmt"
	"iter"

	model "skipgram-go/internal/model/ngram"

	"go.uber.org/zap"
)

// Collection is implemented by Ngrams and Skipgrams. It is the operand type
// of Combine.
type Collection[T comparable] interface {
	MaxOrder() int
	MaxSkip() int
	Stats() Stats
	core() *store[T]
}

// Ngrams is a counted collection of contiguous n-grams with 1 <= n <= MaxOrder.
//
// An Ngrams value must not be mutated concurrently; concurrent read-only
// queries are safe.
type Ngrams[T comparable] struct {
	s *store[T]
}

// NewNgrams creates an empty collection for orders 1..maxOrder
func NewNgrams[T comparable](maxOrder int, opts ...Option) (*Ngrams[T], error) {
	s, err := newStore[T](maxOrder, 0, opts)
	if err != nil {
		return nil, err
	}
	return &Ngrams[T]{s: s}, nil
}

func (c *Ngrams[T]) core() *store[T] { return c.s }

// MaxOrder returns the largest n-gram length the collection accepts
func (c *Ngrams[T]) MaxOrder() int { return c.s.maxOrder }

// MaxSkip is always 0 for plain n-grams
func (c *Ngrams[T]) MaxSkip() int { return 0 }

// Add adds count occurrences of ngram. The collection is left unchanged on
// error.
func (c *Ngrams[T]) Add(ngram []T, count int64) error {
	return c.s.add(ngram, 0, count)
}

// AddFromSeq adds every n-gram of every order up to MaxOrder found in seq,
// each with the given count
func (c *Ngrams[T]) AddFromSeq(seq []T, count int64) error {
	return c.s.addFromSeq(seq, count, false)
}

// Count returns the count of ngram, or 0 if it is absent, longer than
// MaxOrder, or only a prefix of stored n-grams
func (c *Ngrams[T]) Count(ngram []T) int64 {
	return c.s.count(ngram, 0)
}

// Contains reports whether ngram was stored with a non-zero count
func (c *Ngrams[T]) Contains(ngram []T) bool {
	return c.s.contains(ngram)
}

// TotalCount sums the counts of the selected orders, or counts distinct
// n-grams when unique is set
func (c *Ngrams[T]) TotalCount(orders Selection, unique bool) (int64, error) {
	keys, err := c.s.keys(orders, Only(0))
	if err != nil {
		return 0, err
	}
	return c.s.totalCount(keys, unique), nil
}

// NgramsWithCounts lazily yields the n-grams of the selected orders that
// start with prefix (all of them when prefix is empty), with their counts.
// Call it again to restart the enumeration.
func (c *Ngrams[T]) NgramsWithCounts(orders Selection, prefix []T) (iter.Seq2[model.NGram[T], int64], error) {
	keys, err := c.s.keys(orders, Only(0))
	if err != nil {
		return nil, err
	}
	return c.s.withCounts(keys, prefix), nil
}

// Combine adds the counts of others into c. Every operand must be a non-nil
// *Ngrams; n-grams longer than c's MaxOrder are ignored. Operands are not
// modified.
func (c *Ngrams[T]) Combine(others ...Collection[T]) error {
	operands := make([]*Ngrams[T], 0, len(others))
	for _, other := range others {
		o, ok := other.(*Ngrams[T])
		if !ok || o == nil {
			return fmt.Errorf("%w: arg must be an Ngrams instance: %T", ErrTypeMismatch, other)
		}
		operands = append(operands, o)
	}

	for _, o := range operands {
		if err := c.s.absorb(o.s); err != nil {
			return err
		}
	}
	return nil
}

// Strata returns the stratum keys in (order, skip) order
func (c *Ngrams[T]) Strata() []StratumKey { return c.s.strata() }

// Stats summarizes the collection
func (c *Ngrams[T]) Stats() Stats { return c.s.stats() }

// Skipgrams is a counted collection of skip-grams with 1 <= n <= MaxOrder and
// 0 <= skip <= MaxSkip. Plain n-grams are the skip 0 strata.
//
// A Skipgrams value must not be mutated concurrently; concurrent read-only
// queries are safe.
type Skipgrams[T comparable] struct {
	s *store[T]
}

// NewSkipgrams creates an empty collection for orders 1..maxOrder and skips
// 0..maxSkip
func NewSkipgrams[T comparable](maxOrder, maxSkip int, opts ...Option) (*Skipgrams[T], error) {
	s, err := newStore[T](maxOrder, maxSkip, opts)
	if err != nil {
		return nil, err
	}
	return &Skipgrams[T]{s: s}, nil
}

func (c *Skipgrams[T]) core() *store[T] { return c.s }

// MaxOrder returns the largest skip-gram length the collection accepts
func (c *Skipgrams[T]) MaxOrder() int { return c.s.maxOrder }

// MaxSkip returns the largest skip the collection accepts
func (c *Skipgrams[T]) MaxSkip() int { return c.s.maxSkip }

// Add adds count occurrences of skipgram under the given skip. The collection
// is left unchanged on error.
func (c *Skipgrams[T]) Add(skipgram []T, skip int, count int64) error {
	return c.s.add(skipgram, skip, count)
}

// AddFromSeq adds every skip-gram of every order up to MaxOrder and every
// skip up to MaxSkip found in seq, each with the given count
func (c *Skipgrams[T]) AddFromSeq(seq []T, count int64) error {
	return c.s.addFromSeq(seq, count, true)
}

// Count returns the count of skipgram under skip. A skip outside
// [0, MaxSkip] is an error; an absent or over-long skip-gram counts 0.
func (c *Skipgrams[T]) Count(skipgram []T, skip int) (int64, error) {
	if err := validateSkip(skip, c.s.maxSkip); err != nil {
		return 0, err
	}
	return c.s.count(skipgram, skip), nil
}

// Contains reports whether skipgram was stored under any skip, checking
// skips in ascending order
func (c *Skipgrams[T]) Contains(skipgram []T) bool {
	return c.s.contains(skipgram)
}

// TotalCount sums the counts of the selected strata, or counts distinct
// entries when unique is set
func (c *Skipgrams[T]) TotalCount(orders, skips Selection, unique bool) (int64, error) {
	keys, err := c.s.keys(orders, skips)
	if err != nil {
		return 0, err
	}
	return c.s.totalCount(keys, unique), nil
}

// SkipgramsWithCounts lazily yields the skip-grams of the selected strata that
// start with prefix, with their counts. Strata are visited by order, then
// skip. Call it again to restart the enumeration.
func (c *Skipgrams[T]) SkipgramsWithCounts(orders, skips Selection, prefix []T) (iter.Seq2[model.NGram[T], int64], error) {
	keys, err := c.s.keys(orders, skips)
	if err != nil {
		return nil, err
	}
	return c.s.withCounts(keys, prefix), nil
}

// Entries lazily yields the stored entries of the selected strata that start
// with prefix, each together with its skip
func (c *Skipgrams[T]) Entries(orders, skips Selection, prefix []T) (iter.Seq[model.Entry[T]], error) {
	keys, err := c.s.keys(orders, skips)
	if err != nil {
		return nil, err
	}
	return func(yield func(model.Entry[T]) bool) {
		for _, key := range keys {
			for ng, count := range c.s.withCounts([]StratumKey{key}, prefix) {
				if !yield(model.Entry[T]{Tokens: ng, Skip: key.Skip, Count: count}) {
					return
				}
			}
		}
	}, nil
}

// Combine adds the counts of others into c. Every operand must be a non-nil
// *Skipgrams. When an operand has a larger MaxOrder or MaxSkip, c's bounds are
// raised to fit it first. Operands are not modified.
func (c *Skipgrams[T]) Combine(others ...Collection[T]) error {
	operands := make([]*Skipgrams[T], 0, len(others))
	for _, other := range others {
		o, ok := other.(*Skipgrams[T])
		if !ok || o == nil {
			return fmt.Errorf("%w: arg must be a Skipgrams instance: %T", ErrTypeMismatch, other)
		}
		operands = append(operands, o)
	}

	for _, o := range operands {
		if o.s.maxOrder > c.s.maxOrder || o.s.maxSkip > c.s.maxSkip {
			c.s.logger.Debug("Raising collection bounds",
				zap.Int("from_order", c.s.maxOrder),
				zap.Int("to_order", max(c.s.maxOrder, o.s.maxOrder)),
				zap.Int("from_skip", c.s.maxSkip),
				zap.Int("to_skip", max(c.s.maxSkip, o.s.maxSkip)),
			)
			c.s.grow(o.s.maxOrder, o.s.maxSkip)
		}
		if err := c.s.absorb(o.s); err != nil {
			return err
		}
	}
	return nil
}

// Strata returns the stratum keys in (order, skip) order
func (c *Skipgrams[T]) Strata() []StratumKey { return c.s.strata() }

// Stats summarizes the collection
func (c *Skipgrams[T]) Stats() Stats { return c.s.stats() }
