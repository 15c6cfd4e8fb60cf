package ngram

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	defaultFilterItems             = 100000
	defaultFilterFalsePositiveRate = 0.01
)

// MembershipFilter is a bloom filter over (skip, entry) keys. It only ever
// answers "definitely absent" so lookups can skip the trie walk; a positive
// answer always falls through to the trie, which keeps counts exact.
type MembershipFilter[T comparable] struct {
	filter *bloom.BloomFilter
	seed   maphash.Seed
}

// NewMembershipFilter sizes a filter for the expected number of distinct
// entries and the target false-positive rate
func NewMembershipFilter[T comparable](expectedItems uint, falsePositiveRate float64) *MembershipFilter[T] {
	if expectedItems == 0 {
		expectedItems = defaultFilterItems
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = defaultFilterFalsePositiveRate
	}
	return &MembershipFilter[T]{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
		seed:   maphash.MakeSeed(),
	}
}

// Add records an entry
func (f *MembershipFilter[T]) Add(tokens []T, skip int) {
	f.filter.Add(f.key(tokens, skip))
}

// MayContain returns false only if the entry was never added
func (f *MembershipFilter[T]) MayContain(tokens []T, skip int) bool {
	return f.filter.Test(f.key(tokens, skip))
}

// ApproximatedSize estimates the number of distinct entries added
func (f *MembershipFilter[T]) ApproximatedSize() uint32 {
	return f.filter.ApproximatedSize()
}

// key hashes each token with a per-filter seed, prefixed by the skip. The
// buffer is per call: MayContain runs under concurrent readers.
func (f *MembershipFilter[T]) key(tokens []T, skip int) []byte {
	buf := make([]byte, 0, 8*(len(tokens)+1))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(skip))
	for _, tok := range tokens {
		buf = binary.LittleEndian.AppendUint64(buf, maphash.Comparable(f.seed, tok))
	}
	return buf
}
