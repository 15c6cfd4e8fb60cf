package ngram

import (
	"encoding/binary"
	"fmt"
	"iter"

	model "skipgram-go/internal/model/ngram"
)

// NgramsFromSeq yields every contiguous length-n window of seq, left to right.
// Nothing is yielded when n > len(seq).
func NgramsFromSeq[T comparable](seq []T, n int) (iter.Seq[model.NGram[T]], error) {
	if err := validateN(n, -1); err != nil {
		return nil, err
	}

	return func(yield func(model.NGram[T]) bool) {
		for i := 0; i <= len(seq)-n; i++ {
			ng := make(model.NGram[T], n)
			copy(ng, seq[i:i+n])
			if !yield(ng) {
				return
			}
		}
	}, nil
}

// SkipgramsFromSeq yields every length-n subsequence of seq whose consecutive
// picks are at most skip positions apart in total, i.e. all ascending
// n-combinations inside a window of min(skip+n, remaining) tokens starting at
// each position. Index tuples reachable from several window starts are yielded
// once, in first-seen order.
func SkipgramsFromSeq[T comparable](seq []T, n, skip int) (iter.Seq[model.NGram[T]], error) {
	if err := validateN(n, len(seq)); err != nil {
		return nil, err
	}
	if err := validateSkip(skip, len(seq)); err != nil {
		return nil, err
	}

	indices := skipgramIndices(len(seq), n, skip)

	return func(yield func(model.NGram[T]) bool) {
	next:
		for _, tuple := range indices {
			ng := make(model.NGram[T], n)
			for j, idx := range tuple {
				if idx < 0 || idx >= len(seq) {
					continue next
				}
				ng[j] = seq[idx]
			}
			if !yield(ng) {
				return
			}
		}
	}, nil
}

// skipgramIndices returns the deduplicated absolute index tuples in
// first-seen order.
func skipgramIndices(length, n, skip int) [][]int {
	seen := make(map[string]struct{})
	var ordered [][]int
	var buf []byte

	for k := 0; k <= length-n; k++ {
		width := min(skip+n, length-k)
		forEachCombination(width, n, func(offsets []int) {
			buf = appendIndexKey(buf[:0], k, offsets)
			if _, ok := seen[string(buf)]; ok {
				return
			}
			seen[string(buf)] = struct{}{}

			tuple := make([]int, n)
			for j, off := range offsets {
				tuple[j] = k + off
			}
			ordered = append(ordered, tuple)
		})
	}

	return ordered
}

// forEachCombination calls fn with every ascending r-combination of [0, n) in
// lexicographic order. The slice passed to fn is reused between calls.
func forEachCombination(n, r int, fn func([]int)) {
	if r > n || r <= 0 {
		return
	}
	comb := make([]int, r)
	for i := range comb {
		comb[i] = i
	}
	for {
		fn(comb)

		// Find the rightmost position that can still be incremented.
		i := r - 1
		for i >= 0 && comb[i] == n-r+i {
			i--
		}
		if i < 0 {
			return
		}
		comb[i]++
		for j := i + 1; j < r; j++ {
			comb[j] = comb[j-1] + 1
		}
	}
}

// appendIndexKey encodes the absolute indices base+offsets as uvarints
func appendIndexKey(buf []byte, base int, offsets []int) []byte {
	for _, off := range offsets {
		buf = binary.AppendUvarint(buf, uint64(base+off))
	}
	return buf
}

// validateN checks n >= 1 and, when upperBound >= 0, n <= upperBound.
func validateN(n, upperBound int) error {
	if n < 1 {
		return fmt.Errorf("%w: n must be an integer >= 1: %d", ErrInvalidArgument, n)
	}
	if upperBound >= 0 && n > upperBound {
		return fmt.Errorf("%w: n is outside of [1, %d]: %d", ErrInvalidArgument, upperBound, n)
	}
	return nil
}

// validateSkip checks skip >= 0 and, when upperBound >= 0, skip <= upperBound.
func validateSkip(skip, upperBound int) error {
	if skip < 0 {
		return fmt.Errorf("%w: skip must be an integer >= 0: %d", ErrInvalidArgument, skip)
	}
	if upperBound >= 0 && skip > upperBound {
		return fmt.Errorf("%w: skip is outside of [0, %d]: %d", ErrInvalidArgument, upperBound, skip)
	}
	return nil
}
