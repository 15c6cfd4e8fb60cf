package ngram

import (
	"slices"
	"strings"
	"testing"

	model "skipgram-go/internal/model/ngram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chars(s string) []string {
	return strings.Split(s, "")
}

func grams(pairs ...[]string) []model.NGram[string] {
	out := make([]model.NGram[string], len(pairs))
	for i, p := range pairs {
		out[i] = model.NGram[string](p)
	}
	return out
}

func TestNgramsFromSeq(t *testing.T) {
	tests := []struct {
		seq      string
		n        int
		expected []model.NGram[string]
	}{
		{"abcd", 2, grams([]string{"a", "b"}, []string{"b", "c"}, []string{"c", "d"})},
		{"abcd", 3, grams([]string{"a", "b", "c"}, []string{"b", "c", "d"})},
		{"abcd", 5, nil},
	}

	for _, tt := range tests {
		seq, err := NgramsFromSeq(chars(tt.seq), tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, slices.Collect(seq), "seq=%q n=%d", tt.seq, tt.n)
	}
}

func TestNgramsFromSeqLength(t *testing.T) {
	seq := strings.Fields("to be or not to be that is the question")
	for n := 1; n <= len(seq); n++ {
		grams, err := NgramsFromSeq(seq, n)
		require.NoError(t, err)
		assert.Len(t, slices.Collect(grams), len(seq)-n+1, "n=%d", n)
	}
}

func TestNgramsFromSeqRejectsBadN(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NgramsFromSeq(chars("abc"), n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestSkipgramsFromSeq(t *testing.T) {
	seq := strings.Fields("the rain in Spain falls mainly on the plain")
	expected := grams(
		[]string{"the", "rain"},
		[]string{"the", "in"},
		[]string{"rain", "in"},
		[]string{"rain", "Spain"},
		[]string{"in", "Spain"},
		[]string{"in", "falls"},
		[]string{"Spain", "falls"},
		[]string{"Spain", "mainly"},
		[]string{"falls", "mainly"},
		[]string{"falls", "on"},
		[]string{"mainly", "on"},
		[]string{"mainly", "the"},
		[]string{"on", "the"},
		[]string{"on", "plain"},
		[]string{"the", "plain"},
	)

	actual, err := SkipgramsFromSeq(seq, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, expected, slices.Collect(actual))
}

func TestSkipgramsFromSeqZeroSkipIsContiguous(t *testing.T) {
	seq := chars("abcdef")
	for n := 1; n <= len(seq); n++ {
		skip, err := SkipgramsFromSeq(seq, n, 0)
		require.NoError(t, err)
		contiguous, err := NgramsFromSeq(seq, n)
		require.NoError(t, err)
		assert.Equal(t, slices.Collect(contiguous), slices.Collect(skip), "n=%d", n)
	}
}

func TestSkipgramsFromSeqNoDuplicates(t *testing.T) {
	// Distinct tokens make every index tuple a distinct token tuple.
	seq := chars("abcdefg")
	gs, err := SkipgramsFromSeq(seq, 3, 2)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for g := range gs {
		key := g.String()
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
	// Every ascending triple spanning at most 5 positions.
	assert.Contains(t, seen, "a b c")
	assert.Contains(t, seen, "a d e")
	assert.NotContains(t, seen, "a b f")
}

func TestSkipgramsFromSeqValidation(t *testing.T) {
	seq := chars("abc")

	_, err := SkipgramsFromSeq(seq, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SkipgramsFromSeq(seq, 4, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SkipgramsFromSeq(seq, 2, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SkipgramsFromSeq(seq, 2, 4)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSkipgramsFromSeqStopsEarly(t *testing.T) {
	gs, err := SkipgramsFromSeq(chars("abcdef"), 2, 2)
	require.NoError(t, err)

	var got []string
	for g := range gs {
		got = append(got, g.String())
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a b", "a c"}, got)
}

func TestForEachCombination(t *testing.T) {
	var got [][]int
	forEachCombination(4, 2, func(c []int) {
		got = append(got, slices.Clone(c))
	})
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, got)

	called := false
	forEachCombination(2, 3, func([]int) { called = true })
	assert.False(t, called)
}

func TestAppendIndexKeyDistinguishesTuples(t *testing.T) {
	a := appendIndexKey(nil, 0, []int{1, 23})
	b := appendIndexKey(nil, 0, []int{12, 3})
	assert.NotEqual(t, string(a), string(b))

	// indices past one varint byte
	assert.Equal(t, string(appendIndexKey(nil, 200, []int{0, 1})), string(appendIndexKey(nil, 0, []int{200, 201})))
	assert.NotEqual(t, string(appendIndexKey(nil, 0, []int{128, 1})), string(appendIndexKey(nil, 0, []int{1, 128})))
}

func TestSkipgramIndicesLongSequence(t *testing.T) {
	// pairs with a gap of 1, 2 or 3 over 300 positions
	indices := skipgramIndices(300, 2, 2)
	assert.Len(t, indices, 299+298+297)

	seen := make(map[[2]int]bool, len(indices))
	for _, tuple := range indices {
		key := [2]int{tuple[0], tuple[1]}
		require.False(t, seen[key], "duplicate tuple %v", tuple)
		seen[key] = true
		gap := tuple[1] - tuple[0]
		require.True(t, gap >= 1 && gap <= 3, "gap out of range in %v", tuple)
	}
	assert.Equal(t, []int{0, 1}, indices[0])
}
