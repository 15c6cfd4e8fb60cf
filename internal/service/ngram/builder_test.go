package ngram

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSeqs() [][]string {
	var seqs [][]string
	for _, s := range []string{"ab", "abc", "abcde", "abcde", "abcde", "abcdef", "abcdef"} {
		seqs = append(seqs, chars(s))
	}
	return seqs
}

func TestBuildNgramsMatchesSequential(t *testing.T) {
	built, err := BuildNgrams(context.Background(), testSeqs(), 3, BuildConfig{Workers: 3, Logger: zap.NewNop()})
	require.NoError(t, err)

	sequential := newTestNgrams(t)
	for _, order := range []int{1, 2, 3} {
		want, err := sequential.NgramsWithCounts(Only(order), nil)
		require.NoError(t, err)
		got, err := built.NgramsWithCounts(Only(order), nil)
		assert.Equal(t, collect(t, want, nil), collect(t, got, err), "order=%d", order)
	}
	assert.Equal(t, int64(7), built.Count(chars("ab")))
}

func TestBuildSkipgrams(t *testing.T) {
	seqs := [][]string{
		strings.Fields("the rain in Spain falls mainly on the plain"),
		strings.Fields("the rain in Spain"),
	}
	built, err := BuildSkipgrams(context.Background(), seqs, 2, 1, BuildConfig{Workers: 2, Count: 2})
	require.NoError(t, err)

	count, err := built.Count([]string{"rain", "Spain"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = built.Count([]string{"on", "plain"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBuildEmpty(t *testing.T) {
	built, err := BuildNgrams[string](context.Background(), nil, 2, BuildConfig{})
	require.NoError(t, err)
	assert.Zero(t, built.Stats().Total)
}

func TestBuildRejectsBadBounds(t *testing.T) {
	_, err := BuildNgrams(context.Background(), testSeqs(), 0, BuildConfig{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = BuildSkipgrams(context.Background(), testSeqs(), 2, -1, BuildConfig{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildNgrams(ctx, testSeqs(), 3, BuildConfig{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
