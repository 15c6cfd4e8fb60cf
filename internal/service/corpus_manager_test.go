package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	model "skipgram-go/internal/model/ngram"
	"skipgram-go/internal/service/ngram"
	"skipgram-go/internal/service/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRegistry() *tokenizer.TokenizerRegistry {
	registry := tokenizer.NewTokenizerRegistry()
	registry.Register("word", tokenizer.NewWordTokenizer(true), []string{".txt"})
	registry.Register("char", tokenizer.NewCharTokenizer(), nil)
	return registry
}

func newTestCorpus(t *testing.T, maxOrder, maxSkip int) *CorpusManager {
	t.Helper()
	cm, err := NewCorpusManager("test", CorpusOptions{MaxOrder: maxOrder, MaxSkip: maxSkip}, testRegistry(), zap.NewNop())
	require.NoError(t, err)
	return cm
}

func TestCorpusManager_AddFile(t *testing.T) {
	ctx := context.Background()
	cm := newTestCorpus(t, 2, 1)

	require.NoError(t, cm.AddFile(ctx, "a.txt", []byte("the cat sat"), "word"))
	require.NoError(t, cm.AddFile(ctx, "b.txt", []byte("The cat ran"), "word"))

	count, err := cm.Count([]string{"the", "cat"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = cm.Count([]string{"the", "sat"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.True(t, cm.Contains([]string{"cat", "ran"}))
	assert.False(t, cm.Contains([]string{"ran", "cat"}))

	stats := cm.GetStats()
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 6, stats.TotalTokens)
	assert.Equal(t, map[string]int{"word": 2}, stats.LanguageCounts)
}

func TestCorpusManager_UnknownLanguage(t *testing.T) {
	cm := newTestCorpus(t, 2, 0)
	err := cm.AddFile(context.Background(), "a.rs", []byte("fn main"), "rust")
	assert.ErrorIs(t, err, ErrUnknownTokenizer)
}

func TestCorpusManager_ReplaceAndRemove(t *testing.T) {
	ctx := context.Background()
	cm := newTestCorpus(t, 2, 0)

	require.NoError(t, cm.AddFile(ctx, "a.txt", []byte("a b a b"), "word"))
	require.NoError(t, cm.AddFile(ctx, "b.txt", []byte("a b"), "word"))

	count, err := cm.Count([]string{"a", "b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// re-adding replaces the old contents of a.txt
	require.NoError(t, cm.AddFile(ctx, "a.txt", []byte("b a"), "word"))
	count, err = cm.Count([]string{"a", "b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = cm.Count([]string{"b", "a"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, cm.RemoveFile("b.txt"))
	assert.False(t, cm.Contains([]string{"a", "b"}))
	assert.ErrorIs(t, cm.RemoveFile("b.txt"), ErrFileNotFound)

	files := cm.ListFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Path)
	assert.Equal(t, 2, files[0].TokenCount)
}

func TestCorpusManager_FileCollection(t *testing.T) {
	cm := newTestCorpus(t, 1, 0)
	require.NoError(t, cm.AddTokens("x", []string{"p", "q", "p"}, "custom"))

	coll, err := cm.GetFileCollection("x")
	require.NoError(t, err)
	count, err := coll.Count([]string{"p"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = cm.GetFileCollection("y")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestCorpusManager_TopNGrams(t *testing.T) {
	ctx := context.Background()
	cm := newTestCorpus(t, 2, 0)
	require.NoError(t, cm.AddFile(ctx, "a", []byte("abcabcab"), "char"))

	top, err := cm.TopNGrams(2, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry[string]{
		{Tokens: model.NGram[string]{"a", "b"}, Skip: 0, Count: 3},
		{Tokens: model.NGram[string]{"b", "c"}, Skip: 0, Count: 2},
	}, top)

	all, err := cm.TopNGrams(1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = cm.TopNGrams(3, 0, 1)
	assert.ErrorIs(t, err, ngram.ErrInvalidArgument)
}

func TestCorpusManager_NgramsWithPrefix(t *testing.T) {
	ctx := context.Background()
	cm := newTestCorpus(t, 2, 1)
	require.NoError(t, cm.AddFile(ctx, "a", []byte("abc"), "char"))

	entries, err := cm.NgramsWithPrefix(ngram.Only(2), ngram.All(), []string{"a"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry[string]{
		{Tokens: model.NGram[string]{"a", "b"}, Skip: 0, Count: 1},
		{Tokens: model.NGram[string]{"a", "b"}, Skip: 1, Count: 1},
		{Tokens: model.NGram[string]{"a", "c"}, Skip: 1, Count: 1},
	}, entries)

	limited, err := cm.NgramsWithPrefix(ngram.All(), ngram.All(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCorpusManager_MembershipFilter(t *testing.T) {
	cm, err := NewCorpusManager("f", CorpusOptions{MaxOrder: 2, FilterItems: 1000, FalsePositiveRate: 0.01}, testRegistry(), nil)
	require.NoError(t, err)
	require.NoError(t, cm.AddFile(context.Background(), "a", []byte("one two"), "word"))

	count, err := cm.Count([]string{"one", "two"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.False(t, cm.Contains([]string{"two", "one"}))
}

func TestNewCorpusManager_BadBounds(t *testing.T) {
	_, err := NewCorpusManager("bad", CorpusOptions{MaxOrder: 0}, nil, nil)
	assert.ErrorIs(t, err, ngram.ErrInvalidArgument)
}

func TestCorpusManager_QueryTokens(t *testing.T) {
	ctx := context.Background()
	cm := newTestCorpus(t, 2, 0)

	tokens, err := cm.QueryTokens(ctx, []string{"As", "Is"}, "ignored", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"As", "Is"}, tokens)

	tokens, err = cm.QueryTokens(ctx, nil, "The Cat", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "cat"}, tokens)

	tokens, err = cm.QueryTokens(ctx, nil, "ab", "char")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tokens)
}

func TestCorpusManager_AddSequences(t *testing.T) {
	cm, err := NewCorpusManager("seqs", CorpusOptions{MaxOrder: 2, Workers: 2}, testRegistry(), nil)
	require.NoError(t, err)

	seqs := [][]string{{"a", "b"}, {"b", "a"}, {"a", "b"}}
	require.NoError(t, cm.AddSequences(context.Background(), "batch", seqs, "word"))

	count, err := cm.Count([]string{"a", "b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// no window crosses a sequence boundary
	count, err = cm.Count([]string{"b", "b"}, 0)
	require.NoError(t, err)
	assert.Zero(t, count)

	files := cm.ListFiles()
	require.Len(t, files, 1)
	assert.Equal(t, 6, files[0].TokenCount)
}

func TestCorpusManager_ConcurrentQueriesWithFilter(t *testing.T) {
	cm, err := NewCorpusManager("f", CorpusOptions{MaxOrder: 2, MaxSkip: 1, FilterItems: 1000, FalsePositiveRate: 0.01}, testRegistry(), nil)
	require.NoError(t, err)

	words := make([]string, 100)
	for i := range words {
		words[i] = "t" + strconv.Itoa(i)
	}
	require.NoError(t, cm.AddFile(context.Background(), "a.txt", []byte(strings.Join(words, " ")), "word"))

	var wrong atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 20; round++ {
				for i := 0; i+1 < len(words); i++ {
					pair := []string{words[i], words[i+1]}
					count, err := cm.Count(pair, 0)
					if err != nil || count != 1 || !cm.Contains(pair) {
						wrong.Add(1)
					}
				}
				entries, err := cm.NgramsWithPrefix(ngram.Only(2), ngram.All(), []string{"t0"}, 0)
				if err != nil || len(entries) != 2 {
					wrong.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, wrong.Load())
}
