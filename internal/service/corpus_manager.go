package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	model "skipgram-go/internal/model/ngram"
	"skipgram-go/internal/service/ngram"
	"skipgram-go/internal/service/tokenizer"

	"go.uber.org/zap"
)

var (
	ErrCorpusNotFound   = errors.New("corpus not found")
	ErrCorpusExists     = errors.New("corpus already exists")
	ErrFileNotFound     = errors.New("file not found in corpus")
	ErrUnknownTokenizer = errors.New("no tokenizer found")
)

// CorpusOptions bounds every collection of a corpus
type CorpusOptions struct {
	MaxOrder int
	MaxSkip  int
	// FilterItems > 0 enables the membership filter on the global collection
	FilterItems       uint
	FalsePositiveRate float64
	// Workers bounds the shards built by AddSequences
	Workers int
	// QueryTokenizer tokenizes query text when no language is given
	QueryTokenizer string
}

// FileEntry is the per-file collection of a corpus
type FileEntry struct {
	Path       string    `json:"path"`
	Language   string    `json:"language"`
	TokenCount int       `json:"token_count"`
	AddedAt    time.Time `json:"added_at"`

	Collection *ngram.Skipgrams[string] `json:"-"`
}

// CorpusStats summarizes a corpus
type CorpusStats struct {
	Name           string         `json:"name"`
	TotalFiles     int            `json:"total_files"`
	TotalTokens    int            `json:"total_tokens"`
	LanguageCounts map[string]int `json:"language_counts"`
	Global         ngram.Stats    `json:"global"`
}

// CorpusManager keeps one skip-gram collection per file and a global
// collection holding their sum
type CorpusManager struct {
	name      string
	opts      CorpusOptions
	global    *ngram.Skipgrams[string]
	files     map[string]*FileEntry // file path -> entry
	tokenizer *tokenizer.TokenizerRegistry
	logger    *zap.Logger
	mu        sync.RWMutex // Protects global and files
}

// NewCorpusManager creates an empty corpus
func NewCorpusManager(name string, opts CorpusOptions, registry *tokenizer.TokenizerRegistry, logger *zap.Logger) (*CorpusManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = tokenizer.NewTokenizerRegistry()
	}

	cm := &CorpusManager{
		name:      name,
		opts:      opts,
		files:     make(map[string]*FileEntry),
		tokenizer: registry,
		logger:    logger.With(zap.String("corpus", name)),
	}
	global, err := cm.newGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus %s: %w", name, err)
	}
	cm.global = global
	return cm, nil
}

func (cm *CorpusManager) newGlobal() (*ngram.Skipgrams[string], error) {
	opts := []ngram.Option{ngram.WithLogger(cm.logger)}
	if cm.opts.FilterItems > 0 {
		opts = append(opts, ngram.WithMembershipFilter(cm.opts.FilterItems, cm.opts.FalsePositiveRate))
	}
	return ngram.NewSkipgrams[string](cm.opts.MaxOrder, cm.opts.MaxSkip, opts...)
}

// Name returns the corpus name
func (cm *CorpusManager) Name() string { return cm.name }

// Tokenize runs language's tokenizer over source and returns the normalized
// tokens
func (cm *CorpusManager) Tokenize(ctx context.Context, language string, source []byte) ([]string, error) {
	tok, ok := cm.tokenizer.GetTokenizer(language)
	if !ok {
		return nil, fmt.Errorf("%w for language: %s", ErrUnknownTokenizer, language)
	}
	return tokenizer.Normalized(ctx, tok, source)
}

// QueryTokens returns tokens when given, otherwise text run through
// language's tokenizer ("word" when language is empty)
func (cm *CorpusManager) QueryTokens(ctx context.Context, tokens []string, text, language string) ([]string, error) {
	if len(tokens) > 0 {
		return tokens, nil
	}
	if language == "" {
		language = cmp.Or(cm.opts.QueryTokenizer, "word")
	}
	return cm.Tokenize(ctx, language, []byte(text))
}

// AddFile tokenizes source and adds it to the corpus. Adding a path that is
// already present replaces its previous contents.
func (cm *CorpusManager) AddFile(ctx context.Context, filePath string, source []byte, language string) error {
	tokens, err := cm.Tokenize(ctx, language, source)
	if err != nil {
		return err
	}
	return cm.AddTokens(filePath, tokens, language)
}

// AddTokens adds an already normalized token sequence under filePath
func (cm *CorpusManager) AddTokens(filePath string, tokens []string, language string) error {
	coll, err := ngram.NewSkipgrams[string](cm.opts.MaxOrder, cm.opts.MaxSkip)
	if err != nil {
		return err
	}
	if err := coll.AddFromSeq(tokens, 1); err != nil {
		return fmt.Errorf("failed to count %s: %w", filePath, err)
	}
	return cm.addCollection(filePath, language, len(tokens), coll)
}

// AddSequences counts several independent sequences under one filePath.
// Windows never span two sequences. The sequences are sharded over
// opts.Workers goroutines.
func (cm *CorpusManager) AddSequences(ctx context.Context, filePath string, seqs [][]string, language string) error {
	coll, err := ngram.BuildSkipgrams(ctx, seqs, cm.opts.MaxOrder, cm.opts.MaxSkip, ngram.BuildConfig{
		Workers: cm.opts.Workers,
		Count:   1,
		Logger:  cm.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", filePath, err)
	}
	tokenCount := 0
	for _, seq := range seqs {
		tokenCount += len(seq)
	}
	return cm.addCollection(filePath, language, tokenCount, coll)
}

func (cm *CorpusManager) addCollection(filePath, language string, tokenCount int, coll *ngram.Skipgrams[string]) error {
	entry := &FileEntry{
		Path:       filePath,
		Language:   language,
		TokenCount: tokenCount,
		AddedAt:    time.Now(),
		Collection: coll,
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if existing, exists := cm.files[filePath]; exists {
		cm.files[filePath] = entry
		if err := cm.rebuildGlobalLocked(); err != nil {
			return err
		}
		cm.logger.Debug("Updated file in corpus",
			zap.String("path", filePath),
			zap.Int("old_tokens", existing.TokenCount),
			zap.Int("new_tokens", tokenCount),
		)
		return nil
	}

	if err := cm.global.Combine(coll); err != nil {
		return err
	}
	cm.files[filePath] = entry

	cm.logger.Debug("Added file to corpus",
		zap.String("path", filePath),
		zap.String("language", language),
		zap.Int("tokens", tokenCount),
	)
	return nil
}

// RemoveFile drops a file and rebuilds the global collection from the
// remaining files
func (cm *CorpusManager) RemoveFile(filePath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.files[filePath]; !exists {
		return fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	delete(cm.files, filePath)

	if err := cm.rebuildGlobalLocked(); err != nil {
		return err
	}
	cm.logger.Debug("Removed file from corpus", zap.String("path", filePath))
	return nil
}

// rebuildGlobalLocked recomputes the global collection; counts cannot be
// subtracted from a collection
func (cm *CorpusManager) rebuildGlobalLocked() error {
	global, err := cm.newGlobal()
	if err != nil {
		return err
	}
	for _, path := range cm.sortedPathsLocked() {
		if err := global.Combine(cm.files[path].Collection); err != nil {
			return err
		}
	}
	cm.global = global
	return nil
}

func (cm *CorpusManager) sortedPathsLocked() []string {
	paths := make([]string, 0, len(cm.files))
	for path := range cm.files {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// ListFiles returns the files of the corpus sorted by path
func (cm *CorpusManager) ListFiles() []FileEntry {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	files := make([]FileEntry, 0, len(cm.files))
	for _, path := range cm.sortedPathsLocked() {
		files = append(files, *cm.files[path])
	}
	return files
}

// GetFileCollection returns the collection built from one file
func (cm *CorpusManager) GetFileCollection(filePath string) (*ngram.Skipgrams[string], error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	entry, exists := cm.files[filePath]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	return entry.Collection, nil
}

// Count returns the corpus-wide count of tokens under skip
func (cm *CorpusManager) Count(tokens []string, skip int) (int64, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.global.Count(tokens, skip)
}

// Contains reports whether tokens occur under any skip
func (cm *CorpusManager) Contains(tokens []string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.global.Contains(tokens)
}

// NgramsWithPrefix returns up to limit entries of the selected strata that
// start with prefix, in enumeration order. limit <= 0 returns all of them.
func (cm *CorpusManager) NgramsWithPrefix(orders, skips ngram.Selection, prefix []string, limit int) ([]model.Entry[string], error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	entries, err := cm.global.Entries(orders, skips, prefix)
	if err != nil {
		return nil, err
	}
	var out []model.Entry[string]
	for e := range entries {
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// TopNGrams returns the k most frequent entries of one stratum, ordered by
// count descending then tokens ascending. k <= 0 returns the whole stratum.
func (cm *CorpusManager) TopNGrams(order, skip, k int) ([]model.Entry[string], error) {
	all, err := cm.NgramsWithPrefix(ngram.Only(order), ngram.Only(skip), nil, 0)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(all, func(a, b model.Entry[string]) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return slices.Compare(a.Tokens, b.Tokens)
	})
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// Bounds returns the corpus' current max order and max skip
func (cm *CorpusManager) Bounds() (maxOrder, maxSkip int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.global.MaxOrder(), cm.global.MaxSkip()
}

// GetStats returns statistics about the corpus
func (cm *CorpusManager) GetStats() CorpusStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := CorpusStats{
		Name:           cm.name,
		TotalFiles:     len(cm.files),
		LanguageCounts: make(map[string]int),
		Global:         cm.global.Stats(),
	}
	for _, entry := range cm.files {
		stats.LanguageCounts[entry.Language]++
		stats.TotalTokens += entry.TokenCount
	}
	return stats
}
