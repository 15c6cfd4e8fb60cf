package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"skipgram-go/internal/config"
	"skipgram-go/internal/service/tokenizer"
	"skipgram-go/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var skipDirs = []string{
	".git", "node_modules", ".vscode", ".idea", "vendor", "target",
	"build", "dist", "__pycache__", ".pytest_cache", "coverage",
	"site-packages", ".next", ".nuxt", "venv", "env",
}

// ProcessResult reports one directory ingestion run
type ProcessResult struct {
	RunID     string        `json:"run_id"`
	Corpus    string        `json:"corpus"`
	Root      string        `json:"root"`
	Language  string        `json:"language,omitempty"`
	Revision  string        `json:"revision,omitempty"`
	Files     int           `json:"files"`
	Failed    int           `json:"failed"`
	Tokens    int64         `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	Completed bool          `json:"completed"`
}

// NGramService owns the named corpora and the tokenizer registry
type NGramService struct {
	corpusManagers map[string]*CorpusManager // corpus name -> corpus manager
	registry       *tokenizer.TokenizerRegistry
	cfg            *config.Config
	logger         *zap.Logger
	mu             sync.RWMutex
}

// NewNGramService creates a service using cfg for corpus bounds and walker
// settings
func NewNGramService(cfg *config.Config, registry *tokenizer.TokenizerRegistry, logger *zap.Logger) *NGramService {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = tokenizer.NewTokenizerRegistry()
	}
	return &NGramService{
		corpusManagers: make(map[string]*CorpusManager),
		registry:       registry,
		cfg:            cfg,
		logger:         logger,
	}
}

// Registry returns the tokenizer registry
func (ns *NGramService) Registry() *tokenizer.TokenizerRegistry {
	return ns.registry
}

// CreateCorpus registers an empty corpus. Bounds come from the matching
// corpora entry of the configuration, or from the ngram defaults.
func (ns *NGramService) CreateCorpus(name string) (*CorpusManager, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.corpusManagers[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrCorpusExists, name)
	}

	corpusCfg, _ := ns.cfg.GetCorpus(name)
	maxOrder, maxSkip := ns.cfg.Bounds(corpusCfg)
	opts := CorpusOptions{
		MaxOrder:       maxOrder,
		MaxSkip:        maxSkip,
		Workers:        ns.cfg.NGram.Workers,
		QueryTokenizer: ns.cfg.NGram.Tokenizer,
	}
	if ns.cfg.NGram.Bloom.Enabled {
		opts.FilterItems = ns.cfg.NGram.Bloom.ExpectedItems
		opts.FalsePositiveRate = ns.cfg.NGram.Bloom.FalsePositiveRate
	}

	cm, err := NewCorpusManager(name, opts, ns.registry, ns.logger)
	if err != nil {
		return nil, err
	}
	ns.corpusManagers[name] = cm

	ns.logger.Info("Created corpus",
		zap.String("corpus", name),
		zap.Int("max_order", maxOrder),
		zap.Int("max_skip", maxSkip),
	)
	return cm, nil
}

// GetOrCreateCorpus returns the named corpus, creating it when missing
func (ns *NGramService) GetOrCreateCorpus(name string) (*CorpusManager, error) {
	if cm, err := ns.GetCorpusManager(name); err == nil {
		return cm, nil
	}
	cm, err := ns.CreateCorpus(name)
	if errors.Is(err, ErrCorpusExists) {
		// created concurrently
		return ns.GetCorpusManager(name)
	}
	return cm, err
}

// GetCorpusManager returns the named corpus
func (ns *NGramService) GetCorpusManager(name string) (*CorpusManager, error) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cm, exists := ns.corpusManagers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, name)
	}
	return cm, nil
}

// ListCorpora returns the corpus names in sorted order
func (ns *NGramService) ListCorpora() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	names := make([]string, 0, len(ns.corpusManagers))
	for name := range ns.corpusManagers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ProcessDirectory walks root with the concurrent walker and adds every file
// to the named corpus, which is created if needed. With language empty each
// file's tokenizer is chosen by extension and files without one are skipped;
// otherwise every file goes through that tokenizer. Files are keyed by their
// path relative to root.
func (ns *NGramService) ProcessDirectory(ctx context.Context, corpus, root, language string) (*ProcessResult, error) {
	cm, err := ns.GetOrCreateCorpus(corpus)
	if err != nil {
		return nil, err
	}
	if language != "" {
		if _, ok := ns.registry.GetTokenizer(language); !ok {
			return nil, fmt.Errorf("%w for language: %s", ErrUnknownTokenizer, language)
		}
	}

	result := &ProcessResult{
		RunID:    uuid.NewString(),
		Corpus:   corpus,
		Root:     root,
		Language: language,
	}
	if sha, ok := util.GitHead(root); ok {
		result.Revision = sha
	}

	logger := ns.logger.With(zap.String("run_id", result.RunID), zap.String("corpus", corpus))
	logger.Info("Processing directory",
		zap.String("path", root),
		zap.String("language", language),
		zap.String("revision", result.Revision),
	)

	start := time.Now()
	var fileCount, failedCount, tokenCount atomic.Int64

	err = util.WalkDirTree(ctx, root,
		func(path string, err error) error {
			if err != nil {
				return err
			}

			lang := language
			if lang == "" {
				lang = ns.registry.DetectLanguage(path)
			}

			source, err := os.ReadFile(path)
			if err != nil {
				failedCount.Add(1)
				return fmt.Errorf("failed to read file: %w", err)
			}

			tokens, err := cm.Tokenize(ctx, lang, source)
			if err == nil {
				err = cm.AddTokens(util.ToRelativePath(root, path), tokens, lang)
			}
			if err != nil {
				failedCount.Add(1)
				return fmt.Errorf("failed to process file: %w", err)
			}

			count := fileCount.Add(1)
			tokenCount.Add(int64(len(tokens)))
			if count%100 == 0 {
				logger.Info("Processing progress", zap.Int64("files", count))
			}
			return nil
		},
		func(path string, isDir bool) bool {
			if isDir {
				return ns.shouldSkipDirectory(filepath.Base(path))
			}
			return language == "" && ns.registry.DetectLanguage(path) == ""
		},
		logger,
		ns.cfg.App.GCThreshold,
		ns.cfg.App.NumFileThreads,
	)

	result.Files = int(fileCount.Load())
	result.Failed = int(failedCount.Load())
	result.Tokens = tokenCount.Load()
	result.Duration = time.Since(start)
	if err != nil {
		return result, fmt.Errorf("failed to walk directory: %w", err)
	}
	result.Completed = true

	stats := cm.GetStats()
	logger.Info("Directory processing complete",
		zap.Int("files_processed", result.Files),
		zap.Int("files_failed", result.Failed),
		zap.Int64("unique_entries", stats.Global.Unique),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// ProcessConfiguredCorpora ingests every corpus listed in the configuration
func (ns *NGramService) ProcessConfiguredCorpora(ctx context.Context) ([]*ProcessResult, error) {
	var results []*ProcessResult
	for _, corpus := range ns.cfg.Corpora {
		if corpus.Path == "" {
			continue
		}
		res, err := ns.ProcessDirectory(ctx, corpus.Name, corpus.Path, corpus.Language)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (ns *NGramService) shouldSkipDirectory(dirName string) bool {
	return slices.Contains(skipDirs, dirName)
}
