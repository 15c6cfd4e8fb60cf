package ngram

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// BuildConfig controls parallel construction
type BuildConfig struct {
	// Workers is the number of shards built in parallel. Values < 1 use
	// runtime.NumCPU().
	Workers int
	// Count is added for every entry generated from a sequence. Values < 1
	// use 1.
	Count  int64
	Logger *zap.Logger
}

func (c BuildConfig) withDefaults() BuildConfig {
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	if c.Count < 1 {
		c.Count = 1
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// BuildNgrams ingests seqs into a new Ngrams collection. Each worker fills a
// private shard; shards are combined once every worker is done.
func BuildNgrams[T comparable](ctx context.Context, seqs [][]T, maxOrder int, cfg BuildConfig, opts ...Option) (*Ngrams[T], error) {
	cfg = cfg.withDefaults()
	opts = append([]Option{WithLogger(cfg.Logger)}, opts...)

	result, err := NewNgrams[T](maxOrder, opts...)
	if err != nil {
		return nil, err
	}
	shards, err := buildShards(ctx, seqs, cfg,
		func() (*Ngrams[T], error) { return NewNgrams[T](maxOrder, opts...) },
		func(shard *Ngrams[T], seq []T) error { return shard.AddFromSeq(seq, cfg.Count) },
	)
	if err != nil {
		return nil, err
	}
	for _, shard := range shards {
		if err := result.Combine(shard); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// BuildSkipgrams ingests seqs into a new Skipgrams collection, the same way as
// BuildNgrams
func BuildSkipgrams[T comparable](ctx context.Context, seqs [][]T, maxOrder, maxSkip int, cfg BuildConfig, opts ...Option) (*Skipgrams[T], error) {
	cfg = cfg.withDefaults()
	opts = append([]Option{WithLogger(cfg.Logger)}, opts...)

	result, err := NewSkipgrams[T](maxOrder, maxSkip, opts...)
	if err != nil {
		return nil, err
	}
	shards, err := buildShards(ctx, seqs, cfg,
		func() (*Skipgrams[T], error) { return NewSkipgrams[T](maxOrder, maxSkip, opts...) },
		func(shard *Skipgrams[T], seq []T) error { return shard.AddFromSeq(seq, cfg.Count) },
	)
	if err != nil {
		return nil, err
	}
	for _, shard := range shards {
		if err := result.Combine(shard); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// buildShards fans seqs out over cfg.Workers goroutines, each owning one
// shard. The first error (or context cancellation) stops all workers.
func buildShards[T comparable, C Collection[T]](
	ctx context.Context,
	seqs [][]T,
	cfg BuildConfig,
	newShard func() (C, error),
	ingest func(C, []T) error,
) ([]C, error) {
	workers := min(cfg.Workers, max(len(seqs), 1))
	shards := make([]C, workers)
	for i := range shards {
		shard, err := newShard()
		if err != nil {
			return nil, err
		}
		shards[i] = shard
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workQueue := make(chan []T, workers*2)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(shard C) {
			defer wg.Done()
			for seq := range workQueue {
				if ctx.Err() != nil {
					continue
				}
				if err := ingest(shard, seq); err != nil {
					fail(err)
				}
			}
		}(shards[i])
	}

feed:
	for _, seq := range seqs {
		select {
		case <-ctx.Done():
			break feed
		case workQueue <- seq:
		}
	}
	close(workQueue)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg.Logger.Debug("Built shards",
		zap.Int("sequences", len(seqs)),
		zap.Int("workers", workers),
	)
	return shards, nil
}
