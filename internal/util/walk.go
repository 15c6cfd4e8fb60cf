package util

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// WalkFunc is called by a worker for every file that was not skipped
type WalkFunc func(path string, err error) error

// SkipFunc reports whether a path (and, for directories, everything below
// it) should be skipped
type SkipFunc func(path string, isDir bool) bool

type walkItem struct {
	path string
}

// WalkDirTree walks root and hands every regular file to numThreads workers
// calling walkFn. A failing walkFn is logged and does not stop the walk.
// When gcThreshold > 0 a GC is forced every gcThreshold files. The walk stops
// early when ctx is cancelled.
func WalkDirTree(ctx context.Context, root string, walkFn WalkFunc, skipPath SkipFunc, logger *zap.Logger, gcThreshold int64, numThreads int) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if numThreads < 1 {
		numThreads = 1
	}

	var processedCount atomic.Int64
	workQueue := make(chan walkItem, numThreads*2)
	var wg sync.WaitGroup

	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workQueue {
				processed := processedCount.Add(1)
				if gcThreshold > 0 && processed%gcThreshold == 0 {
					logger.Info("WalkDirTree - Triggering GC after processing files",
						zap.Int64("files_processed", processed))
					runtime.GC()
				}

				if err := walkFn(item.path, nil); err != nil {
					logger.Error("WalkDirTree - Failed to process file", zap.String("path", item.path), zap.Error(err))
				}
			}
		}()
	}

	err := walk(ctx, root, workQueue, skipPath)
	close(workQueue)
	wg.Wait()

	return err
}

func walk(ctx context.Context, root string, workQueue chan<- walkItem, skipPath SkipFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && skipPath != nil && skipPath(path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if skipPath != nil && skipPath(path, false) {
			return nil
		}

		select {
		case workQueue <- walkItem{path: path}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// ToRelativePath returns fullPath relative to rootPath, or fullPath itself
// when no relative form exists
func ToRelativePath(rootPath, fullPath string) string {
	relPath, err := filepath.Rel(rootPath, fullPath)
	if err != nil {
		return fullPath
	}
	return filepath.ToSlash(relPath)
}
