package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"skipgram-go/internal/util"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DirectoryWatcher keeps a corpus in sync with a directory: written files are
// re-added, removed or renamed files are dropped
type DirectoryWatcher struct {
	cm       *CorpusManager
	ns       *NGramService
	root     string
	language string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// WatchDirectory registers watches on root and its subdirectories. Events are
// handled once Run is called.
func (ns *NGramService) WatchDirectory(corpus, root, language string) (*DirectoryWatcher, error) {
	cm, err := ns.GetOrCreateCorpus(corpus)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DirectoryWatcher{
		cm:       cm,
		ns:       ns,
		root:     root,
		language: language,
		watcher:  watcher,
		logger:   ns.logger.With(zap.String("corpus", corpus), zap.String("root", root)),
	}
	if err := dw.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return dw, nil
}

func (dw *DirectoryWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && dw.ns.shouldSkipDirectory(d.Name()) {
			return filepath.SkipDir
		}
		return dw.watcher.Add(path)
	})
}

// Run handles events until ctx is done, then closes the watcher
func (dw *DirectoryWatcher) Run(ctx context.Context) error {
	defer dw.watcher.Close()
	dw.logger.Info("Watching directory")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return nil
			}
			dw.handle(ctx, event)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return nil
			}
			dw.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (dw *DirectoryWatcher) handle(ctx context.Context, event fsnotify.Event) {
	rel := util.ToRelativePath(dw.root, event.Name)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// fsnotify drops watches on removed directories itself
		if err := dw.cm.RemoveFile(rel); err != nil && !errors.Is(err, ErrFileNotFound) {
			dw.logger.Error("Failed to remove file", zap.String("path", rel), zap.Error(err))
		}
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !dw.ns.shouldSkipDirectory(info.Name()) {
			if err := dw.addTree(event.Name); err != nil {
				dw.logger.Warn("Failed to watch directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
		return
	}

	lang := dw.language
	if lang == "" {
		lang = dw.ns.registry.DetectLanguage(event.Name)
		if lang == "" {
			return
		}
	}

	source, err := os.ReadFile(event.Name)
	if err != nil {
		dw.logger.Warn("Failed to read file", zap.String("path", rel), zap.Error(err))
		return
	}
	if err := dw.cm.AddFile(ctx, rel, source, lang); err != nil {
		dw.logger.Error("Failed to update file", zap.String("path", rel), zap.Error(err))
		return
	}
	dw.logger.Debug("Synced file", zap.String("path", rel), zap.String("op", event.Op.String()))
}
