package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"welfare-scheme-engine/internal/utils"
)

// Watcher hot-reloads the catalog when its file changes on disk.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onReload func()
	debounce time.Duration
}

// NewWatcher creates a file watcher for the store's catalog path.
// onReload, if non-nil, runs after every successful reload.
func NewWatcher(store *Store, onReload func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files with a
	// rename, which drops a file-level watch.
	dir := filepath.Dir(store.path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		store:    store,
		watcher:  fsWatcher,
		onReload: onReload,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Run blocks processing file events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	target := filepath.Clean(w.store.path)
	var timer *time.Timer
	reloads := make(chan struct{}, 1)

	utils.GetLogger().Info("Watching catalog for changes", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts of write events from a single save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			if err := w.store.Reload(); err != nil {
				utils.GetLogger().Error("Hot reload failed, keeping previous catalog", zap.Error(err))
				continue
			}
			if w.onReload != nil {
				w.onReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			utils.GetLogger().Error("Catalog watcher error", zap.Error(err))
		}
	}
}
