package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/prokb/internal/logger"
)

// DefaultDebounce coalesces bursts of file events into one notification.
const DefaultDebounce = 500 * time.Millisecond

// Watch notifies on the returned channel when the catalog file changes on
// disk. The parent directory is watched so that editors replacing the file
// by rename are seen. Rewrites made by MarkIngested are not reported. The
// channel is closed when ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) (<-chan struct{}, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	go c.watchLoop(ctx, watcher, debounce, changes)
	return changes, nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, changes chan<- struct{}) {
	defer close(changes)
	defer watcher.Close()

	name := filepath.Base(c.path)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name || !isContentChange(event.Op) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true

		case <-timer.C:
			pending = false
			if c.isOwnWrite() {
				logger.Debug("catalog changed by ingestion, ignoring")
				continue
			}
			logger.Debug("catalog %s changed", c.path)
			select {
			case changes <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("catalog watcher: %v", err)
		}
	}
}

// isContentChange reports whether the operation may have changed content.
func isContentChange(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
