// SPDX-License-Identifier: MIT

package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	xglog "github.com/bello-app/bellod/internal/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes the videos directory and schedules a self-healing prune
// when files are removed out-of-band. The prune would also happen on the
// next read; the watcher just makes it prompt.
type Watcher struct {
	storage  *Storage
	debounce time.Duration
}

// NewWatcher creates a watcher for the storage's videos directory.
func NewWatcher(storage *Storage) *Watcher {
	return &Watcher{
		storage:  storage,
		debounce: 500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled, pruning the metadata store after
// remove/rename events settle. The directory must exist before Run is
// called (Initialize creates it).
func (w *Watcher) Run(ctx context.Context) error {
	logger := xglog.WithComponentFromContext(ctx, "watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := w.storage.VideosDir()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}
	logger.Info().Str("event", "watcher.started").Str("dir", dir).Msg("watching videos directory")

	// Timer is armed on the first relevant event and re-armed while events
	// keep arriving, so a burst of deletions triggers a single prune.
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-debounce.C:
			w.storage.Prune(ctx)
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".mp4") {
				continue
			}
			logger.Debug().
				Str("event", "watcher.file_removed").
				Str("path", event.Name).
				Msg("video removed out-of-band")
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}
