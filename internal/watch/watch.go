// Package watch notices SDK storage being replaced on disk, typically by a
// fetch run in another process, and drops the stale in-memory index.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sdkdocs/internal/logging"
)

// DefaultDebounce is how long a storage directory must stay quiet before
// its index is invalidated.
const DefaultDebounce = 500 * time.Millisecond

// Invalidator drops cached state for an SDK. *index.Cache implements it.
type Invalidator interface {
	Invalidate(sdkID string)
}

// Watcher watches the data directory for SDK storage roots being created,
// renamed or removed.
type Watcher struct {
	dataDir  string
	sdks     map[string]bool
	target   Invalidator
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time // sdk id -> last change
}

// New creates a watcher for the storage roots of sdkIDs under dataDir.
func New(dataDir string, sdkIDs []string, target Invalidator, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dataDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dataDir, err)
	}

	sdks := make(map[string]bool, len(sdkIDs))
	for _, id := range sdkIDs {
		sdks[id] = true
	}
	return &Watcher{
		dataDir:  dataDir,
		sdks:     sdks,
		target:   target,
		debounce: debounce,
		logger:   logging.OrDefault(logger),
		watcher:  fw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("storage watcher error", "err", err)

		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	id := filepath.Base(event.Name)
	if !w.sdks[id] {
		return
	}
	w.mu.Lock()
	w.pending[id] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(now time.Time) {
	var ready []string
	w.mu.Lock()
	for id, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, id)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	for _, id := range ready {
		w.logger.Info("sdk storage changed, dropping index", "sdk", id)
		w.target.Invalidate(id)
	}
}
