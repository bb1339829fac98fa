package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a snapshot file when it changes on disk. It watches the
// containing directory so editors that save by rename are still seen.
type Watcher struct {
	path        string
	logger      *zap.Logger
	watcher     *fsnotify.Watcher
	debounceDur time.Duration

	mu      sync.Mutex
	pending time.Time
	reloads int
}

// NewWatcher starts watching the directory of path. Events that arrive
// before Run is called are kept and handled once it starts.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:        abs,
		logger:      logger,
		watcher:     fw,
		debounceDur: 200 * time.Millisecond, // editors write in bursts
	}, nil
}

// Run blocks until ctx is done, calling onReload with every snapshot that
// loads cleanly after a change. A snapshot that fails to load is logged and
// the previous scene stays in place.
func (w *Watcher) Run(ctx context.Context, onReload func(*Scene)) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("snapshot watcher error", zap.Error(err))

		case <-ticker.C:
			if w.settled() {
				w.reload(onReload)
			}
		}
	}
}

// Reloads returns how many snapshots were handed to onReload.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("snapshot changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		return false
	}
	w.pending = time.Time{}
	return true
}

func (w *Watcher) reload(onReload func(*Scene)) {
	s, err := Load(w.path)
	if err != nil {
		w.logger.Warn("snapshot reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("snapshot reloaded", zap.String("path", w.path), zap.Int("nodes", s.Len()))
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	onReload(s)
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, logger *zap.Logger, onReload func(*Scene)) error {
	w, err := NewWatcher(path, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx, onReload)
}
