// Package watch re-runs normalization when markdown files under the content
// directory are created or modified.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// DefaultDebounce is how long a path must stay quiet before it is dispatched.
const DefaultDebounce = 300 * time.Millisecond

var (
	ErrRootRequired    = errors.New("watch: root directory required")
	ErrHandlerRequired = errors.New("watch: handler required")
	ErrClosed          = errors.New("watch: watcher closed")
)

// Handler receives a path relative to the watched root once its events settle.
type Handler func(ctx context.Context, path string) error

// Config describes what to watch and where to send settled paths.
type Config struct {
	Root     string
	Debounce time.Duration
	// Match filters relative paths. Nil matches every file.
	Match   func(path string) bool
	Handler Handler
	Logger  interfaces.Logger
}

// Stats counts watcher activity.
type Stats struct {
	Events     int
	Dispatched int
	Errors     int
}

// Watcher debounces filesystem events under a directory tree.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	match    func(string) bool
	handler  Handler
	logger   interfaces.Logger
	pending  map[string]time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	closed   bool
}

// New creates a watcher. Nothing is watched until Start is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, ErrRootRequired
	}
	if cfg.Handler == nil {
		return nil, ErrHandlerRequired
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  notify,
		root:     filepath.Clean(cfg.Root),
		debounce: debounce,
		match:    cfg.Match,
		handler:  cfg.Handler,
		logger:   logging.Ensure(cfg.Logger),
		pending:  map[string]time.Time{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins processing events in a
// goroutine. It returns once the watches are in place. A failed Start
// releases the watcher; it cannot be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return ErrClosed
	case w.running:
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root, false); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.release()
		return err
	}
	w.logger.Info("watch.started", "root", w.root, "debounce", w.debounce)

	go w.run(ctx)
	return nil
}

// Stop ends the event loop if it runs, waits for it to exit and releases the
// watches. It is safe to call without Start and more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
		w.logger.Info("watch.stopped")
	}
	w.release()
}

// Closed reports whether the underlying fsnotify watcher was released.
func (w *Watcher) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Watcher) release() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("watch.close_failed", "error", err)
	}
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// WatchedDirs lists the directories currently registered.
func (w *Watcher) WatchedDirs() []string {
	dirs := w.watcher.WatchList()
	sort.Strings(dirs)
	return dirs
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch.error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.mu.Lock()
	w.stats.Events++
	w.mu.Unlock()

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name, true); err != nil {
			w.logger.Warn("watch.add_failed", "path", event.Name, "error", err)
		}
		return
	}
	w.enqueue(event.Name)
}

// addTree watches dir and every directory below it. When enqueueFiles is set,
// files already present are queued too, since they may have been written
// before the watch existed.
func (w *Watcher) addTree(dir string, enqueueFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return err
			}
			w.logger.Debug("watch.directory.added", "path", path)
			return nil
		}
		if enqueueFiles && d.Type().IsRegular() {
			w.enqueue(path)
		}
		return nil
	})
}

func (w *Watcher) enqueue(path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.match != nil && !w.match(rel) {
		return
	}
	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	ready := make([]string, 0, len(w.pending))
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		err := w.handler(ctx, path)
		w.mu.Lock()
		w.stats.Dispatched++
		if err != nil {
			w.stats.Errors++
		}
		w.mu.Unlock()
		if err != nil {
			w.logger.Error("watch.dispatch.failed", "path", path, "error", err)
			continue
		}
		w.logger.Debug("watch.dispatch.completed", "path", path)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
