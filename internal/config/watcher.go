package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"agentlens/internal/async"
	"agentlens/internal/logging"
)

const defaultConfigWatchDebounce = 750 * time.Millisecond

// Watcher monitors the engine config file on disk and invokes a reload
// callback after edits settle, debounced the way alex's
// RuntimeConfigWatcher debounces config-file fsnotify events.
type Watcher struct {
	path     string
	logger   logging.Logger
	debounce time.Duration
	onReload func(EngineConfig, error)

	mu       sync.Mutex
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher constructs a Watcher for path. onReload fires (possibly with
// a non-nil error, never both nil config and nil error) after every
// debounced change. logger may be nil.
func NewWatcher(path string, onReload func(EngineConfig, error), logger logging.Logger) (*Watcher, error) {
	path = filepath.Clean(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if onReload == nil {
		return nil, fmt.Errorf("config watcher: onReload callback required")
	}
	return &Watcher{
		path:     path,
		logger:   logging.OrNop(logger),
		debounce: defaultConfigWatchDebounce,
		onReload: onReload,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the config file's directory for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsWatcher
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		w.mu.Lock()
		w.watcher = nil
		w.mu.Unlock()
		return err
	}

	async.Go(w.logger, "config.watch", w.watchLoop)
	if ctx != nil {
		async.Go(w.logger, "config.watch.ctx", func() {
			<-ctx.Done()
			w.Stop()
		})
	}
	return nil
}

// Stop terminates the watcher. Safe to call more than once and safe to
// call while a reload is in flight (spec §5 Cancellation).
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) watchLoop() {
	for {
		select {
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
			w.logger.Warn("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		cfg, err := Load(w.path)
		w.onReload(cfg, err)
	})
}
