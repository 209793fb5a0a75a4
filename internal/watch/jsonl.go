// Package watch turns "file changed" notifications into readNew() calls
// and pushes the resulting events to a subscriber callback (spec §4.9).
// Two watcher types share the start(replay)/stop()/isActive contract: a
// JSONL tail watcher built on an OS file watch plus a debounced read, and
// a database watcher built on a periodic poll plus a watch of the
// database file and its WAL sidecar. Both are modeled on
// internal/config.Watcher's fsnotify-plus-debounce shape.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"agentlens/internal/async"
	"agentlens/internal/eventmodel"
	"agentlens/internal/logging"
	"agentlens/internal/reader"
)

// OnEvents is invoked with every non-empty batch of newly read events.
// Readers swallow their own I/O failures (spec §7), so no error reaches
// the callback.
type OnEvents func(events []eventmodel.SessionEvent)

const (
	defaultTailDebounce = 100 * time.Millisecond
	defaultTailCatchUp  = 30 * time.Second
)

// JSONLWatcher is the JSONL tail watcher (spec §4.9): install an OS file
// watch with a debounced read, plus a periodic catch-up read to cover
// missed notifications and editor-atomic writes (rename-over-write).
type JSONLWatcher struct {
	path     string
	rd       reader.Reader
	onEvents OnEvents
	logger   logging.Logger
	debounce time.Duration
	catchUp  time.Duration

	mu        sync.Mutex
	active    bool
	fsWatcher *fsnotify.Watcher
	timer     *time.Timer
	catchTk   *time.Ticker
	stopCh    chan struct{}
}

// Config carries the four watcher tunables (JSONL debounce and catch-up
// interval, DB debounce and poll interval) spec §4.9 names; zero values
// fall back to the documented defaults.
type Config struct {
	TailDebounce time.Duration
	TailCatchUp  time.Duration
	DBDebounce   time.Duration
	DBPoll       time.Duration
}

// NewJSONLWatcher constructs a watcher over path using rd to turn file
// changes into events, delivered to onEvents.
func NewJSONLWatcher(path string, rd reader.Reader, onEvents OnEvents, cfg Config, logger logging.Logger) *JSONLWatcher {
	debounce := cfg.TailDebounce
	if debounce <= 0 {
		debounce = defaultTailDebounce
	}
	catchUp := cfg.TailCatchUp
	if catchUp <= 0 {
		catchUp = defaultTailCatchUp
	}
	return &JSONLWatcher{
		path:     filepath.Clean(path),
		rd:       rd,
		onEvents: onEvents,
		logger:   logging.OrNop(logger),
		debounce: debounce,
		catchUp:  catchUp,
	}
}

// Start begins watching. replay=true reads from the beginning of the
// file first (ReadAll); replay=false seeks to the current end (the
// reader's cursor already reflects "nothing read yet", so a plain
// ReadNew at the current file size effectively starts at EOF — the
// caller is expected to have already positioned rd via SeekTo when
// resuming from a snapshot).
func (w *JSONLWatcher) Start(ctx context.Context, replay bool) error {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		w.mu.Unlock()
		return err
	}

	w.fsWatcher = fsWatcher
	w.stopCh = make(chan struct{})
	w.catchTk = time.NewTicker(w.catchUp)
	w.active = true
	w.mu.Unlock()

	if replay {
		w.readAll()
	} else {
		// Seek to end-of-file (spec §4.9): consume whatever already
		// exists without emitting it, so the reader's cursor lands at
		// the current end and only subsequently appended lines surface.
		_, _ = w.rd.ReadNew()
	}

	async.Go(w.logger, "watch.jsonl.events", w.watchLoop)
	async.Go(w.logger, "watch.jsonl.catchup", w.catchUpLoop)
	if ctx != nil {
		async.Go(w.logger, "watch.jsonl.ctx", func() {
			<-ctx.Done()
			w.Stop()
		})
	}
	return nil
}

// Stop cancels debounce/catch-up timers, closes the OS watch, and
// flushes the reader's buffered partial line. Synchronous and idempotent
// (spec §5 Cancellation).
func (w *JSONLWatcher) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.catchTk != nil {
		w.catchTk.Stop()
	}
	fsWatcher := w.fsWatcher
	w.fsWatcher = nil
	w.mu.Unlock()

	if fsWatcher != nil {
		_ = fsWatcher.Close()
	}
	w.rd.Flush()
}

// IsActive reports whether the watcher is currently running.
func (w *JSONLWatcher) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *JSONLWatcher) watchLoop() {
	w.mu.Lock()
	fsWatcher := w.fsWatcher
	stopCh := w.stopCh
	w.mu.Unlock()
	if fsWatcher == nil {
		return
	}

	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleRead()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("jsonl watcher error: %v", err)
		}
	}
}

func (w *JSONLWatcher) catchUpLoop() {
	w.mu.Lock()
	tk := w.catchTk
	stopCh := w.stopCh
	w.mu.Unlock()
	if tk == nil {
		return
	}
	for {
		select {
		case <-stopCh:
			return
		case <-tk.C:
			w.readNew()
		}
	}
}

func (w *JSONLWatcher) scheduleRead() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		active := w.active
		w.mu.Unlock()
		if !active {
			return
		}
		w.readNew()
	})
}

func (w *JSONLWatcher) readNew() {
	events, err := w.rd.ReadNew()
	if err != nil || len(events) == 0 {
		return
	}
	if w.onEvents != nil {
		w.onEvents(events)
	}
}

func (w *JSONLWatcher) readAll() {
	events, err := w.rd.ReadAll()
	if err != nil || len(events) == 0 {
		return
	}
	if w.onEvents != nil {
		w.onEvents(events)
	}
}
