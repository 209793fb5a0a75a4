package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"agentlens/internal/async"
	"agentlens/internal/logging"
	"agentlens/internal/reader"
)

const (
	defaultDBDebounce = 200 * time.Millisecond
	defaultDBPoll     = 2 * time.Second
)

// DBWatcher is the database watcher (spec §4.9): OS file watches on both
// the database file and its write-ahead-log sidecar, debounced, plus a
// periodic poll to cover WAL checkpoints that don't touch either watched
// path's mtime in a way fsnotify reliably surfaces across filesystems.
type DBWatcher struct {
	dbPath   string
	walPath  string
	rd       reader.Reader
	onEvents OnEvents
	logger   logging.Logger
	debounce time.Duration
	poll     time.Duration

	mu        sync.Mutex
	active    bool
	fsWatcher *fsnotify.Watcher
	timer     *time.Timer
	pollTk    *time.Ticker
	stopCh    chan struct{}
}

// NewDBWatcher constructs a watcher over dbPath (and its "-wal" sidecar)
// using rd (a reader.TimeCursorReader) to pull new messages and parts.
func NewDBWatcher(dbPath string, rd reader.Reader, onEvents OnEvents, cfg Config, logger logging.Logger) *DBWatcher {
	debounce := cfg.DBDebounce
	if debounce <= 0 {
		debounce = defaultDBDebounce
	}
	poll := cfg.DBPoll
	if poll <= 0 {
		poll = defaultDBPoll
	}
	return &DBWatcher{
		dbPath:   filepath.Clean(dbPath),
		walPath:  filepath.Clean(dbPath) + "-wal",
		rd:       rd,
		onEvents: onEvents,
		logger:   logging.OrNop(logger),
		debounce: debounce,
		poll:     poll,
	}
}

// Start begins watching and performs a first read immediately. With
// replay=false the reader is Reset first, so the time-cursor reader's
// first poll reloads the full history; with replay=true any cursor already
// set (e.g. via SeekTo) is kept.
func (w *DBWatcher) Start(ctx context.Context, replay bool) error {
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
	dir := filepath.Dir(w.dbPath)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		w.mu.Unlock()
		return err
	}

	w.fsWatcher = fsWatcher
	w.stopCh = make(chan struct{})
	w.pollTk = time.NewTicker(w.poll)
	w.active = true
	w.mu.Unlock()

	if !replay {
		w.rd.Reset()
	}
	w.readNew()

	async.Go(w.logger, "watch.db.events", w.watchLoop)
	async.Go(w.logger, "watch.db.poll", w.pollLoop)
	if ctx != nil {
		async.Go(w.logger, "watch.db.ctx", func() {
			<-ctx.Done()
			w.Stop()
		})
	}
	return nil
}

// Stop cancels timers, closes the OS watch, and flushes the reader
// (a no-op for the time-cursor reader, kept for contract parity).
func (w *DBWatcher) Stop() {
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
	if w.pollTk != nil {
		w.pollTk.Stop()
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
func (w *DBWatcher) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *DBWatcher) watchLoop() {
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
			name := filepath.Clean(event.Name)
			if name != w.dbPath && name != w.walPath {
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
			w.logger.Warn("db watcher error: %v", err)
		}
	}
}

func (w *DBWatcher) pollLoop() {
	w.mu.Lock()
	tk := w.pollTk
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

func (w *DBWatcher) scheduleRead() {
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

func (w *DBWatcher) readNew() {
	events, err := w.rd.ReadNew()
	if err != nil || len(events) == 0 {
		return
	}
	if w.onEvents != nil {
		w.onEvents(events)
	}
}
