package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agentlens/internal/eventmodel"
)

// fakeReader is a hand-rolled reader.Reader: ReadNew drains a queue of
// pre-loaded batches, one per call, so tests control exactly what a
// "new read" produces without touching a real file.
type fakeReader struct {
	mu       sync.Mutex
	batches  [][]eventmodel.SessionEvent
	position int64
	flushed  bool
	resetN   int
}

func (f *fakeReader) push(events ...eventmodel.SessionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, events)
}

func (f *fakeReader) ReadNew() ([]eventmodel.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	f.position++
	return next, nil
}

func (f *fakeReader) ReadAll() ([]eventmodel.SessionEvent, error) { return f.ReadNew() }
func (f *fakeReader) Reset()                                      { f.mu.Lock(); f.resetN++; f.mu.Unlock() }
func (f *fakeReader) Exists() bool                                { return true }
func (f *fakeReader) Flush()                                      { f.mu.Lock(); f.flushed = true; f.mu.Unlock() }
func (f *fakeReader) GetPosition() int64                          { return f.position }
func (f *fakeReader) SeekTo(int64)                                {}
func (f *fakeReader) WasTruncated() bool                          { return false }

func collectEvents(t *testing.T, deadline time.Duration, want int) (func() []eventmodel.SessionEvent, OnEvents) {
	t.Helper()
	var mu sync.Mutex
	var got []eventmodel.SessionEvent
	done := make(chan struct{})
	once := sync.Once{}
	cb := func(events []eventmodel.SessionEvent) {
		mu.Lock()
		got = append(got, events...)
		n := len(got)
		mu.Unlock()
		if n >= want {
			once.Do(func() { close(done) })
		}
	}
	wait := func() []eventmodel.SessionEvent {
		select {
		case <-done:
		case <-time.After(deadline):
		}
		mu.Lock()
		defer mu.Unlock()
		out := make([]eventmodel.SessionEvent, len(got))
		copy(out, got)
		return out
	}
	return wait, cb
}

func TestJSONLWatcherReplayReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rd := &fakeReader{}
	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventUser})

	wait, cb := collectEvents(t, time.Second, 1)
	w := NewJSONLWatcher(path, rd, cb, Config{}, nil)
	if err := w.Start(context.Background(), true); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	got := wait()
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
}

func TestJSONLWatcherNoReplaySkipsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rd := &fakeReader{}
	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventUser}) // consumed silently by the EOF seek

	var calls int
	var mu sync.Mutex
	cb := func(events []eventmodel.SessionEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	w := NewJSONLWatcher(path, rd, cb, Config{}, nil)
	if err := w.Start(context.Background(), false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("onEvents called %d times, want 0 (replay=false should not surface pre-existing content)", calls)
	}
}

func TestJSONLWatcherDebouncesFSEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rd := &fakeReader{}
	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventAssistant})

	wait, cb := collectEvents(t, 2*time.Second, 1)
	w := NewJSONLWatcher(path, rd, cb, Config{TailDebounce: 50 * time.Millisecond, TailCatchUp: time.Hour}, nil)
	if err := w.Start(context.Background(), false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := wait()
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1 after fs write triggers a debounced read", len(got))
	}
}

func TestJSONLWatcherStopFlushesReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	os.WriteFile(path, nil, 0o644)

	rd := &fakeReader{}
	w := NewJSONLWatcher(path, rd, nil, Config{}, nil)
	if err := w.Start(context.Background(), true); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()

	rd.mu.Lock()
	defer rd.mu.Unlock()
	if !rd.flushed {
		t.Fatal("expected Stop to flush the reader")
	}
}

func TestJSONLWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	os.WriteFile(path, nil, 0o644)

	w := NewJSONLWatcher(path, &fakeReader{}, nil, Config{}, nil)
	_ = w.Start(context.Background(), true)
	w.Stop()
	w.Stop() // must not panic (close of closed channel)

	if w.IsActive() {
		t.Fatal("expected inactive after Stop")
	}
}

func TestDBWatcherPollsPeriodically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opencode.db")
	os.WriteFile(path, nil, 0o644)

	rd := &fakeReader{}
	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventAssistant})
	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventAssistant})

	wait, cb := collectEvents(t, 2*time.Second, 2)
	w := NewDBWatcher(path, rd, cb, Config{DBPoll: 20 * time.Millisecond, DBDebounce: time.Hour}, nil)
	if err := w.Start(context.Background(), true); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	got := wait()
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 from two poll cycles", len(got))
	}
}

func TestDBWatcherNoReplayResetsCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opencode.db")
	os.WriteFile(path, nil, 0o644)

	rd := &fakeReader{}
	w := NewDBWatcher(path, rd, nil, Config{}, nil)
	if err := w.Start(context.Background(), false); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	rd.mu.Lock()
	defer rd.mu.Unlock()
	if rd.resetN != 1 {
		t.Fatalf("resetN = %d, want 1", rd.resetN)
	}
}

func TestDBWatcherWatchesWALSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opencode.db")
	os.WriteFile(path, nil, 0o644)
	walPath := path + "-wal"
	os.WriteFile(walPath, nil, 0o644)

	rd := &fakeReader{}

	var mu sync.Mutex
	var calls int
	cb := func(events []eventmodel.SessionEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	w := NewDBWatcher(path, rd, cb, Config{DBDebounce: 20 * time.Millisecond, DBPoll: time.Hour}, nil)
	if err := w.Start(context.Background(), true); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	rd.push(eventmodel.SessionEvent{Type: eventmodel.EventToolUse})
	if err := os.WriteFile(walPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write wal: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Fatal("expected a WAL sidecar write to trigger a debounced read")
	}
}
