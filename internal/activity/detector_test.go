package activity

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSessionFile(t *testing.T, content string, age time.Duration) (string, time.Time) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	now := time.Now()
	mtime := now.Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path, now
}

func TestActivityScenarioGracePeriod(t *testing.T) {
	path, now := writeSessionFile(t, `{"type":"assistant","message":{"stop_reason":"end_turn"}}`, 2*time.Second)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateOngoing || status.Reason != "grace-period" {
		t.Fatalf("status = %+v, want ongoing/grace-period", status)
	}
}

func TestActivityScenarioEndingEventAfterGrace(t *testing.T) {
	path, now := writeSessionFile(t, `{"type":"assistant","message":{"stop_reason":"end_turn"}}`, 10*time.Second)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateEnded || status.Reason != "ending-event" {
		t.Fatalf("status = %+v, want ended/ending-event", status)
	}
}

func TestActivityStaleMtime(t *testing.T) {
	path, now := writeSessionFile(t, `{"type":"user"}`, 10*time.Minute)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateStale || status.Reason != "stale-mtime" {
		t.Fatalf("status = %+v, want stale/stale-mtime", status)
	}
}

func TestActivityEmptyFile(t *testing.T) {
	path, now := writeSessionFile(t, "", 1*time.Minute)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateEnded || status.Reason != "empty" {
		t.Fatalf("status = %+v, want ended/empty", status)
	}
}

func TestActivityTerminalMarkerWins(t *testing.T) {
	content := `{"type":"assistant","message":{"stop_reason":"tool_use"}}
{"type":"result","subtype":"success"}`
	path, now := writeSessionFile(t, content, 1*time.Minute)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateEnded || status.Reason != "terminal-event" {
		t.Fatalf("status = %+v, want ended/terminal-event", status)
	}
}

func TestActivityAIActivityAfterEnding(t *testing.T) {
	content := `{"type":"user"}
{"type":"assistant"}`
	path, now := writeSessionFile(t, content, 1*time.Minute)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateOngoing || status.Reason != "ai-activity" {
		t.Fatalf("status = %+v, want ongoing/ai-activity", status)
	}
}

func TestActivityNoMarkersRecentMtime(t *testing.T) {
	path, now := writeSessionFile(t, `{"type":"something_else"}`, 1*time.Second)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateOngoing || status.Reason != "recent-mtime" {
		t.Fatalf("status = %+v, want ongoing/recent-mtime", status)
	}
}

func TestActivityNoMarkersOldMtime(t *testing.T) {
	path, now := writeSessionFile(t, `{"type":"something_else"}`, 30*time.Second)
	status := New(DefaultConfig()).Detect(path, now)
	if status.State != StateEnded || status.Reason != "no-activity" {
		t.Fatalf("status = %+v, want ended/no-activity", status)
	}
}

func TestActivityUnreadableFile(t *testing.T) {
	status := New(DefaultConfig()).Detect(filepath.Join(t.TempDir(), "missing.jsonl"), time.Now())
	if status.State != StateEnded || status.Reason != "unreadable" {
		t.Fatalf("status = %+v, want ended/unreadable", status)
	}
}
