package claudecode

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetSessionDirectory_EncodesWorkspace(t *testing.T) {
	p := New("/root/.claude/projects")
	got := p.GetSessionDirectory("/home/user/my_project")
	want := filepath.Join("/root/.claude/projects", "-home-user-my-project")
	if got != want {
		t.Fatalf("GetSessionDirectory() = %q, want %q", got, want)
	}
}

func TestFindAllSessions_NewestFirst(t *testing.T) {
	root := t.TempDir()
	p := New(root)
	dir := p.GetSessionDirectory("/workspace/app")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeFile(t, filepath.Join(dir, "older.jsonl"), `{"type":"user"}`)
	time.Sleep(10 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "newer.jsonl"), `{"type":"user"}`)

	sessions := p.FindAllSessions("/workspace/app")
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if filepath.Base(sessions[0]) != "newer.jsonl" {
		t.Fatalf("expected newest first, got %v", sessions)
	}
}

func TestFindActiveSession_SkipsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	p := New(root)
	dir := p.GetSessionDirectory("/workspace/app")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "empty.jsonl"), "")
	writeFile(t, filepath.Join(dir, "active.jsonl"), `{"type":"user"}`)

	got := p.FindActiveSession("/workspace/app")
	if filepath.Base(got) != "active.jsonl" {
		t.Fatalf("expected active.jsonl, got %q", got)
	}
}

func TestExtractSessionLabel_TruncatesTo60(t *testing.T) {
	root := t.TempDir()
	p := New(root)
	path := filepath.Join(root, "session.jsonl")
	longText := "this is a very long first user message that exceeds sixty characters in length for sure"
	writeFile(t, path, `{"type":"user","message":{"role":"user","content":"`+longText+`"}}`)

	label := p.ExtractSessionLabel(path)
	if len(label) > 60 {
		t.Fatalf("label exceeds 60 chars: %q (%d)", label, len(label))
	}
	if label == "" {
		t.Fatal("expected non-empty label")
	}
}

func TestSearchInSession_ReturnsContextWindow(t *testing.T) {
	root := t.TempDir()
	p := New(root)
	path := filepath.Join(root, "session.jsonl")
	writeFile(t, path, `{"type":"user","message":{"content":"needle in a haystack of text"}}`)

	hits := p.SearchInSession(path, "needle", 10)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
