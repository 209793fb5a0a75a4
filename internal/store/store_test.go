package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"agentlens/internal/eventmodel"
)

func TestAppendAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)

	rec := TaskRecord{SessionID: "s1", TaskID: "t1", Subject: "write docs", Status: eventmodel.TaskCompleted, CompletedAt: time.Unix(0, 0)}
	if err := stores.Tasks.Append(rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	env := stores.Tasks.Load()
	if env.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("schemaVersion = %d, want %d", env.SchemaVersion, CurrentSchemaVersion)
	}
	if len(env.Items) != 1 || env.Items[0].TaskID != "t1" {
		t.Fatalf("items = %+v, want one record with taskId t1", env.Items)
	}
}

func TestAppendAccumulates(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)

	for i := 0; i < 3; i++ {
		if err := stores.Decisions.Append(DecisionRecord{SessionID: "s1", Kind: DecisionCompaction}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	env := stores.Decisions.Load()
	if len(env.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(env.Items))
	}
}

func TestLoadMissingFileReturnsEmptyEnvelope(t *testing.T) {
	stores := New(t.TempDir(), nil)
	env := stores.Notes.Load()
	if env.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("schemaVersion = %d, want %d", env.SchemaVersion, CurrentSchemaVersion)
	}
	if len(env.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(env.Items))
	}
}

func TestLoadVersionMismatchTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)
	path := filepath.Join(dir, "plan-history.json")
	if err := os.WriteFile(path, []byte(`{"schemaVersion":999,"items":[{"sessionId":"x"}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := stores.Plans.Load()
	if len(env.Items) != 0 {
		t.Fatalf("expected version mismatch to read as empty, got %d items", len(env.Items))
	}
}

func TestLoadCorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := stores.Tasks.Load()
	if len(env.Items) != 0 {
		t.Fatalf("expected corrupt file to read as empty, got %d items", len(env.Items))
	}
}

func TestAppendOnVersionMismatchStartsFresh(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)
	path := filepath.Join(dir, "knowledge-notes.json")
	if err := os.WriteFile(path, []byte(`{"schemaVersion":2,"items":[{"text":"stale"}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := stores.Notes.Append(KnowledgeNote{SessionID: "s1", Text: "fresh"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	env := stores.Notes.Load()
	if len(env.Items) != 1 || env.Items[0].Text != "fresh" {
		t.Fatalf("items = %+v, want only the fresh note", env.Items)
	}
}

func TestAppendIsAtomicNoTmpFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)
	if err := stores.Tasks.Append(TaskRecord{SessionID: "s1", TaskID: "t1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "tasks.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("expected .tmp file to be renamed away")
	}
}

func TestStoresUseDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	stores := New(dir, nil)
	if err := stores.Tasks.Append(TaskRecord{SessionID: "s1"}); err != nil {
		t.Fatalf("append tasks: %v", err)
	}
	if err := stores.Decisions.Append(DecisionRecord{SessionID: "s1"}); err != nil {
		t.Fatalf("append decisions: %v", err)
	}
	if err := stores.Notes.Append(KnowledgeNote{SessionID: "s1"}); err != nil {
		t.Fatalf("append notes: %v", err)
	}
	if err := stores.Plans.Append(PlanHistoryEntry{SessionID: "s1"}); err != nil {
		t.Fatalf("append plans: %v", err)
	}

	for _, name := range []string{"tasks.json", "decisions.json", "knowledge-notes.json", "plan-history.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}
