package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"agentlens/internal/aggregator"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	env := Envelope{
		Version:        aggregator.SchemaVersion,
		SessionID:      "abc/def:ghi",
		ProviderID:     "claude-code",
		ReaderPosition: 1024,
		SourceSize:     2048,
		Aggregator:     aggregator.SerializedState{SchemaVersion: aggregator.SchemaVersion, EventCount: 7},
	}
	s.Save(env)

	loaded, ok := s.Load("abc/def:ghi")
	if !ok {
		t.Fatal("Load returned ok=false")
	}
	if loaded.Aggregator.EventCount != 7 {
		t.Fatalf("eventCount = %d, want 7", loaded.Aggregator.EventCount)
	}
}

func TestSanitizeSessionIDInFilename(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	s.Save(Envelope{Version: aggregator.SchemaVersion, SessionID: `a/b\c:d`, Aggregator: aggregator.SerializedState{SchemaVersion: aggregator.SchemaVersion}})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Name() != "a_b_c_d.json" {
		t.Fatalf("filename = %q, want a_b_c_d.json", entries[0].Name())
	}
}

func TestLoadMissingFileReturnsFalse(t *testing.T) {
	s := New(t.TempDir(), nil)
	if _, ok := s.Load("nope"); ok {
		t.Fatal("expected ok=false for missing snapshot")
	}
}

func TestLoadVersionMismatchDeletesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	s.Save(Envelope{Version: 999, SessionID: "stale", Aggregator: aggregator.SerializedState{SchemaVersion: 999}})

	if _, ok := s.Load("stale"); ok {
		t.Fatal("expected ok=false for version mismatch")
	}
	if _, err := os.Stat(s.pathFor("stale")); !os.IsNotExist(err) {
		t.Fatal("expected stale snapshot file to be deleted")
	}
}

func TestLoadCorruptFileDeletesAndReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	path := s.pathFor("corrupt")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := s.Load("corrupt"); ok {
		t.Fatal("expected ok=false for corrupt snapshot")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected corrupt snapshot file to be deleted")
	}
}

func TestSaveIsAtomicNoTmpFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	s.Save(Envelope{Version: aggregator.SchemaVersion, SessionID: "sess", Aggregator: aggregator.SerializedState{SchemaVersion: aggregator.SchemaVersion}})

	if _, err := os.Stat(filepath.Join(dir, "sess.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("expected .tmp file to be renamed away")
	}
}

func TestIsValidJSONLTruncationStale(t *testing.T) {
	env := Envelope{SourceSize: 2048, ReaderPosition: 1024}
	if IsValid(env, 500) {
		t.Fatal("expected stale: current size below reader position")
	}
	if !IsValid(env, 1024) {
		t.Fatal("expected valid: current size == reader position")
	}
}

func TestIsValidDBBackedAlwaysValid(t *testing.T) {
	env := Envelope{SourceSize: 0, ReaderPosition: 999999}
	if !IsValid(env, 0) {
		t.Fatal("expected DB-backed snapshot to always be valid")
	}
}

func TestDeleteNonExistentIsNotError(t *testing.T) {
	s := New(t.TempDir(), nil)
	if err := s.Delete("nothing"); err != nil {
		t.Fatalf("Delete on missing file returned error: %v", err)
	}
}
