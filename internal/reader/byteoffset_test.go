package reader

import (
	"os"
	"path/filepath"
	"testing"

	"agentlens/internal/eventmodel"
)

func countingDecoder(obj map[string]any) []eventmodel.SessionEvent {
	return []eventmodel.SessionEvent{{Type: eventmodel.EventUser}}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

// Testable property (spec §8): after ReadNew, GetPosition equals the file
// size observed at the start of that call.
func TestByteOffsetReaderPositionMatchesFileSizeAfterRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"b\":2}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if r.GetPosition() != info.Size() {
		t.Fatalf("GetPosition() = %d, want file size %d", r.GetPosition(), info.Size())
	}
}

func TestByteOffsetReaderReadNewOnlyReturnsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("first ReadNew: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("{\"b\":2}\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("second ReadNew: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (only the appended line)", len(events))
	}
}

func TestByteOffsetReaderReadNewOnUnchangedFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("first ReadNew: %v", err)
	}
	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("second ReadNew: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0 for an unchanged file", len(events))
	}
}

// Boundary behavior (spec §8): truncation between reads resumes at 0
// with wasTruncated=true.
func TestByteOffsetReaderDetectsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"b\":2}\n{\"c\":3}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("first ReadNew: %v", err)
	}
	if r.WasTruncated() {
		t.Fatal("expected wasTruncated=false before any truncation")
	}

	writeFile(t, path, "{\"x\":1}\n")
	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew after truncation: %v", err)
	}
	if !r.WasTruncated() {
		t.Fatal("expected wasTruncated=true after the file shrank")
	}
	if r.GetPosition() == 0 {
		t.Fatal("expected GetPosition() to advance past 0 again after re-reading the shrunk file")
	}
	if len(events) != 1 {
		t.Fatalf("events after truncation = %d, want 1 (the new file's single line)", len(events))
	}
}

// Boundary behavior (spec §8): empty file returns nothing.
func TestByteOffsetReaderEmptyFileReturnsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0 for an empty file", len(events))
	}
}

func TestByteOffsetReaderExistsReflectsBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonl")
	r := NewByteOffsetReader(path, countingDecoder, nil)
	if r.Exists() {
		t.Fatal("expected Exists()=false for a file that was never created")
	}

	writeFile(t, path, "{}\n")
	if !r.Exists() {
		t.Fatal("expected Exists()=true once the file is created")
	}
}

func TestByteOffsetReaderResetRestartsFromZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("ReadNew: %v", err)
	}
	r.Reset()
	if r.GetPosition() != 0 {
		t.Fatalf("GetPosition() after Reset = %d, want 0", r.GetPosition())
	}

	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew after reset: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events after reset = %d, want 1 (the whole file again)", len(events))
	}
}

func TestByteOffsetReaderSeekToMovesCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"b\":2}\n")

	r := NewByteOffsetReader(path, countingDecoder, nil)
	info, _ := os.Stat(path)
	r.SeekTo(info.Size())

	events, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0 after seeking to end of file", len(events))
	}
}
