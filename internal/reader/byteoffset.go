package reader

import (
	"io"
	"os"
	"sync"

	"agentlens/internal/eventmodel"
)

// Decoder turns one parsed JSONL record into zero or more canonical
// SessionEvents. Implemented per-provider (internal/provider/*).
type Decoder func(obj map[string]any) []eventmodel.SessionEvent

// ByteOffsetReader is the incremental reader for JSONL sources (spec
// §4.2). It maintains filePosition as the byte offset up to which the file
// has been read; a trailing partial line past the last '\n' is held in the
// parser's buffer, not re-read. Truncation is detected by comparing the
// file's current size against the last-seen position.
type ByteOffsetReader struct {
	path    string
	decode  Decoder
	onError ErrorCallback

	mu           sync.Mutex
	filePosition int64
	parser       *lineParser
	wasTruncated bool
	pending      []eventmodel.SessionEvent
}

// NewByteOffsetReader constructs a reader over path. decode converts each
// parsed JSON line into SessionEvents; onError (optional) is invoked with
// the raw line when a line can't be parsed even after repair.
func NewByteOffsetReader(path string, decode Decoder, onError ErrorCallback) *ByteOffsetReader {
	r := &ByteOffsetReader{path: path, decode: decode, onError: onError}
	r.parser = newLineParser(r.onLine, onError)
	return r
}

func (r *ByteOffsetReader) onLine(_ []byte, obj map[string]any) {
	if r.decode == nil {
		return
	}
	r.pending = append(r.pending, r.decode(obj)...)
}

// ReadNew returns events appended since the last call (spec §4.2). After
// a successful call, GetPosition() equals the file size observed at the
// start of the call (spec §8 testable property).
func (r *ByteOffsetReader) ReadNew() ([]eventmodel.SessionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		// Missing/unreadable source: return empty, never propagate
		// (spec §7).
		return nil, nil
	}
	size := info.Size()

	r.wasTruncated = false
	if size < r.filePosition {
		r.wasTruncated = true
		r.filePosition = 0
		r.parser.Flush()
	}
	if size == r.filePosition {
		return nil, nil
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	if _, err := f.Seek(r.filePosition, io.SeekStart); err != nil {
		return nil, nil
	}

	toRead := size - r.filePosition
	buf := make([]byte, toRead)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil
	}
	buf = buf[:n]

	r.pending = r.pending[:0]
	r.parser.Feed(buf)
	r.filePosition += int64(n)

	events := make([]eventmodel.SessionEvent, len(r.pending))
	copy(events, r.pending)
	return events, nil
}

// ReadAll restarts from the beginning and returns everything currently in
// the file.
func (r *ByteOffsetReader) ReadAll() ([]eventmodel.SessionEvent, error) {
	r.mu.Lock()
	r.filePosition = 0
	r.parser.Flush()
	r.mu.Unlock()
	return r.ReadNew()
}

// Reset clears cursor and buffer state.
func (r *ByteOffsetReader) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filePosition = 0
	r.wasTruncated = false
	r.parser.Flush()
}

// Exists reports whether the backing file is currently present.
func (r *ByteOffsetReader) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// Flush drains the parser's buffered partial line (used on watcher Stop).
func (r *ByteOffsetReader) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parser.Flush()
}

// GetPosition returns the current byte offset cursor.
func (r *ByteOffsetReader) GetPosition() Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filePosition
}

// SeekTo moves the cursor to an arbitrary byte offset, e.g. when
// restoring from a snapshot.
func (r *ByteOffsetReader) SeekTo(pos Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filePosition = pos
	r.parser.Flush()
}

// WasTruncated reports whether the last ReadNew detected the file had
// shrunk since the previous read.
func (r *ByteOffsetReader) WasTruncated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wasTruncated
}
