// Package reader implements the incremental, resumable readers described
// in spec §4.2: a byte-offset tail reader for JSONL sources and a
// time-cursor poll reader for the embedded-database source.
package reader

import "agentlens/internal/eventmodel"

// Cursor is an opaque resume token. Its concrete type depends on the
// reader: a byte offset (int64) for ByteOffsetReader, a Unix-millisecond
// timestamp (int64) for TimeCursorReader.
type Cursor = int64

// Reader is the contract every incremental reader implements (spec §4.2).
type Reader interface {
	// ReadNew returns events appended since the last call. May be empty.
	ReadNew() ([]eventmodel.SessionEvent, error)
	// ReadAll restarts from the beginning and returns everything.
	ReadAll() ([]eventmodel.SessionEvent, error)
	// Reset clears cursor and buffer state, starting the next ReadNew
	// from the beginning.
	Reset()
	// Exists reports whether the backing source is currently present.
	Exists() bool
	// Flush drains any buffered partial state (used on watcher Stop).
	Flush()
	// GetPosition returns the current cursor.
	GetPosition() Cursor
	// SeekTo moves the cursor to an arbitrary position, e.g. when
	// restoring from a snapshot.
	SeekTo(Cursor)
	// WasTruncated reports whether the last ReadNew detected the backing
	// file had shrunk since the previous read.
	WasTruncated() bool
}
