// Package snapshot persists schema-versioned session-state snapshots to
// disk so a watcher restart doesn't require a full replay of the source
// log (spec §4.8). Writes are atomic (tmp file + rename); loads reject
// and delete snapshots carrying a version the reader doesn't understand.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"agentlens/internal/aggregator"
	"agentlens/internal/logging"
)

// Envelope is the on-disk snapshot shape (spec §4.8).
type Envelope struct {
	Version        int                        `json:"version"`
	SessionID      string                     `json:"sessionId"`
	ProviderID     string                     `json:"providerId"`
	ReaderPosition int64                      `json:"readerPosition"`
	SourceSize     int64                      `json:"sourceSize"`
	CreatedAt      time.Time                  `json:"createdAt"`
	Aggregator     aggregator.SerializedState `json:"aggregator"`
	Consumer       json.RawMessage            `json:"consumer,omitempty"`
}

var sanitizeRe = regexp.MustCompile(`[/\\:]`)

// sanitizeSessionID replaces path-hostile characters with underscores
// (spec §4.8).
func sanitizeSessionID(sessionID string) string {
	return sanitizeRe.ReplaceAllString(sessionID, "_")
}

// Store reads and writes snapshot envelopes under a configured directory.
type Store struct {
	dir    string
	logger logging.Logger
}

// New constructs a Store rooted at dir. dir is created lazily on first
// write.
func New(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logging.OrNop(logger)}
}

func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.dir, sanitizeSessionID(sessionID)+".json")
}

// Save writes env atomically: marshal, write to a sibling .tmp file, then
// rename over the final path. Write failures are logged and dropped
// (spec §7: "Snapshot write failure: Log-and-drop; must never break
// session monitoring.").
func (s *Store) Save(env Envelope) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("snapshot: mkdir %s failed: %v", s.dir, err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("snapshot: marshal %s failed: %v", env.SessionID, err)
		return
	}

	final := s.pathFor(env.SessionID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Warn("snapshot: write %s failed: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, final); err != nil {
		s.logger.Warn("snapshot: rename %s -> %s failed: %v", tmp, final, err)
		_ = os.Remove(tmp)
	}
}

// Load reads the snapshot for sessionID. A missing file, unparseable
// file, or version mismatch returns (Envelope{}, false); an unparseable
// file or a version mismatch additionally deletes it (spec §7: "Snapshot parse
// / version mismatch: Delete snapshot, return no state; caller falls
// back to full replay.").
func (s *Store) Load(sessionID string) (Envelope, bool) {
	path := s.pathFor(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, false
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("snapshot: parse %s failed: %v", path, err)
		_ = os.Remove(path)
		return Envelope{}, false
	}
	if env.Version != aggregator.SchemaVersion || env.Aggregator.SchemaVersion != aggregator.SchemaVersion {
		s.logger.Warn("snapshot: version mismatch for %s (got %d), discarding", sessionID, env.Version)
		_ = os.Remove(path)
		return Envelope{}, false
	}
	return env, true
}

// IsValid implements the validity check in spec §4.8: for JSONL-backed
// sessions a source file smaller than the cursor recorded in the
// snapshot means the file was truncated since the snapshot was taken, so
// the snapshot is stale. DB-backed sessions report sourceSize 0 and are
// always considered valid (there is no byte cursor to compare against).
func IsValid(env Envelope, currentSourceSize int64) bool {
	if env.SourceSize == 0 {
		return true
	}
	return currentSourceSize >= env.ReaderPosition
}

// Delete removes the on-disk snapshot for sessionID, if any.
func (s *Store) Delete(sessionID string) error {
	err := os.Remove(s.pathFor(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("snapshot: delete %s: %w", sessionID, err)
	}
	return nil
}
