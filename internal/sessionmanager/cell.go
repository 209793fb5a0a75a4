// Package sessionmanager owns the per-session {reader, aggregator,
// watcher} cell described in SPEC_FULL §4.1.4, bounding how many are
// held in memory at once with an LRU cache the way alex's Lark gateway
// bounds its message-dedup cache, and coordinating graceful shutdown of
// every active cell with golang.org/x/sync/errgroup the way alex's
// SubAgentOrchestrator fans work out with an errgroup.
package sessionmanager

import (
	"context"
	"sync"
	"time"

	"agentlens/internal/aggregator"
	"agentlens/internal/eventmodel"
	"agentlens/internal/snapshot"
)

// Watcher is the subset of internal/watch's JSONLWatcher/DBWatcher
// surface a Cell needs. Accepting the interface (rather than importing
// internal/watch's concrete types) keeps sessionmanager usable with
// either watcher kind without a type switch.
type Watcher interface {
	Start(ctx context.Context, replay bool) error
	Stop()
	IsActive() bool
}

// Cell is everything one monitored session owns: its aggregator, its
// watcher, and enough bookkeeping to (a) write a snapshot on eviction and
// (b) notice task/plan/decision transitions worth appending to the
// cross-session stores (SPEC_FULL §6).
type Cell struct {
	SessionID  string
	ProviderID string
	Aggregator *aggregator.Aggregator
	Watcher    Watcher

	mu                sync.Mutex
	sourceSize        int64
	readerPosition    int64
	lastTaskStatus    map[string]eventmodel.TaskStatus
	lastCompactionLen int
	lastTruncationLen int
	lastNoteLen       int
	lastPlanRaw       string
}

// NewCell constructs a Cell. watcher may be nil for a cell that is only
// ever replayed once and never tailed (e.g. a closed/archived session).
func NewCell(sessionID, providerID string, agg *aggregator.Aggregator, w Watcher) *Cell {
	return &Cell{
		SessionID:      sessionID,
		ProviderID:     providerID,
		Aggregator:     agg,
		Watcher:        w,
		lastTaskStatus: make(map[string]eventmodel.TaskStatus),
	}
}

// UpdateCursor records the reader position and observed source size the
// next snapshot write should carry. Called by the caller's onEvents/poll
// wiring after each read, since only that call site knows the reader's
// byte offset (JSONL) or the source file's current size.
func (c *Cell) UpdateCursor(readerPosition, sourceSize int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readerPosition = readerPosition
	c.sourceSize = sourceSize
}

// Snapshot builds the on-disk envelope for this cell's current state
// (spec §4.8).
func (c *Cell) Snapshot() snapshot.Envelope {
	c.mu.Lock()
	pos, size := c.readerPosition, c.sourceSize
	c.mu.Unlock()
	return snapshot.Envelope{
		Version:        aggregator.SchemaVersion,
		SessionID:      c.SessionID,
		ProviderID:     c.ProviderID,
		ReaderPosition: pos,
		SourceSize:     size,
		CreatedAt:      time.Now(),
		Aggregator:     c.Aggregator.Serialize(),
	}
}

// Stop halts the cell's watcher, if any. Idempotent (Watcher.Stop()
// already is).
func (c *Cell) Stop() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
}
