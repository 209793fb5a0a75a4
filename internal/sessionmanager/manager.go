package sessionmanager

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"agentlens/internal/logging"
	"agentlens/internal/snapshot"
	"agentlens/internal/store"
)

const defaultMaxActiveSessions = 64

// ActiveSessionsGauge is the subset of telemetry.Collector a Manager
// reports its cache size to. Accepting the interface (rather than
// importing internal/telemetry) keeps sessionmanager usable without
// pulling in the OTel/Prometheus stack in tests.
type ActiveSessionsGauge interface {
	SetActiveSessions(n int)
}

// Manager owns every active session Cell, bounded by an LRU so a host
// watching many sessions doesn't hold an unbounded number of readers and
// watchers open at once (SPEC_FULL §4.1.4). Eviction stops the evicted
// cell's watcher and writes a final snapshot before the cell is dropped,
// mirroring spec §4.8's "watcher restart shouldn't require full replay"
// guarantee across an eviction, not just a process restart.
type Manager struct {
	mu                     sync.Mutex
	cache                  *lru.Cache[string, *Cell]
	snapshots              *snapshot.Store
	stores                 *store.Stores
	knowledgeNoteMinLength int
	gauge                  ActiveSessionsGauge
	logger                 logging.Logger
}

// NewManager constructs a Manager. maxActive<=0 falls back to the
// documented default (64, matching config.EngineConfig.MaxActiveSessions'
// default). snapshots/stores/gauge may all be nil, in which case the
// corresponding side effect (snapshot-on-evict, cross-session-store
// sync, gauge reporting) is skipped. knowledgeNoteMinLength is the
// SPEC_FULL §6 threshold above which a summary event's text is kept as a
// knowledge note.
func NewManager(maxActive int, snapshots *snapshot.Store, stores *store.Stores, knowledgeNoteMinLength int, gauge ActiveSessionsGauge, logger logging.Logger) (*Manager, error) {
	if maxActive <= 0 {
		maxActive = defaultMaxActiveSessions
	}
	m := &Manager{snapshots: snapshots, stores: stores, knowledgeNoteMinLength: knowledgeNoteMinLength, gauge: gauge, logger: logging.OrNop(logger)}

	cache, err := lru.NewWithEvict[string, *Cell](maxActive, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("sessionmanager: new cache: %w", err)
	}
	m.cache = cache
	return m, nil
}

func (m *Manager) onEvict(sessionID string, cell *Cell) {
	m.flushAndStop(cell)
	m.logger.Info("sessionmanager: evicted session %s (cache at capacity)", sessionID)
}

func (m *Manager) flushAndStop(cell *Cell) {
	if m.stores != nil {
		cell.SyncStores(m.stores, m.knowledgeNoteMinLength)
	}
	if m.snapshots != nil {
		m.snapshots.Save(cell.Snapshot())
	}
	cell.Stop()
}

// GetOrCreate returns the cached cell for sessionID, or calls factory to
// build one and caches it. The returned bool reports whether factory ran.
func (m *Manager) GetOrCreate(sessionID string, factory func() (*Cell, error)) (*Cell, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cell, ok := m.cache.Get(sessionID); ok {
		return cell, false, nil
	}

	cell, err := factory()
	if err != nil {
		return nil, false, err
	}
	m.cache.Add(sessionID, cell)
	m.reportCount()
	return cell, true, nil
}

// Get returns the cached cell for sessionID without creating one.
func (m *Manager) Get(sessionID string) (*Cell, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Get(sessionID)
}

// Remove stops and evicts the cell for sessionID explicitly (e.g. when a
// session's source file has been confirmed gone). Returns false if no
// such cell was cached.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell, ok := m.cache.Peek(sessionID)
	if !ok {
		return false
	}
	m.flushAndStop(cell)
	m.cache.Remove(sessionID)
	m.reportCount()
	return true
}

// Len reports the current number of cached cells.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

func (m *Manager) reportCount() {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(m.cache.Len())
	}
}

// StopAll stops every active cell concurrently, flushing cross-session
// stores and a final snapshot for each, the way alex's
// SubAgentOrchestrator.ExecuteParallel fans independent work out across
// an errgroup and waits for all of it.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	cells := make([]*Cell, 0, m.cache.Len())
	for _, sessionID := range m.cache.Keys() {
		if cell, ok := m.cache.Peek(sessionID); ok {
			cells = append(cells, cell)
		}
	}
	m.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, cell := range cells {
		cell := cell
		g.Go(func() error {
			m.flushAndStop(cell)
			return nil
		})
	}
	return g.Wait()
}
