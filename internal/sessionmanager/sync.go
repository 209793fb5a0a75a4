package sessionmanager

import (
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/store"
)

// SyncStores diffs the cell's current metrics against what was last
// observed and appends any newly-reached terminal state to the
// cross-session stores (SPEC_FULL §6): a task that just completed, a new
// compaction or truncation, a plan whose raw markdown changed, or a
// summary event whose text exceeds knowledgeNoteMinLength.
//
// Deleted tasks are not recorded: the aggregator drops them from its
// tasks map outright rather than marking them TaskDeleted (spec §4.4.4),
// so there is nothing left to diff against by the time SyncStores runs.
func (c *Cell) SyncStores(stores *store.Stores, knowledgeNoteMinLength int) {
	if stores == nil {
		return
	}
	metrics := c.Aggregator.GetMetrics()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, task := range metrics.Tasks.Tasks {
		prev, seen := c.lastTaskStatus[id]
		c.lastTaskStatus[id] = task.Status
		if task.Status != eventmodel.TaskCompleted {
			continue
		}
		if seen && prev == eventmodel.TaskCompleted {
			continue
		}
		_ = stores.Tasks.Append(store.TaskRecord{
			SessionID:   c.SessionID,
			TaskID:      task.TaskID,
			Subject:     task.Subject,
			Status:      task.Status,
			CompletedAt: now,
		})
	}

	if n := len(metrics.Compactions); n > c.lastCompactionLen {
		for _, comp := range metrics.Compactions[c.lastCompactionLen:n] {
			_ = stores.Decisions.Append(store.DecisionRecord{
				SessionID: c.SessionID,
				Timestamp: now,
				Kind:      store.DecisionCompaction,
				Detail:    compactionDetail(comp),
			})
		}
		c.lastCompactionLen = n
	}

	if n := len(metrics.Truncations); n > c.lastTruncationLen {
		for _, tr := range metrics.Truncations[c.lastTruncationLen:n] {
			_ = stores.Decisions.Append(store.DecisionRecord{
				SessionID: c.SessionID,
				Timestamp: now,
				Kind:      store.DecisionTruncation,
				Detail:    "truncated " + tr.ToolName + " output: " + tr.Marker,
			})
		}
		c.lastTruncationLen = n
	}

	if metrics.Plan != nil && metrics.Plan.RawMarkdown != c.lastPlanRaw && metrics.Plan.RawMarkdown != "" {
		c.lastPlanRaw = metrics.Plan.RawMarkdown
		_ = stores.Plans.Append(store.PlanHistoryEntry{
			SessionID:   c.SessionID,
			FinalizedAt: now,
			Plan:        *metrics.Plan,
		})
	}

	if n := len(metrics.Notes); n > c.lastNoteLen {
		for _, note := range metrics.Notes[c.lastNoteLen:n] {
			if len(note.Text) <= knowledgeNoteMinLength {
				continue
			}
			_ = stores.Notes.Append(store.KnowledgeNote{
				SessionID: c.SessionID,
				Timestamp: now,
				Text:      note.Text,
			})
		}
		c.lastNoteLen = n
	}
}

func compactionDetail(c eventmodel.CompactionEvent) string {
	if c.TokensReclaimed <= 0 {
		return "compaction"
	}
	return "compaction reclaimed tokens"
}
