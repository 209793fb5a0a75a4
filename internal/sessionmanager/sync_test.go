package sessionmanager

import (
	"testing"

	"agentlens/internal/aggregator"
	"agentlens/internal/eventmodel"
	"agentlens/internal/store"
)

func restoreState(t *testing.T, agg *aggregator.Aggregator, state aggregator.SerializedState) {
	t.Helper()
	state.SchemaVersion = aggregator.SchemaVersion
	if !agg.Restore(state) {
		t.Fatal("Restore reported false for a matching schema version")
	}
}

func TestSyncStoresRecordsNewlyCompletedTask(t *testing.T) {
	cell, _ := newTestCell("s1")
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Tasks: map[string]eventmodel.TrackedTask{
			"1": {TaskID: "1", Subject: "write docs", Status: eventmodel.TaskCompleted},
		},
	})

	dir := t.TempDir()
	stores := store.New(dir, nil)
	cell.SyncStores(stores, 0)

	env := stores.Tasks.Load()
	if len(env.Items) != 1 || env.Items[0].TaskID != "1" {
		t.Fatalf("items = %+v, want one completed task record", env.Items)
	}

	// Running SyncStores again with no change must not duplicate.
	cell.SyncStores(stores, 0)
	env = stores.Tasks.Load()
	if len(env.Items) != 1 {
		t.Fatalf("items after second sync = %d, want 1 (no duplicate)", len(env.Items))
	}
}

func TestSyncStoresIgnoresNonTerminalTasks(t *testing.T) {
	cell, _ := newTestCell("s1")
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Tasks: map[string]eventmodel.TrackedTask{
			"1": {TaskID: "1", Subject: "in flight", Status: eventmodel.TaskInProgress},
		},
	})

	dir := t.TempDir()
	stores := store.New(dir, nil)
	cell.SyncStores(stores, 0)

	if env := stores.Tasks.Load(); len(env.Items) != 0 {
		t.Fatalf("items = %d, want 0 for a non-terminal task", len(env.Items))
	}
}

func TestSyncStoresRecordsNewCompactionsAndTruncations(t *testing.T) {
	cell, _ := newTestCell("s1")
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Compactions: []eventmodel.CompactionEvent{{TokensReclaimed: 500}},
		Truncations: []eventmodel.TruncationEvent{{ToolName: "Read", Marker: "[truncated]"}},
	})

	dir := t.TempDir()
	stores := store.New(dir, nil)
	cell.SyncStores(stores, 0)

	if env := stores.Decisions.Load(); len(env.Items) != 2 {
		t.Fatalf("decision items = %d, want 2 (one compaction, one truncation)", len(env.Items))
	}

	// A second sync with the same (unextended) slices must not re-append.
	cell.SyncStores(stores, 0)
	if env := stores.Decisions.Load(); len(env.Items) != 2 {
		t.Fatalf("decision items after second sync = %d, want 2", len(env.Items))
	}
}

func TestSyncStoresRecordsPlanOnChange(t *testing.T) {
	cell, _ := newTestCell("s1")
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Plan: &eventmodel.PlanState{RawMarkdown: "- [ ] step one"},
	})

	dir := t.TempDir()
	stores := store.New(dir, nil)
	cell.SyncStores(stores, 0)

	if env := stores.Plans.Load(); len(env.Items) != 1 {
		t.Fatalf("plan items = %d, want 1", len(env.Items))
	}

	// Same markdown again: no duplicate entry.
	cell.SyncStores(stores, 0)
	if env := stores.Plans.Load(); len(env.Items) != 1 {
		t.Fatalf("plan items after unchanged sync = %d, want 1", len(env.Items))
	}

	// Markdown changes: a second entry is recorded.
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Plan: &eventmodel.PlanState{RawMarkdown: "- [x] step one\n- [ ] step two"},
	})
	cell.SyncStores(stores, 0)
	if env := stores.Plans.Load(); len(env.Items) != 2 {
		t.Fatalf("plan items after revision = %d, want 2", len(env.Items))
	}
}

func TestSyncStoresRecordsNoteAboveThreshold(t *testing.T) {
	cell, _ := newTestCell("s1")
	restoreState(t, cell.Aggregator, aggregator.SerializedState{
		Summaries: []eventmodel.SummaryNote{
			{Text: "short"},
			{Text: "a sufficiently long summary worth keeping around"},
		},
	})

	dir := t.TempDir()
	stores := store.New(dir, nil)
	cell.SyncStores(stores, 10)

	env := stores.Notes.Load()
	if len(env.Items) != 1 || env.Items[0].Text != "a sufficiently long summary worth keeping around" {
		t.Fatalf("items = %+v, want only the note exceeding the threshold", env.Items)
	}

	// A second sync with no new summaries must not duplicate.
	cell.SyncStores(stores, 10)
	if env := stores.Notes.Load(); len(env.Items) != 1 {
		t.Fatalf("items after second sync = %d, want 1 (no duplicate)", len(env.Items))
	}
}

func TestSyncStoresNilStoresIsNoop(t *testing.T) {
	cell, _ := newTestCell("s1")
	cell.SyncStores(nil, 0) // must not panic
}
