package eventmodel

// ToolAnalytics is the per-tool-name accumulator (spec §3). Invariant:
// PendingCount >= 0; SuccessCount + FailureCount == CompletedCount.
type ToolAnalytics struct {
	Name           string
	SuccessCount   int64
	FailureCount   int64
	TotalDuration  int64 // milliseconds
	CompletedCount int64
	PendingCount   int64
}

// PendingToolCall is the transient bookkeeping entry created on tool_use
// and removed on the matching tool_result. Keyed by ToolUseID by the
// aggregator; cleared wholesale on snapshot restore.
type PendingToolCall struct {
	ToolUseID string
	Name      string
	StartTime int64 // unix ms
}

// SubagentStatus is the lifecycle state of a spawned Task-tool subagent.
type SubagentStatus string

const (
	SubagentRunning   SubagentStatus = "running"
	SubagentCompleted SubagentStatus = "completed"
)

// SubagentLifecycle tracks one spawned subagent, keyed by the toolUseId of
// its spawning Task call (spec §3, §9: arena-indexed by stable string id
// rather than back-pointers).
type SubagentLifecycle struct {
	ID             string // = toolUseId of the spawning Task call
	Description    string
	SubagentType   string
	SpawnTimeMS    int64
	Status         SubagentStatus
	CompletionTimeMS int64
	DurationMs     int64
}
