package store

import (
	"time"

	"agentlens/internal/eventmodel"
)

// CurrentSchemaVersion is the schema version written into every envelope
// produced by this package (SPEC_FULL §6).
const CurrentSchemaVersion = 1

// DecisionKind tags a DecisionRecord (SPEC_FULL §6).
type DecisionKind string

const (
	DecisionCompaction   DecisionKind = "compaction"
	DecisionTruncation   DecisionKind = "truncation"
	DecisionPlanRevision DecisionKind = "plan-revision"
)

// TaskRecord is the durable, cross-session form of a TrackedTask that
// reached a terminal status (SPEC_FULL §6): appended when a task
// transitions to completed. Deleted tasks are not recorded.
type TaskRecord struct {
	SessionID   string                `json:"sessionId"`
	TaskID      string                `json:"taskId"`
	Subject     string                `json:"subject"`
	Status      eventmodel.TaskStatus `json:"status"`
	CompletedAt time.Time             `json:"completedAt"`
}

// DecisionRecord captures a compaction, truncation, or plan revision
// worth surfacing across sessions (SPEC_FULL §6).
type DecisionRecord struct {
	SessionID string       `json:"sessionId"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      DecisionKind `json:"kind"`
	Detail    string       `json:"detail"`
}

// KnowledgeNote is a substantial summary worth recalling in a later
// session (SPEC_FULL §6).
type KnowledgeNote struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// PlanHistoryEntry records a finalized plan (SPEC_FULL §6).
type PlanHistoryEntry struct {
	SessionID   string               `json:"sessionId"`
	FinalizedAt time.Time            `json:"finalizedAt"`
	Plan        eventmodel.PlanState `json:"plan"`
}
