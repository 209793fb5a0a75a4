package eventmodel

// TaskStatus is the lifecycle state of a TrackedTask (spec §3).
type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskInProgress  TaskStatus = "in_progress"
	TaskCompleted   TaskStatus = "completed"
	TaskDeleted     TaskStatus = "deleted"
)

// TrackedTask mirrors the task-lifecycle tool contract (TaskCreate /
// TaskUpdate) the aggregator observes. At most one task may hold
// status=in_progress at a time; that task's id is the aggregator's
// activeTaskId (spec §8 invariant).
type TrackedTask struct {
	TaskID         string
	Subject        string
	Description    string
	Status         TaskStatus
	ActiveForm     string
	CreatedAt      int64 // unix ms
	UpdatedAt      int64
	ToolCallCount  int64
	BlockedBy      []string
	Blocks         []string
	SubagentType   string
	IsGoalGate     bool
	SessionOrigin  string
}
