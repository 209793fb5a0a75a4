package eventmodel

// NoiseLevel classifies a TimelineEvent for UI filtering.
type NoiseLevel string

const (
	NoiseUser   NoiseLevel = "user"
	NoiseAI     NoiseLevel = "ai"
	NoiseSystem NoiseLevel = "system"
	NoiseNoise  NoiseLevel = "noise"
)

// TimelineType is the kind of a TimelineEvent.
type TimelineType string

const (
	TimelineUserPrompt       TimelineType = "user_prompt"
	TimelineAssistantResponse TimelineType = "assistant_response"
	TimelineToolCall         TimelineType = "tool_call"
	TimelineToolResult       TimelineType = "tool_result"
	TimelineCompaction       TimelineType = "compaction"
	TimelineSessionStart     TimelineType = "session_start"
)

// TimelineEvent is a capped-FIFO human-readable event log entry (spec §3).
type TimelineEvent struct {
	Type        TimelineType
	TimestampMS int64
	Description string // <=200 chars
	NoiseLevel  NoiseLevel
	Metadata    map[string]string
	IsSidechain bool
}

// ContextAttribution holds non-negative counters attributing the current
// context window to its sources. Invariant: the sum must not exceed the
// current reported input tokens (spec §3, enforced by callers, not here).
type ContextAttribution struct {
	SystemPrompt        int64
	UserMessages        int64
	AssistantResponses  int64
	ToolInputs          int64
	ToolOutputs         int64
	Thinking            int64
	Other               int64
}

// Sum returns the total attributed tokens.
func (c ContextAttribution) Sum() int64 {
	return c.SystemPrompt + c.UserMessages + c.AssistantResponses + c.ToolInputs + c.ToolOutputs + c.Thinking + c.Other
}
