package eventmodel

import "time"

// EventType is the tag of the SessionEvent union (spec §3).
type EventType string

const (
	EventUser      EventType = "user"
	EventAssistant EventType = "assistant"
	EventToolUse   EventType = "tool_use"
	EventToolResult EventType = "tool_result"
	EventSummary   EventType = "summary"
	EventSystem    EventType = "system"
	EventResult    EventType = "result"
)

// Usage carries the raw token fields reported on an assistant turn.
type Usage struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
	ReasoningTokens          int
	ReportedCost             float64
}

// MessageInfo is the optional message envelope carried by user/assistant
// events.
type MessageInfo struct {
	Role    string
	ID      string
	Model   string
	Usage   *Usage
	Text    string         // convenience: concatenated text blocks
	Blocks  []ContentBlock // full decomposed content, when available
}

// ToolInfo describes a tool_use event.
type ToolInfo struct {
	Name      string
	ToolUseID string
	Input     []byte // raw JSON
}

// ResultInfo describes a tool_result event.
type ResultInfo struct {
	ToolUseID string
	Output    []byte // raw JSON or plain text, provider-dependent
	IsError   bool
}

// SessionEvent is the canonical normalized form every provider adapter
// converts its RawEvents into. It is a tagged union over Type; fields
// outside the active variant are zero.
type SessionEvent struct {
	Type      EventType
	Timestamp time.Time
	ProviderID string

	Message *MessageInfo
	Tool    *ToolInfo
	Result  *ResultInfo

	// Summary is populated for EventSummary (explicit compaction) events.
	Summary string

	IsSidechain    bool
	PermissionMode string
}

// HasText reports whether the event carries non-empty user/assistant text,
// used by latency tracking (spec §4.4.1) to decide whether a user event
// starts a new pending request.
func (e SessionEvent) HasText() bool {
	return e.Message != nil && e.Message.Text != ""
}
