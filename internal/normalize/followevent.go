package normalize

import (
	"agentlens/internal/eventmodel"
)

// ToFollowEvent builds the lossy UI-facing summary for a canonical
// SessionEvent (spec §3, §4.3). Because decomposition of a raw
// assistant/user message into multiple tool_use/tool_result/text
// SessionEvents already happens in Normalize, each SessionEvent maps to
// exactly one FollowEvent here — the "one SessionEvent fans out into
// several FollowEvents" fan-out spec §3 describes is realized at the
// Normalize boundary rather than re-done here.
func ToFollowEvent(e eventmodel.SessionEvent) eventmodel.FollowEvent {
	fe := eventmodel.FollowEvent{
		ProviderID: e.ProviderID,
		Type:       e.Type,
		Timestamp:  e.Timestamp,
	}

	switch e.Type {
	case eventmodel.EventUser:
		if e.Message != nil {
			fe.Summary = eventmodel.TruncateSummary(e.Message.Text, 200)
			fe.FullText = e.Message.Text
		}
	case eventmodel.EventAssistant:
		if e.Message != nil {
			fe.Summary = eventmodel.TruncateSummary(e.Message.Text, 200)
			fe.FullText = e.Message.Text
			fe.Model = e.Message.Model
			fe.RawPointer = e.Message.ID
			if e.Message.Usage != nil {
				u := e.Message.Usage
				fe.Tokens = u.InputTokens + u.OutputTokens
				fe.CacheTokens = u.CacheCreationInputTokens + u.CacheReadInputTokens
				fe.Cost = u.ReportedCost
			}
		}
	case eventmodel.EventToolUse:
		if e.Tool != nil {
			fe.ToolName = e.Tool.Name
			fe.ToolInputPreview = FormatToolInput(e.Tool.Name, e.Tool.Input)
			fe.Summary = fe.ToolInputPreview
			fe.FullText = string(e.Tool.Input)
			fe.RawPointer = e.Tool.ToolUseID
			if e.Message != nil && e.Message.Usage != nil {
				u := e.Message.Usage
				fe.Tokens = u.InputTokens + u.OutputTokens
				fe.CacheTokens = u.CacheCreationInputTokens + u.CacheReadInputTokens
				fe.Cost = u.ReportedCost
			}
		}
	case eventmodel.EventToolResult:
		if e.Result != nil {
			fe.Summary = FormatToolResult(e.Result.Output)
			fe.FullText = string(e.Result.Output)
			fe.RawPointer = e.Result.ToolUseID
		}
	case eventmodel.EventSummary, eventmodel.EventSystem:
		fe.Summary = eventmodel.TruncateSummary(e.Summary, 200)
		fe.FullText = e.Summary
	}

	return fe
}
