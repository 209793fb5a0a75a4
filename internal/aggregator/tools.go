package aggregator

import "agentlens/internal/eventmodel"

// trackTool implements spec §4.4.3. tool_result without a matching
// pending entry is silently tolerated and does not alter counters,
// keeping replay idempotent (spec §8). It returns the resolved tool name
// for a tool_result (via the pending-call map, consumed here), so the
// truncation detector that runs later in the same event's pipeline can
// still attribute the right tool without its own bookkeeping.
func (a *Aggregator) trackTool(e eventmodel.SessionEvent, ts int64) string {
	switch e.Type {
	case eventmodel.EventToolUse:
		if e.Tool == nil {
			return ""
		}
		name := e.Tool.Name
		row, ok := a.toolAnalytics[name]
		if !ok {
			row = &eventmodel.ToolAnalytics{Name: name}
			a.toolAnalytics[name] = row
		}
		row.PendingCount++
		a.pendingToolCalls[e.Tool.ToolUseID] = eventmodel.PendingToolCall{
			ToolUseID: e.Tool.ToolUseID,
			Name:      name,
			StartTime: ts,
		}
	case eventmodel.EventToolResult:
		if e.Result == nil {
			return ""
		}
		pending, ok := a.pendingToolCalls[e.Result.ToolUseID]
		if !ok {
			return ""
		}
		delete(a.pendingToolCalls, e.Result.ToolUseID)

		row, ok := a.toolAnalytics[pending.Name]
		if !ok {
			row = &eventmodel.ToolAnalytics{Name: pending.Name}
			a.toolAnalytics[pending.Name] = row
		}
		if row.PendingCount > 0 {
			row.PendingCount--
		}
		row.CompletedCount++
		if e.Result.IsError {
			row.FailureCount++
		} else {
			row.SuccessCount++
		}
		if elapsed := ts - pending.StartTime; elapsed >= 0 {
			row.TotalDuration += elapsed
		}
		return pending.Name
	}
	return ""
}
