package aggregator

import (
	"encoding/json"

	"agentlens/internal/eventmodel"
)

type taskToolInput struct {
	SubagentType string `json:"subagent_type"`
}

// trackSubagent implements spec §4.4.5: a tool_use named Task spawns a
// subagent lifecycle entry keyed by its own toolUseId; the matching
// tool_result completes it.
func (a *Aggregator) trackSubagent(e eventmodel.SessionEvent, ts int64) {
	switch e.Type {
	case eventmodel.EventToolUse:
		if e.Tool == nil || e.Tool.Name != "Task" {
			return
		}
		var in taskToolInput
		json.Unmarshal(e.Tool.Input, &in)
		subagentType := in.SubagentType
		if subagentType == "" {
			subagentType = "general"
		}
		lifecycle := eventmodel.SubagentLifecycle{
			ID:           e.Tool.ToolUseID,
			Description:  toolInputDescription(e.Tool.Input),
			SubagentType: subagentType,
			SpawnTimeMS:  ts,
			Status:       eventmodel.SubagentRunning,
		}
		a.subagents[e.Tool.ToolUseID] = lifecycle
		a.pendingSubagents[e.Tool.ToolUseID] = struct{}{}
	case eventmodel.EventToolResult:
		if e.Result == nil {
			return
		}
		if _, ok := a.pendingSubagents[e.Result.ToolUseID]; !ok {
			return
		}
		delete(a.pendingSubagents, e.Result.ToolUseID)

		lifecycle, ok := a.subagents[e.Result.ToolUseID]
		if !ok {
			return
		}
		lifecycle.Status = eventmodel.SubagentCompleted
		lifecycle.CompletionTimeMS = ts
		lifecycle.DurationMs = ts - lifecycle.SpawnTimeMS
		a.subagents[e.Result.ToolUseID] = lifecycle
	}
}

func toolInputDescription(rawInput []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(rawInput, &obj); err != nil {
		return ""
	}
	if desc, ok := obj["description"].(string); ok {
		return desc
	}
	if prompt, ok := obj["prompt"].(string); ok {
		return prompt
	}
	return ""
}
