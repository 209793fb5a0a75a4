package opencode

import (
	"encoding/json"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/normalize"
	"agentlens/internal/reader"
)

// DecodeMessage implements reader.DBDecoder: a message plus its parts
// becomes a normalize.Envelope built directly as ContentBlocks (the
// database's part rows are already decomposed, so there is no raw JSON
// content array to re-parse the way the JSONL providers do).
func DecodeMessage(msg reader.Message, parts []reader.Part) []eventmodel.SessionEvent {
	env := normalize.Envelope{
		Type:      msg.Role, // "user" | "assistant"
		Timestamp: time.UnixMilli(msg.TimeCreated),
		Role:      msg.Role,
		MessageID: msg.ID,
		Model:     msg.ModelID,
	}

	if msg.Input > 0 || msg.Output > 0 || msg.CacheRead > 0 || msg.CacheWrite > 0 {
		env.Usage = &eventmodel.Usage{
			InputTokens:              int(msg.Input),
			OutputTokens:             int(msg.Output),
			CacheCreationInputTokens: int(msg.CacheWrite),
			CacheReadInputTokens:     int(msg.CacheRead),
			ReasoningTokens:          int(msg.Reasoning),
			ReportedCost:             msg.Cost,
		}
	}

	for _, part := range parts {
		env.Content = append(env.Content, partToBlock(part))
	}

	return normalize.Normalize(env, ProviderID)
}

func partToBlock(part reader.Part) eventmodel.ContentBlock {
	raw, _ := json.Marshal(part.Data)
	switch part.Type {
	case "text", "reasoning":
		text, _ := part.Data["text"].(string)
		return eventmodel.ContentBlock{Type: eventmodel.BlockText, Text: text, Raw: raw}
	case "tool", "tool-invocation":
		name, _ := part.Data["tool"].(string)
		callID, _ := part.Data["callID"].(string)
		var input json.RawMessage
		if rawInput, ok := part.Data["input"]; ok {
			input, _ = json.Marshal(rawInput)
		}
		state, _ := part.Data["state"].(map[string]any)
		if status, ok := state["status"]; ok && status == "completed" {
			var output json.RawMessage
			if o, ok := state["output"]; ok {
				output, _ = json.Marshal(o)
			}
			return eventmodel.ContentBlock{
				Type:            eventmodel.BlockToolResult,
				ResultToolUseID: callID,
				ResultContent:   output,
				IsError:         state["status"] == "error",
				Raw:             raw,
			}
		}
		return eventmodel.ContentBlock{
			Type:      eventmodel.BlockToolUse,
			ToolUseID: callID,
			ToolName:  name,
			ToolInput: input,
			Raw:       raw,
		}
	default:
		return eventmodel.ContentBlock{Type: eventmodel.BlockUnknown, Raw: raw}
	}
}
