package claudecode

import (
	"encoding/json"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/normalize"
)

// raw JSONL line shape, claude-code variant: a "message" envelope nested
// under message.content, plus top-level type/timestamp/isSidechain.
type rawLine struct {
	Type           string          `json:"type"`
	Timestamp      time.Time       `json:"timestamp"`
	IsSidechain    bool            `json:"isSidechain"`
	PermissionMode string          `json:"permissionMode"`
	Message        *rawMessage     `json:"message"`
	Summary        string          `json:"summary"`
	Result         string          `json:"result"`
}

type rawMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage"`
}

type rawUsage struct {
	InputTokens              int     `json:"input_tokens"`
	OutputTokens             int     `json:"output_tokens"`
	CacheCreationInputTokens int     `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int     `json:"cache_read_input_tokens"`
	CostUSD                  float64 `json:"cost_usd"`
}

// DecodeLine implements reader.Decoder for the claude-code JSONL shape:
// re-marshal the already-parsed map back to typed fields, decompose the
// content array, and hand it to normalize.Normalize.
func DecodeLine(obj map[string]any) []eventmodel.SessionEvent {
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var raw rawLine
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil
	}

	env := normalize.Envelope{
		Type:           raw.Type,
		Timestamp:      raw.Timestamp,
		IsSidechain:    raw.IsSidechain,
		PermissionMode: raw.PermissionMode,
		PlainText:      raw.Summary,
	}
	if raw.Type == "result" {
		env.PlainText = raw.Result
	}

	if raw.Message != nil {
		env.MessageID = raw.Message.ID
		env.Role = raw.Message.Role
		env.Model = raw.Message.Model
		env.Content = eventmodel.ParseContentBlocks(raw.Message.Content)
		if len(env.Content) == 0 && len(raw.Message.Content) > 0 {
			var plain string
			if json.Unmarshal(raw.Message.Content, &plain) == nil {
				env.PlainText = plain
			}
		}
		if raw.Message.Usage != nil {
			env.Usage = &eventmodel.Usage{
				InputTokens:              raw.Message.Usage.InputTokens,
				OutputTokens:             raw.Message.Usage.OutputTokens,
				CacheCreationInputTokens: raw.Message.Usage.CacheCreationInputTokens,
				CacheReadInputTokens:     raw.Message.Usage.CacheReadInputTokens,
				ReportedCost:             raw.Message.Usage.CostUSD,
			}
		}
	}

	return normalize.Normalize(env, ProviderID)
}

// extractFirstText pulls the first user-message text out of a raw parsed
// JSONL object, used by ExtractSessionLabel.
func extractFirstText(obj map[string]any) string {
	msg, ok := obj["message"].(map[string]any)
	if !ok {
		return ""
	}
	switch content := msg["content"].(type) {
	case string:
		return content
	case []any:
		for _, item := range content {
			block, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if block["type"] == "text" {
				if text, ok := block["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}
