package codex

import (
	"encoding/json"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/normalize"
)

// rawLine is the rollout wrapper shape: {type, timestamp, payload:{...}}
// (spec §4.3). The session_meta record uses the same wrapper with
// type=="session_meta" and is filtered out before normalization; every
// other type ("user", "assistant", "result", "summary", "system") carries
// its payload shaped like the claude-code message envelope.
type rawLine struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type rawPayload struct {
	IsSidechain    bool            `json:"isSidechain"`
	PermissionMode string          `json:"permissionMode"`
	ID             string          `json:"id"`
	Role           string          `json:"role"`
	Model          string          `json:"model"`
	Content        json.RawMessage `json:"content"`
	Usage          *rawUsage       `json:"usage"`
	Summary        string          `json:"summary"`
	Result         string          `json:"result"`
}

type rawUsage struct {
	InputTokens              int     `json:"input_tokens"`
	OutputTokens             int     `json:"output_tokens"`
	CacheCreationInputTokens int     `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int     `json:"cache_read_input_tokens"`
	ReasoningTokens          int     `json:"reasoning_tokens"`
	CostUSD                  float64 `json:"cost_usd"`
}

// DecodeLine implements reader.Decoder for the codex rollout-wrapper
// shape.
func DecodeLine(obj map[string]any) []eventmodel.SessionEvent {
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var raw rawLine
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil
	}
	if raw.Type == "" || raw.Type == "session_meta" {
		return nil
	}

	var payload rawPayload
	if len(raw.Payload) > 0 {
		json.Unmarshal(raw.Payload, &payload)
	}

	env := normalize.Envelope{
		Type:           raw.Type,
		Timestamp:      raw.Timestamp,
		IsSidechain:    payload.IsSidechain,
		PermissionMode: payload.PermissionMode,
		MessageID:      payload.ID,
		Role:           payload.Role,
		Model:          payload.Model,
		PlainText:      payload.Summary,
	}
	if raw.Type == "result" {
		env.PlainText = payload.Result
	}
	env.Content = eventmodel.ParseContentBlocks(payload.Content)
	if len(env.Content) == 0 && len(payload.Content) > 0 {
		var plain string
		if json.Unmarshal(payload.Content, &plain) == nil {
			env.PlainText = plain
		}
	}
	if payload.Usage != nil {
		env.Usage = &eventmodel.Usage{
			InputTokens:              payload.Usage.InputTokens,
			OutputTokens:             payload.Usage.OutputTokens,
			CacheCreationInputTokens: payload.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     payload.Usage.CacheReadInputTokens,
			ReasoningTokens:          payload.Usage.ReasoningTokens,
			ReportedCost:             payload.Usage.CostUSD,
		}
	}

	return normalize.Normalize(env, ProviderID)
}

func extractFirstText(payload map[string]any) string {
	switch content := payload["content"].(type) {
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
