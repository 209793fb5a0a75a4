package claudecode

import (
	"encoding/json"
	"testing"

	"agentlens/internal/eventmodel"
)

func decodeJSON(t *testing.T, line string) []eventmodel.SessionEvent {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return DecodeLine(obj)
}

func TestDecodeLine_AssistantTextAndToolUse(t *testing.T) {
	line := `{
		"type": "assistant",
		"timestamp": "2024-01-01T00:00:00Z",
		"message": {
			"id": "msg_1",
			"role": "assistant",
			"model": "claude-3",
			"content": [
				{"type": "text", "text": "Let me check"},
				{"type": "tool_use", "id": "tu_1", "name": "Bash", "input": {"command": "ls"}}
			],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}
	}`
	events := decodeJSON(t, line)
	if len(events) != 2 {
		t.Fatalf("expected 2 events (tool_use + assistant text), got %d", len(events))
	}
	if events[0].Type != eventmodel.EventToolUse {
		t.Errorf("events[0].Type = %v, want tool_use", events[0].Type)
	}
	if events[1].Type != eventmodel.EventAssistant {
		t.Errorf("events[1].Type = %v, want assistant", events[1].Type)
	}
	if events[1].Message == nil || events[1].Message.Usage == nil || events[1].Message.Usage.InputTokens != 10 {
		t.Errorf("expected usage attached to the text event, got %+v", events[1].Message)
	}
}

func TestDecodeLine_ToolUseOnlyGetsUsage(t *testing.T) {
	line := `{
		"type": "assistant",
		"timestamp": "2024-01-01T00:00:00Z",
		"message": {
			"id": "msg_2",
			"role": "assistant",
			"content": [
				{"type": "tool_use", "id": "tu_2", "name": "Read", "input": {"file_path": "a.go"}}
			],
			"usage": {"input_tokens": 3, "output_tokens": 1}
		}
	}`
	events := decodeJSON(t, line)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Message == nil || events[0].Message.Usage == nil {
		t.Fatal("expected usage attached to the sole tool_use event")
	}
}

func TestDecodeLine_SessionEnd(t *testing.T) {
	line := `{"type": "result", "timestamp": "2024-01-01T00:00:00Z", "result": "done"}`
	events := decodeJSON(t, line)
	if len(events) != 1 || events[0].Type != eventmodel.EventSystem {
		t.Fatalf("expected a single system event, got %+v", events)
	}
	if events[0].Summary != "Session ended" {
		t.Errorf("Summary = %q, want %q", events[0].Summary, "Session ended")
	}
}
