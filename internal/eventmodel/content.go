package eventmodel

import "encoding/json"

// BlockType identifies the variant of a ContentBlock tagged union.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockUnknown    BlockType = "unknown"
)

// ContentBlock models one element of a message's content array as a tagged
// sum type (spec §9 design note). The Unknown variant preserves Raw so
// downstream code can still inspect fields this package doesn't interpret.
type ContentBlock struct {
	Type BlockType

	// BlockText / BlockThinking
	Text string

	// BlockToolUse
	ToolUseID string
	ToolName  string
	ToolInput json.RawMessage

	// BlockToolResult
	ResultToolUseID string
	ResultContent   json.RawMessage
	IsError         bool

	// Raw preserves the original object for Unknown blocks, and is also
	// populated for known types so callers needing the exact wire shape
	// (e.g. search snippet extraction) don't have to re-marshal.
	Raw json.RawMessage
}

// ParseContentBlocks decodes a message.content JSON array into the tagged
// ContentBlock union. Unparseable elements become BlockUnknown rather than
// aborting the whole decode, matching the "never throw" discovery/parse
// policy applied throughout the ingestion pipeline (spec §7).
func ParseContentBlocks(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}
	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(raw, &rawBlocks); err != nil {
		return nil
	}
	blocks := make([]ContentBlock, 0, len(rawBlocks))
	for _, rb := range rawBlocks {
		blocks = append(blocks, parseBlock(rb))
	}
	return blocks
}

func parseBlock(raw json.RawMessage) ContentBlock {
	var head struct {
		Type        string          `json:"type"`
		Text        string          `json:"text"`
		Thinking    string          `json:"thinking"`
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Input       json.RawMessage `json:"input"`
		ToolUseID   string          `json:"tool_use_id"`
		Content     json.RawMessage `json:"content"`
		IsError     bool            `json:"is_error"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ContentBlock{Type: BlockUnknown, Raw: raw}
	}
	switch head.Type {
	case "text":
		return ContentBlock{Type: BlockText, Text: head.Text, Raw: raw}
	case "thinking":
		return ContentBlock{Type: BlockThinking, Text: head.Thinking, Raw: raw}
	case "tool_use":
		return ContentBlock{
			Type:      BlockToolUse,
			ToolUseID: head.ID,
			ToolName:  head.Name,
			ToolInput: head.Input,
			Raw:       raw,
		}
	case "tool_result":
		return ContentBlock{
			Type:            BlockToolResult,
			ResultToolUseID: head.ToolUseID,
			ResultContent:   head.Content,
			IsError:         head.IsError,
			Raw:             raw,
		}
	default:
		return ContentBlock{Type: BlockUnknown, Raw: raw}
	}
}
