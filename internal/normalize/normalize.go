// Package normalize turns a provider-specific raw message envelope into
// zero or more canonical eventmodel.SessionEvents (spec §4.3). Each
// provider adapter parses its own on-disk shape and hands the common
// fields (type, timestamp, role, model, usage, content blocks) to
// Normalize; this package owns the decomposition rules that are the same
// across all three providers.
package normalize

import (
	"time"

	"agentlens/internal/eventmodel"
)

// Envelope is the provider-agnostic subset of fields normalization needs.
// Provider adapters populate this from their own wire format.
type Envelope struct {
	Type           string // "user" | "assistant" | "summary" | "system" | "result"
	Timestamp      time.Time
	Role           string
	MessageID      string
	Model          string
	Usage          *eventmodel.Usage
	Content        []eventmodel.ContentBlock
	PlainText      string // used for summary/system events without a content array
	IsSidechain    bool
	PermissionMode string
}

// Normalize decomposes env into canonical SessionEvents per spec §4.3.
func Normalize(env Envelope, providerID string) []eventmodel.SessionEvent {
	switch env.Type {
	case "assistant":
		return normalizeAssistant(env, providerID)
	case "user":
		return normalizeUser(env, providerID)
	case "result":
		return []eventmodel.SessionEvent{sessionEndEvent(env, providerID)}
	case "summary":
		return []eventmodel.SessionEvent{{
			Type:           eventmodel.EventSummary,
			Timestamp:      env.Timestamp,
			ProviderID:     providerID,
			Summary:        env.PlainText,
			IsSidechain:    env.IsSidechain,
			PermissionMode: env.PermissionMode,
		}}
	case "system":
		return []eventmodel.SessionEvent{{
			Type:           eventmodel.EventSystem,
			Timestamp:      env.Timestamp,
			ProviderID:     providerID,
			Summary:        env.PlainText,
			IsSidechain:    env.IsSidechain,
			PermissionMode: env.PermissionMode,
		}}
	default:
		return nil
	}
}

func sessionEndEvent(env Envelope, providerID string) eventmodel.SessionEvent {
	return eventmodel.SessionEvent{
		Type:           eventmodel.EventSystem,
		Timestamp:      env.Timestamp,
		ProviderID:     providerID,
		Summary:        "Session ended",
		IsSidechain:    env.IsSidechain,
		PermissionMode: env.PermissionMode,
	}
}

// normalizeAssistant decomposes an assistant message's content blocks:
// one tool_use SessionEvent per tool_use block, plus one assistant-text
// event when a text block is present. If there is no text block, usage
// and cost are attached to the *last* emitted tool_use event so tokens
// are never silently dropped (spec §4.3).
func normalizeAssistant(env Envelope, providerID string) []eventmodel.SessionEvent {
	var events []eventmodel.SessionEvent
	var text string
	var lastToolUseIdx = -1

	for _, block := range env.Content {
		switch block.Type {
		case eventmodel.BlockToolUse:
			events = append(events, eventmodel.SessionEvent{
				Type:       eventmodel.EventToolUse,
				Timestamp:  env.Timestamp,
				ProviderID: providerID,
				Tool: &eventmodel.ToolInfo{
					Name:      block.ToolName,
					ToolUseID: block.ToolUseID,
					Input:     block.ToolInput,
				},
				IsSidechain:    env.IsSidechain,
				PermissionMode: env.PermissionMode,
			})
			lastToolUseIdx = len(events) - 1
		case eventmodel.BlockText:
			if text != "" {
				text += "\n"
			}
			text += block.Text
		case eventmodel.BlockThinking:
			// Thinking blocks are not emitted as their own SessionEvent;
			// context attribution reads them directly off env.Content.
		}
	}

	if text != "" {
		msg := &eventmodel.MessageInfo{
			Role:   "assistant",
			ID:     env.MessageID,
			Model:  env.Model,
			Usage:  env.Usage,
			Text:   text,
			Blocks: env.Content,
		}
		events = append(events, eventmodel.SessionEvent{
			Type:           eventmodel.EventAssistant,
			Timestamp:      env.Timestamp,
			ProviderID:     providerID,
			Message:        msg,
			IsSidechain:    env.IsSidechain,
			PermissionMode: env.PermissionMode,
		})
	} else if lastToolUseIdx >= 0 && env.Usage != nil {
		events[lastToolUseIdx].Message = &eventmodel.MessageInfo{
			Role:   "assistant",
			ID:     env.MessageID,
			Model:  env.Model,
			Usage:  env.Usage,
			Blocks: env.Content,
		}
	} else if len(env.Content) == 0 {
		// No content blocks at all (plain-text assistant line, some
		// providers emit this shape): fall back to PlainText/Usage
		// directly on a single assistant event.
		events = append(events, eventmodel.SessionEvent{
			Type:       eventmodel.EventAssistant,
			Timestamp:  env.Timestamp,
			ProviderID: providerID,
			Message: &eventmodel.MessageInfo{
				Role:  "assistant",
				ID:    env.MessageID,
				Model: env.Model,
				Usage: env.Usage,
				Text:  env.PlainText,
			},
			IsSidechain:    env.IsSidechain,
			PermissionMode: env.PermissionMode,
		})
	}

	return events
}

// normalizeUser decomposes a user message: each tool_result block becomes
// its own tool_result SessionEvent keyed by tool_use_id; any remaining
// text becomes a single user SessionEvent (spec §4.3).
func normalizeUser(env Envelope, providerID string) []eventmodel.SessionEvent {
	var events []eventmodel.SessionEvent
	var text string

	for _, block := range env.Content {
		switch block.Type {
		case eventmodel.BlockToolResult:
			events = append(events, eventmodel.SessionEvent{
				Type:       eventmodel.EventToolResult,
				Timestamp:  env.Timestamp,
				ProviderID: providerID,
				Result: &eventmodel.ResultInfo{
					ToolUseID: block.ResultToolUseID,
					Output:    block.ResultContent,
					IsError:   block.IsError,
				},
				IsSidechain:    env.IsSidechain,
				PermissionMode: env.PermissionMode,
			})
		case eventmodel.BlockText:
			if text != "" {
				text += "\n"
			}
			text += block.Text
		}
	}

	if text == "" && len(env.Content) == 0 {
		text = env.PlainText
	}

	if text != "" {
		events = append(events, eventmodel.SessionEvent{
			Type:       eventmodel.EventUser,
			Timestamp:  env.Timestamp,
			ProviderID: providerID,
			Message: &eventmodel.MessageInfo{
				Role:   "user",
				ID:     env.MessageID,
				Text:   text,
				Blocks: env.Content,
			},
			IsSidechain:    env.IsSidechain,
			PermissionMode: env.PermissionMode,
		})
	}

	return events
}
