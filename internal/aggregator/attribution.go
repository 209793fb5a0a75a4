package aggregator

import (
	"strings"

	"agentlens/internal/eventmodel"
	"agentlens/internal/tokenutil"
)

// attributeContext implements spec §4.4.6. Because normalization already
// decomposed tool_use/tool_result blocks into their own SessionEvents,
// those categories are attributed directly from the event rather than by
// re-walking a content array; thinking blocks have no event of their own
// and are read off the assistant event's retained Blocks.
func (a *Aggregator) attributeContext(e eventmodel.SessionEvent) {
	estimate := tokenutil.EstimateFast
	if a.cfg.PreciseTokenEstimate {
		estimate = tokenutil.CountTokens
	}

	switch e.Type {
	case eventmodel.EventUser:
		if e.Message == nil || e.Message.Text == "" {
			return
		}
		if strings.Contains(e.Message.Text, "<system-reminder>") || strings.Contains(e.Message.Text, "CLAUDE.md") {
			a.attribution.SystemPrompt += int64(estimate(e.Message.Text))
		} else {
			a.attribution.UserMessages += int64(estimate(e.Message.Text))
		}
	case eventmodel.EventAssistant:
		if e.Message == nil {
			return
		}
		if e.Message.Text != "" {
			a.attribution.AssistantResponses += int64(estimate(e.Message.Text))
		}
		for _, block := range e.Message.Blocks {
			if block.Type == eventmodel.BlockThinking && block.Text != "" {
				a.attribution.Thinking += int64(estimate(block.Text))
			}
		}
	case eventmodel.EventToolUse:
		if e.Tool != nil && len(e.Tool.Input) > 0 {
			a.attribution.ToolInputs += int64(estimate(string(e.Tool.Input)))
		}
	case eventmodel.EventToolResult:
		if e.Result != nil && len(e.Result.Output) > 0 {
			a.attribution.ToolOutputs += int64(estimate(string(e.Result.Output)))
		}
	case eventmodel.EventSummary:
		if e.Summary != "" {
			a.attribution.Other += int64(estimate(e.Summary))
		}
	}
}
