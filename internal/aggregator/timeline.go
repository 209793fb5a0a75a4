package aggregator

import "agentlens/internal/eventmodel"

// appendTimeline implements spec §4.4.8: a compact, capped FIFO of
// human-readable descriptions classified by noise level.
func (a *Aggregator) appendTimeline(e eventmodel.SessionEvent, ts int64) {
	entry, ok := timelineEntry(e, ts)
	if !ok {
		return
	}
	a.timeline = append(a.timeline, entry)
	if len(a.timeline) > a.cfg.TimelineCap {
		a.timeline = a.timeline[len(a.timeline)-a.cfg.TimelineCap:]
	}
}

func timelineEntry(e eventmodel.SessionEvent, ts int64) (eventmodel.TimelineEvent, bool) {
	base := eventmodel.TimelineEvent{TimestampMS: ts, IsSidechain: e.IsSidechain}

	switch e.Type {
	case eventmodel.EventUser:
		if e.Message == nil || e.Message.Text == "" {
			return base, false
		}
		base.Type = eventmodel.TimelineUserPrompt
		base.NoiseLevel = eventmodel.NoiseUser
		base.Description = eventmodel.TruncateSummary(e.Message.Text, 200)
	case eventmodel.EventAssistant:
		if e.Message == nil || e.Message.Text == "" {
			return base, false
		}
		base.Type = eventmodel.TimelineAssistantResponse
		base.NoiseLevel = eventmodel.NoiseAI
		base.Description = eventmodel.TruncateSummary(e.Message.Text, 200)
	case eventmodel.EventToolUse:
		if e.Tool == nil {
			return base, false
		}
		base.Type = eventmodel.TimelineToolCall
		base.NoiseLevel = eventmodel.NoiseAI
		base.Description = eventmodel.TruncateSummary(e.Tool.Name, 200)
	case eventmodel.EventToolResult:
		base.Type = eventmodel.TimelineToolResult
		base.NoiseLevel = eventmodel.NoiseNoise
		if e.Result != nil {
			base.Description = eventmodel.TruncateSummary(string(e.Result.Output), 200)
		}
	case eventmodel.EventSummary:
		base.Type = eventmodel.TimelineCompaction
		base.NoiseLevel = eventmodel.NoiseSystem
		base.Description = eventmodel.TruncateSummary(e.Summary, 200)
	case eventmodel.EventSystem:
		base.Type = eventmodel.TimelineSessionStart
		base.NoiseLevel = eventmodel.NoiseSystem
		base.Description = eventmodel.TruncateSummary(e.Summary, 200)
	default:
		return base, false
	}
	return base, true
}
