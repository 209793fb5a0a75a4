package aggregator

import (
	"regexp"

	"agentlens/internal/eventmodel"
)

type truncationMarker struct {
	pattern     *regexp.Regexp
	displayName string
}

// truncationMarkers is the ordered list of detectors scanned against a
// tool_result's content string (spec §4.4.7); the first match wins.
var truncationMarkers = []truncationMarker{
	{regexp.MustCompile(`(?i)response truncated`), "Response truncated"},
	{regexp.MustCompile(`(?i)tool output was truncated`), "Tool output was truncated"},
	{regexp.MustCompile(`content_too_long`), "content_too_long"},
	{regexp.MustCompile(`<response clipped>`), "<response clipped>"},
	{regexp.MustCompile(`\[Content truncated`), "[Content truncated"},
	{regexp.MustCompile(`\[\.\.\.truncated`), "[...truncated"},
}

// detectTruncation implements spec §4.4.7. toolName is resolved by
// trackTool earlier in the same event's pipeline, via the pending-call
// map it consumes.
func (a *Aggregator) detectTruncation(e eventmodel.SessionEvent, ts int64, toolName string) {
	if e.Type != eventmodel.EventToolResult || e.Result == nil {
		return
	}
	content := string(e.Result.Output)
	for _, m := range truncationMarkers {
		if m.pattern.MatchString(content) {
			a.truncations = append(a.truncations, eventmodel.TruncationEvent{
				TimestampMS: ts,
				ToolName:    toolName,
				Marker:      m.displayName,
			})
			return
		}
	}
}
