package eventmodel

import "time"

// FollowEvent is the lossy, UI-facing summary fanned out from a
// SessionEvent (spec §3: one SessionEvent may fan out into several
// FollowEvents, e.g. an assistant message with three tool_use blocks and
// one text block becomes four FollowEvents).
type FollowEvent struct {
	ProviderID string
	Type       EventType
	Timestamp  time.Time

	// Summary is the human-readable one-liner, truncated per spec §4.3
	// (<=200 chars text, <=120 tool-result, <=80 tool-input).
	Summary string

	// FullText carries the untruncated source text behind Summary (full
	// message text, raw tool input JSON, or raw tool result bytes as a
	// string). The plan extractor needs this: a plan's markdown body
	// routinely exceeds Summary's 200-char cap.
	FullText string

	Model          string
	Tokens         int
	CacheTokens    int
	Cost           float64
	ToolName       string
	ToolInputPreview string

	RateLimits map[string]string

	// RawPointer lets a consumer correlate this FollowEvent back to the
	// originating SessionEvent without the pipeline retaining the full
	// event (e.g. a message id or tool_use_id).
	RawPointer string
}

const (
	maxTextSummary       = 200
	maxToolResultSummary = 120
	maxToolInputSummary  = 80
	ellipsis             = "..."
)

// TruncateSummary collapses whitespace and truncates s to max runes,
// appending a 3-char ellipsis when truncation occurs (spec §4.3).
func TruncateSummary(s string, max int) string {
	collapsed := collapseWhitespace(s)
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

func collapseWhitespace(s string) string {
	out := make([]rune, 0, len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if prevSpace {
				continue
			}
			prevSpace = true
			out = append(out, ' ')
			continue
		}
		prevSpace = false
		out = append(out, r)
	}
	// trim leading/trailing single space left by collapsing
	start, end := 0, len(out)
	for start < end && out[start] == ' ' {
		start++
	}
	for end > start && out[end-1] == ' ' {
		end--
	}
	return string(out[start:end])
}
