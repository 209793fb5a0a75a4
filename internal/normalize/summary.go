package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"agentlens/internal/eventmodel"
)

// ToolSummaryFormatter renders a one-liner for a tool_use event's input,
// used to build FollowEvent.Summary (spec §4.3).
type ToolSummaryFormatter func(input json.RawMessage) string

var toolSummaryRegistry = map[string]ToolSummaryFormatter{
	"Read":         fieldFormatter("file_path"),
	"Write":        fieldFormatter("file_path"),
	"Edit":         fieldFormatter("file_path"),
	"NotebookEdit": fieldFormatter("notebook_path"),
	"Bash":         fieldFormatter("command"),
	"Grep":         fieldFormatter("pattern"),
	"Glob":         fieldFormatter("pattern"),
	"WebFetch":     fieldFormatter("url"),
	"WebSearch":    fieldFormatter("query"),
	"Task":         fieldFormatter("description"),
	"TaskCreate":   fieldFormatter("subject"),
	"TaskUpdate":   fieldFormatter("status"),
}

// FormatToolInput renders a <=80-char one-liner for a tool_use input,
// using the per-tool formatter registry when one is known for name, or
// the generic "first non-empty string field" fallback otherwise. Names of
// the form "prefix__name" are matched on the trailing segment (spec §4.3).
func FormatToolInput(name string, input json.RawMessage) string {
	key := normalizeToolName(name)
	if fn, ok := toolSummaryRegistry[key]; ok {
		return eventmodel.TruncateSummary(fn(input), 80)
	}
	return eventmodel.TruncateSummary(genericFieldExtractor(input), 80)
}

// FormatToolResult renders a <=120-char one-liner for a tool_result's
// output (spec §4.3).
func FormatToolResult(output json.RawMessage) string {
	return eventmodel.TruncateSummary(stringify(output), 120)
}

func normalizeToolName(name string) string {
	if idx := strings.LastIndex(name, "__"); idx >= 0 {
		return name[idx+2:]
	}
	return name
}

func fieldFormatter(field string) ToolSummaryFormatter {
	return func(input json.RawMessage) string {
		var obj map[string]any
		if err := json.Unmarshal(input, &obj); err != nil {
			return genericFieldExtractor(input)
		}
		if v, ok := obj[field]; ok {
			return fmt.Sprint(v)
		}
		return genericFieldExtractor(input)
	}
}

// genericFieldExtractor finds the first non-empty string field in input,
// used as the fallback formatter for tools the registry doesn't know
// (spec §4.3).
func genericFieldExtractor(input json.RawMessage) string {
	var obj map[string]any
	if err := json.Unmarshal(input, &obj); err != nil {
		return stringify(input)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringify(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
