package plan

import (
	"encoding/json"
	"strconv"
	"strings"

	"agentlens/internal/eventmodel"
)

// ReadPlanFileFunc is the optional disk-read fallback provider A's
// ExitPlanMode finalization uses when no write was captured and no text
// was buffered (spec §4.5, §6).
type ReadPlanFileFunc func(path string) (string, bool)

// Extractor is the provider-dispatched plan state machine (spec §4.5). It
// satisfies aggregator.PlanExtractor without importing that package,
// keeping the aggregator the dependency root.
type Extractor struct {
	providerID   string
	readPlanFile ReadPlanFileFunc

	// Provider A (claude-code) plan-mode buffer.
	inPlanMode     bool
	textBuffer     []string
	capturedPath   string
	capturedWrite  string
}

// New constructs an Extractor for the given provider id. readPlanFile may
// be nil: the disk-read fallback is then simply unavailable.
func New(providerID string, readPlanFile ReadPlanFileFunc) *Extractor {
	return &Extractor{providerID: providerID, readPlanFile: readPlanFile}
}

// ProcessFollowEvent dispatches to the provider-specific state machine and
// returns a freshly finalized PlanState, or nil when this event didn't
// finalize one.
func (x *Extractor) ProcessFollowEvent(fe eventmodel.FollowEvent) *eventmodel.PlanState {
	switch eventmodel.PlanSource(x.providerID) {
	case eventmodel.PlanSourceClaudeCode:
		return x.processClaudeCode(fe)
	case eventmodel.PlanSourceCodex:
		return x.processCodex(fe)
	case eventmodel.PlanSourceOpenCode:
		return x.processOpenCode(fe)
	default:
		return nil
	}
}

// Reset clears all in-flight buffers (spec §4.4.10).
func (x *Extractor) Reset() {
	x.inPlanMode = false
	x.textBuffer = nil
	x.capturedPath = ""
	x.capturedWrite = ""
}

// processClaudeCode implements provider A: tool-driven plan mode (spec
// §4.5). EnterPlanMode begins buffering assistant text; a Write under
// .claude/plans/ captures full content; ExitPlanMode finalizes by
// preference: captured write content, then buffered text, then a
// readPlanFile() re-read of the captured path.
func (x *Extractor) processClaudeCode(fe eventmodel.FollowEvent) *eventmodel.PlanState {
	switch {
	case fe.Type == eventmodel.EventToolUse && fe.ToolName == "EnterPlanMode":
		x.inPlanMode = true
		x.textBuffer = nil
		x.capturedPath = ""
		x.capturedWrite = ""
		return nil

	case fe.Type == eventmodel.EventToolUse && fe.ToolName == "Write":
		path, content, ok := parseWriteInput(fe.FullText)
		if ok && strings.Contains(path, ".claude/plans/") {
			x.capturedPath = path
			x.capturedWrite = content
		}
		return nil

	case fe.Type == eventmodel.EventAssistant && x.inPlanMode:
		if fe.FullText != "" {
			x.textBuffer = append(x.textBuffer, fe.FullText)
		}
		return nil

	case fe.Type == eventmodel.EventToolUse && fe.ToolName == "ExitPlanMode":
		markdown, ok := x.resolveClaudeCodePlanBody()
		x.inPlanMode = false
		x.textBuffer = nil
		if !ok {
			return nil
		}
		return ParseMarkdown(eventmodel.PlanSourceClaudeCode, markdown)

	default:
		return nil
	}
}

func (x *Extractor) resolveClaudeCodePlanBody() (string, bool) {
	if x.capturedWrite != "" {
		return x.capturedWrite, true
	}
	if len(x.textBuffer) > 0 {
		return strings.Join(x.textBuffer, "\n"), true
	}
	if x.capturedPath != "" && x.readPlanFile != nil {
		if content, ok := x.readPlanFile(x.capturedPath); ok {
			return content, true
		}
	}
	return "", false
}

func parseWriteInput(rawInput string) (path, content string, ok bool) {
	if rawInput == "" {
		return "", "", false
	}
	var obj struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal([]byte(rawInput), &obj); err != nil {
		return "", "", false
	}
	if obj.FilePath == "" {
		return "", "", false
	}
	return obj.FilePath, obj.Content, true
}

// proposedPlanOpen/Close delimit provider B's embedded envelope.
const (
	proposedPlanOpen  = "<proposed_plan>"
	proposedPlanClose = "</proposed_plan>"
)

// processCodex implements provider B: each assistant event is scanned for
// an embedded <proposed_plan>...</proposed_plan> envelope (spec §4.5).
func (x *Extractor) processCodex(fe eventmodel.FollowEvent) *eventmodel.PlanState {
	if fe.Type != eventmodel.EventAssistant || fe.FullText == "" {
		return nil
	}
	start := strings.Index(fe.FullText, proposedPlanOpen)
	if start < 0 {
		return nil
	}
	body := fe.FullText[start+len(proposedPlanOpen):]
	end := strings.Index(body, proposedPlanClose)
	if end < 0 {
		return nil
	}
	return ParseMarkdown(eventmodel.PlanSourceCodex, strings.TrimSpace(body[:end]))
}

// updatePlanInput mirrors provider C's UpdatePlan tool input (spec §4.5).
type updatePlanInput struct {
	Approach string        `json:"approach"`
	Plan     []json.RawMessage `json:"plan"`
}

type updatePlanStep struct {
	Step        string `json:"step"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// processOpenCode implements provider C: a structured UpdatePlan tool_use
// constructs steps directly from input.plan, without a markdown pass
// (spec §4.5).
func (x *Extractor) processOpenCode(fe eventmodel.FollowEvent) *eventmodel.PlanState {
	if fe.Type != eventmodel.EventToolUse || fe.ToolName != "UpdatePlan" {
		return nil
	}
	var in updatePlanInput
	if err := json.Unmarshal([]byte(fe.FullText), &in); err != nil {
		return nil
	}

	state := &eventmodel.PlanState{
		Active: true,
		Source: eventmodel.PlanSourceOpenCode,
		Title:  in.Approach,
	}
	for i, raw := range in.Plan {
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			state.Steps = append(state.Steps, eventmodel.PlanStep{
				ID:          strconv.Itoa(i + 1),
				Description: asString,
				Status:      eventmodel.StepPending,
				Complexity:  inferComplexity(asString),
			})
			continue
		}
		var step updatePlanStep
		if err := json.Unmarshal(raw, &step); err != nil {
			continue
		}
		desc := step.Description
		if desc == "" {
			desc = step.Step
		}
		state.Steps = append(state.Steps, eventmodel.PlanStep{
			ID:          strconv.Itoa(i + 1),
			Description: desc,
			Status:      mapOpenCodeStatus(step.Status),
			Complexity:  inferComplexity(desc),
		})
	}
	state.Recompute()
	return state
}

func mapOpenCodeStatus(s string) eventmodel.StepStatus {
	switch s {
	case "completed":
		return eventmodel.StepCompleted
	case "in_progress", "in-progress":
		return eventmodel.StepInProgress
	default:
		return eventmodel.StepPending
	}
}
