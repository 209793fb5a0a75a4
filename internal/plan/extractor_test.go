package plan

import (
	"testing"

	"agentlens/internal/eventmodel"
)

func TestExtractorClaudeCodePlanMode(t *testing.T) {
	x := New("claude-code", nil)

	if got := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "EnterPlanMode"}); got != nil {
		t.Fatalf("EnterPlanMode returned %+v, want nil", got)
	}
	if got := x.ProcessFollowEvent(eventmodel.FollowEvent{
		Type:     eventmodel.EventAssistant,
		FullText: "# My Plan\n- [ ] step one\n- [x] step two",
	}); got != nil {
		t.Fatalf("buffering assistant text returned %+v, want nil", got)
	}
	state := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "ExitPlanMode"})
	if state == nil {
		t.Fatal("ExitPlanMode returned nil, want a plan")
	}
	if state.Title != "My Plan" || len(state.Steps) != 2 {
		t.Fatalf("state = %+v", state)
	}
	if state.Source != eventmodel.PlanSourceClaudeCode {
		t.Fatalf("source = %q", state.Source)
	}
}

func TestExtractorClaudeCodePrefersWriteCapture(t *testing.T) {
	x := New("claude-code", nil)
	x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "EnterPlanMode"})
	x.ProcessFollowEvent(eventmodel.FollowEvent{
		Type:     eventmodel.EventToolUse,
		ToolName: "Write",
		FullText: `{"file_path": "/tmp/.claude/plans/foo.md", "content": "# Captured\n- [ ] only this one"}`,
	})
	x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventAssistant, FullText: "# Ignored\n- [ ] not this"})
	state := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "ExitPlanMode"})
	if state == nil || state.Title != "Captured" {
		t.Fatalf("state = %+v, want title Captured", state)
	}
}

func TestExtractorClaudeCodeDiskFallback(t *testing.T) {
	called := false
	readPlanFile := func(path string) (string, bool) {
		called = true
		if path != "/tmp/.claude/plans/bar.md" {
			t.Fatalf("unexpected path %q", path)
		}
		return "# From disk\n- [ ] step", true
	}
	x := New("claude-code", readPlanFile)
	x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "EnterPlanMode"})
	x.ProcessFollowEvent(eventmodel.FollowEvent{
		Type:     eventmodel.EventToolUse,
		ToolName: "Write",
		FullText: `{"file_path": "/tmp/.claude/plans/bar.md"}`,
	})
	state := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "ExitPlanMode"})
	if !called {
		t.Fatal("readPlanFile was never called")
	}
	if state == nil || state.Title != "From disk" {
		t.Fatalf("state = %+v", state)
	}
}

func TestExtractorCodexEmbeddedXML(t *testing.T) {
	x := New("codex", nil)
	fe := eventmodel.FollowEvent{
		Type:     eventmodel.EventAssistant,
		FullText: "preamble text <proposed_plan># Ship It\n- [ ] step a</proposed_plan> trailer",
	}
	state := x.ProcessFollowEvent(fe)
	if state == nil {
		t.Fatal("want a plan, got nil")
	}
	if state.Title != "Ship It" || state.Source != eventmodel.PlanSourceCodex {
		t.Fatalf("state = %+v", state)
	}
}

func TestExtractorCodexNoEnvelope(t *testing.T) {
	x := New("codex", nil)
	if got := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventAssistant, FullText: "just talking"}); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestExtractorOpenCodeUpdatePlanStrings(t *testing.T) {
	x := New("opencode", nil)
	fe := eventmodel.FollowEvent{
		Type:     eventmodel.EventToolUse,
		ToolName: "UpdatePlan",
		FullText: `{"approach": "do the thing", "plan": ["first step", "second step"]}`,
	}
	state := x.ProcessFollowEvent(fe)
	if state == nil {
		t.Fatal("want a plan, got nil")
	}
	if state.Title != "do the thing" || len(state.Steps) != 2 {
		t.Fatalf("state = %+v", state)
	}
	if state.Steps[0].Status != eventmodel.StepPending {
		t.Fatalf("default status = %q", state.Steps[0].Status)
	}
}

func TestExtractorOpenCodeUpdatePlanObjects(t *testing.T) {
	x := New("opencode", nil)
	fe := eventmodel.FollowEvent{
		Type:     eventmodel.EventToolUse,
		ToolName: "UpdatePlan",
		FullText: `{"plan": [{"step":"a","description":"do a","status":"completed"},{"step":"b","description":"do b","status":"in-progress"},{"step":"c","description":"do c","status":"queued"}]}`,
	}
	state := x.ProcessFollowEvent(fe)
	if state == nil || len(state.Steps) != 3 {
		t.Fatalf("state = %+v", state)
	}
	if state.Steps[0].Status != eventmodel.StepCompleted {
		t.Fatalf("step 0 status = %q", state.Steps[0].Status)
	}
	if state.Steps[1].Status != eventmodel.StepInProgress {
		t.Fatalf("step 1 status = %q", state.Steps[1].Status)
	}
	if state.Steps[2].Status != eventmodel.StepPending {
		t.Fatalf("step 2 status = %q", state.Steps[2].Status)
	}
}

func TestExtractorUnknownProviderReturnsNil(t *testing.T) {
	x := New("unknown", nil)
	if got := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "UpdatePlan", FullText: `{"plan":[]}`}); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestExtractorResetClearsBuffers(t *testing.T) {
	x := New("claude-code", nil)
	x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "EnterPlanMode"})
	x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventAssistant, FullText: "# Plan\n- [ ] a"})
	x.Reset()
	state := x.ProcessFollowEvent(eventmodel.FollowEvent{Type: eventmodel.EventToolUse, ToolName: "ExitPlanMode"})
	if state != nil {
		t.Fatalf("expected nil plan after reset, got %+v", state)
	}
}
