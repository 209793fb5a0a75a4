package plan

import (
	"testing"

	"agentlens/internal/eventmodel"
)

func TestParseMarkdownScenario(t *testing.T) {
	state := ParseMarkdown(eventmodel.PlanSourceClaudeCode, "# My Plan\n- [ ] step one\n- [x] step two")
	if state.Title != "My Plan" {
		t.Fatalf("title = %q", state.Title)
	}
	if len(state.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(state.Steps))
	}
	if state.Steps[0].Description != "step one" || state.Steps[0].Status != eventmodel.StepPending {
		t.Fatalf("step 0 = %+v", state.Steps[0])
	}
	if state.Steps[1].Description != "step two" || state.Steps[1].Status != eventmodel.StepCompleted {
		t.Fatalf("step 1 = %+v", state.Steps[1])
	}
	if state.CompletionRate != 0.5 {
		t.Fatalf("completionRate = %v, want 0.5", state.CompletionRate)
	}
}

func TestParseMarkdownSkipsShortBullets(t *testing.T) {
	state := ParseMarkdown(eventmodel.PlanSourceCodex, "- ab\n- a real step description")
	if len(state.Steps) != 1 {
		t.Fatalf("steps = %d, want 1 (short bullet skipped)", len(state.Steps))
	}
}

func TestParseMarkdownPhaseHeaders(t *testing.T) {
	md := "## Phase 1: Setup\n- [ ] install deps\n## Phase 2: Build\n- [ ] compile binary"
	state := ParseMarkdown(eventmodel.PlanSourceClaudeCode, md)
	if len(state.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(state.Steps))
	}
	if state.Steps[0].Phase != "Setup" || state.Steps[1].Phase != "Build" {
		t.Fatalf("phases = %q, %q", state.Steps[0].Phase, state.Steps[1].Phase)
	}
}

func TestParseMarkdownNoStepsPreservesRaw(t *testing.T) {
	md := "just some prose, no list items here"
	state := ParseMarkdown(eventmodel.PlanSourceOpenCode, md)
	if len(state.Steps) != 0 {
		t.Fatalf("steps = %d, want 0", len(state.Steps))
	}
	if state.RawMarkdown != md {
		t.Fatalf("rawMarkdown = %q", state.RawMarkdown)
	}
}

func TestInferComplexity(t *testing.T) {
	cases := map[string]eventmodel.Complexity{
		"refactor the auth module":     eventmodel.ComplexityHigh,
		"fix typo in readme":           eventmodel.ComplexityLow,
		"[high] redesign the pipeline": eventmodel.ComplexityHigh,
		"(simple) bump version":        eventmodel.ComplexityLow,
		"write a new widget":           "",
	}
	for text, want := range cases {
		if got := inferComplexity(text); got != want {
			t.Errorf("inferComplexity(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel("**Status**: done"); got != "Status: done" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeLabel("plain text"); got != "plain text" {
		t.Fatalf("got %q", got)
	}
}
