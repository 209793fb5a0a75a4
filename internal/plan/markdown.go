// Package plan implements the stateful plan extractor (spec §4.5): a
// provider-dispatched state machine that watches the FollowEvent stream
// for each coding agent's plan convention and maintains at most one
// current eventmodel.PlanState.
package plan

import (
	"regexp"
	"strconv"
	"strings"

	"agentlens/internal/eventmodel"
)

var (
	checkboxRe   = regexp.MustCompile(`^[-*]\s+\[([ xX])\]\s*(.+)$`)
	numberedRe   = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
	bulletRe     = regexp.MustCompile(`^[-*]\s+(.+)$`)
	phaseHeadRe  = regexp.MustCompile(`(?i)^#{1,6}\s*phase\s+(\d+)\s*:\s*(.+)$`)
	titleHeadRe  = regexp.MustCompile(`^#{1,2}\s+(.+)$`)
	boldLabelRe  = regexp.MustCompile(`^\*\*([^*]+)\*\*:\s*(.*)$`)
	bracketTagRe = regexp.MustCompile(`\[(high|medium|low)\]`)
	parenTagRe   = regexp.MustCompile(`\((simple|complex)\)`)
)

var highComplexityWords = []string{"refactor", "migrate", "rewrite", "redesign", "overhaul", "rearchitect"}
var lowComplexityWords = []string{"update", "fix", "tweak", "rename", "adjust", "bump", "typo"}

// ParseMarkdown parses a plan body per spec §4.5's markdown parser rules.
// It never fails: markdown with no parsable steps yields a PlanState with
// zero Steps and the original RawMarkdown preserved (spec §7).
func ParseMarkdown(source eventmodel.PlanSource, markdown string) *eventmodel.PlanState {
	state := &eventmodel.PlanState{
		Active:      true,
		Source:      source,
		RawMarkdown: markdown,
	}

	lines := strings.Split(markdown, "\n")
	currentPhase := ""
	stepNum := 0

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := phaseHeadRe.FindStringSubmatch(line); m != nil {
			currentPhase = strings.TrimSpace(m[2])
			continue
		}
		if m := titleHeadRe.FindStringSubmatch(line); m != nil {
			if state.Title == "" {
				state.Title = normalizeLabel(strings.TrimSpace(m[1]))
			}
			continue
		}

		var text string
		status := eventmodel.StepPending
		switch {
		case checkboxRe.MatchString(line):
			m := checkboxRe.FindStringSubmatch(line)
			text = m[2]
			if strings.EqualFold(m[1], "x") {
				status = eventmodel.StepCompleted
			}
		case numberedRe.MatchString(line):
			text = numberedRe.FindStringSubmatch(line)[1]
		case bulletRe.MatchString(line):
			text = bulletRe.FindStringSubmatch(line)[1]
		default:
			continue
		}

		text = normalizeLabel(strings.TrimSpace(text))
		if len([]rune(text)) <= 3 {
			continue
		}

		stepNum++
		state.Steps = append(state.Steps, eventmodel.PlanStep{
			ID:          strconv.Itoa(stepNum),
			Description: text,
			Status:      status,
			Phase:       currentPhase,
			Complexity:  inferComplexity(text),
		})
	}

	state.Recompute()
	return state
}

// normalizeLabel rewrites "**Label**: text" into "Label: text" (spec
// §4.5).
func normalizeLabel(s string) string {
	if m := boldLabelRe.FindStringSubmatch(s); m != nil {
		if m[2] == "" {
			return m[1] + ":"
		}
		return m[1] + ": " + m[2]
	}
	return s
}

func inferComplexity(text string) eventmodel.Complexity {
	if m := bracketTagRe.FindStringSubmatch(text); m != nil {
		return eventmodel.Complexity(strings.ToLower(m[1]))
	}
	if m := parenTagRe.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "simple") {
			return eventmodel.ComplexityLow
		}
		return eventmodel.ComplexityHigh
	}
	lower := strings.ToLower(text)
	for _, w := range highComplexityWords {
		if strings.Contains(lower, w) {
			return eventmodel.ComplexityHigh
		}
	}
	for _, w := range lowComplexityWords {
		if strings.Contains(lower, w) {
			return eventmodel.ComplexityLow
		}
	}
	return ""
}
