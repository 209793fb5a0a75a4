package aggregator

import "agentlens/internal/eventmodel"

// SchemaVersion is the current SerializedState schema (spec §4.4.11). A
// restore() against a state carrying any other version is a no-op.
const SchemaVersion = 1

// SerializedState is the durable subset of aggregator state a snapshot
// carries. Transient state (pending tool calls, pending task creates,
// pending subagents, the pending user request, and the plan extractor's
// in-flight buffers) is never included and is always cleared on restore,
// even when restore succeeds (spec §4.4.11).
type SerializedState struct {
	SchemaVersion int `json:"schemaVersion"`

	EventCount         int64  `json:"eventCount"`
	MessageCount       int64  `json:"messageCount"`
	SessionStartTimeMS int64  `json:"sessionStartTimeMs"`
	LastEventTimeMS    int64  `json:"lastEventTimeMs"`
	CurrentModel       string `json:"currentModel"`

	Tokens              eventmodel.TokenTotals            `json:"tokens"`
	ModelUsage          map[string]eventmodel.ModelUsage  `json:"modelUsage"`
	CurrentContextSize  int64                              `json:"currentContextSize"`
	PreviousContextSize int64                              `json:"previousContextSize"`
	Compactions         []eventmodel.CompactionEvent       `json:"compactions"`
	Summaries           []eventmodel.SummaryNote           `json:"summaries"`

	ToolAnalytics map[string]eventmodel.ToolAnalytics `json:"toolAnalytics"`

	Tasks        map[string]eventmodel.TrackedTask `json:"tasks"`
	ActiveTaskID string                              `json:"activeTaskId"`

	Subagents map[string]eventmodel.SubagentLifecycle `json:"subagents"`

	Attribution eventmodel.ContextAttribution `json:"attribution"`
	Truncations []eventmodel.TruncationEvent  `json:"truncations"`
	Timeline    []eventmodel.TimelineEvent    `json:"timeline"`

	BurnSamples           []eventmodel.BurnSample `json:"burnSamples"`
	LastBurnSampleTimeMS  int64                    `json:"lastBurnSampleTimeMs"`
	TokensSinceLastSample int64                    `json:"tokensSinceLastSample"`

	LatencyRecords []eventmodel.ResponseLatency `json:"latencyRecords"`

	Plan *eventmodel.PlanState `json:"plan,omitempty"`
}

// Serialize captures durable state for persistence (spec §4.4.11).
func (a *Aggregator) Serialize() SerializedState {
	a.mu.Lock()
	defer a.mu.Unlock()

	modelUsage := make(map[string]eventmodel.ModelUsage, len(a.modelUsage))
	for k, v := range a.modelUsage {
		modelUsage[k] = *v
	}
	toolAnalytics := make(map[string]eventmodel.ToolAnalytics, len(a.toolAnalytics))
	for k, v := range a.toolAnalytics {
		toolAnalytics[k] = *v
	}
	tasks := make(map[string]eventmodel.TrackedTask, len(a.tasks))
	for k, v := range a.tasks {
		tasks[k] = v
	}
	subagents := make(map[string]eventmodel.SubagentLifecycle, len(a.subagents))
	for k, v := range a.subagents {
		subagents[k] = v
	}

	var plan *eventmodel.PlanState
	if a.plan != nil {
		p := *a.plan
		plan = &p
	}

	return SerializedState{
		SchemaVersion:         SchemaVersion,
		EventCount:            a.eventCount,
		MessageCount:          a.messageCount,
		SessionStartTimeMS:    a.sessionStartTimeMS,
		LastEventTimeMS:       a.lastEventTimeMS,
		CurrentModel:          a.currentModel,
		Tokens:                a.tokens,
		ModelUsage:            modelUsage,
		CurrentContextSize:    a.currentContextSize,
		PreviousContextSize:   a.previousContextSize,
		Compactions:           append([]eventmodel.CompactionEvent(nil), a.compactions...),
		Summaries:             append([]eventmodel.SummaryNote(nil), a.summaries...),
		ToolAnalytics:         toolAnalytics,
		Tasks:                 tasks,
		ActiveTaskID:          a.activeTaskID,
		Subagents:             subagents,
		Attribution:           a.attribution,
		Truncations:           append([]eventmodel.TruncationEvent(nil), a.truncations...),
		Timeline:              append([]eventmodel.TimelineEvent(nil), a.timeline...),
		BurnSamples:           append([]eventmodel.BurnSample(nil), a.burnSamples...),
		LastBurnSampleTimeMS:  a.lastBurnSampleTimeMS,
		TokensSinceLastSample: a.tokensSinceLastSample,
		LatencyRecords:        append([]eventmodel.ResponseLatency(nil), a.latencyRecords...),
		Plan:                  plan,
	}
}

// Restore replaces durable state from state and always clears transient
// state, even when the schema version doesn't match and restore is
// otherwise a no-op (spec §4.4.11). Returns false when the version
// mismatched and the caller must fall back to full replay.
func (a *Aggregator) Restore(state SerializedState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pendingToolCalls = make(map[string]eventmodel.PendingToolCall)
	a.pendingTaskCreates = make(map[string]pendingTaskCreate)
	a.pendingSubagents = make(map[string]struct{})
	a.pendingUserRequest = nil
	if a.planExtractor != nil {
		a.planExtractor.Reset()
	}

	if state.SchemaVersion != SchemaVersion {
		return false
	}

	a.eventCount = state.EventCount
	a.messageCount = state.MessageCount
	a.sessionStartTimeMS = state.SessionStartTimeMS
	a.lastEventTimeMS = state.LastEventTimeMS
	a.currentModel = state.CurrentModel

	a.tokens = state.Tokens
	a.modelUsage = make(map[string]*eventmodel.ModelUsage, len(state.ModelUsage))
	for k, v := range state.ModelUsage {
		mu := v
		a.modelUsage[k] = &mu
	}
	a.currentContextSize = state.CurrentContextSize
	a.previousContextSize = state.PreviousContextSize
	a.compactions = append([]eventmodel.CompactionEvent(nil), state.Compactions...)
	a.summaries = append([]eventmodel.SummaryNote(nil), state.Summaries...)

	a.toolAnalytics = make(map[string]*eventmodel.ToolAnalytics, len(state.ToolAnalytics))
	for k, v := range state.ToolAnalytics {
		row := v
		a.toolAnalytics[k] = &row
	}

	a.tasks = make(map[string]eventmodel.TrackedTask, len(state.Tasks))
	for k, v := range state.Tasks {
		a.tasks[k] = v
	}
	a.activeTaskID = state.ActiveTaskID

	a.subagents = make(map[string]eventmodel.SubagentLifecycle, len(state.Subagents))
	for k, v := range state.Subagents {
		a.subagents[k] = v
	}

	a.attribution = state.Attribution
	a.truncations = append([]eventmodel.TruncationEvent(nil), state.Truncations...)
	a.timeline = append([]eventmodel.TimelineEvent(nil), state.Timeline...)

	a.burnSamples = append([]eventmodel.BurnSample(nil), state.BurnSamples...)
	a.lastBurnSampleTimeMS = state.LastBurnSampleTimeMS
	a.tokensSinceLastSample = state.TokensSinceLastSample

	a.latencyRecords = append([]eventmodel.ResponseLatency(nil), state.LatencyRecords...)

	if state.Plan != nil {
		p := *state.Plan
		a.plan = &p
	} else {
		a.plan = nil
	}

	return true
}
