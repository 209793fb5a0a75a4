package aggregator

import "agentlens/internal/eventmodel"

// GetMetrics returns the full on-demand snapshot (spec §6).
func (a *Aggregator) GetMetrics() eventmodel.AggregatedMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	models := make([]eventmodel.ModelUsage, 0, len(a.modelUsage))
	for _, m := range a.modelUsage {
		models = append(models, *m)
	}

	tools := make([]eventmodel.ToolAnalytics, 0, len(a.toolAnalytics))
	for _, t := range a.toolAnalytics {
		tools = append(tools, *t)
	}

	tasksCopy := make(map[string]eventmodel.TrackedTask, len(a.tasks))
	for k, v := range a.tasks {
		tasksCopy[k] = v
	}

	subagents := make([]eventmodel.SubagentLifecycle, 0, len(a.subagents))
	for _, s := range a.subagents {
		subagents = append(subagents, s)
	}

	var planCopy *eventmodel.PlanState
	if a.plan != nil {
		p := *a.plan
		planCopy = &p
	}

	latency := &eventmodel.LatencyStats{Records: append([]eventmodel.ResponseLatency(nil), a.latencyRecords...)}
	latency.AvgFirstTokenLatencyMs, latency.AvgTotalResponseTimeMs = averageLatency(latency.Records)

	return eventmodel.AggregatedMetrics{
		SessionStartTimeMS: a.sessionStartTimeMS,
		LastEventTimeMS:    a.lastEventTimeMS,
		EventCount:         a.eventCount,
		MessageCount:       a.messageCount,
		CurrentModel:       a.currentModel,
		ProviderID:         a.cfg.ProviderID,

		Tokens:             a.tokens,
		ModelUsage:         models,
		CurrentContextSize: a.currentContextSize,
		Attribution:        a.attribution,
		CompactionCount:    int64(len(a.compactions)),
		Compactions:        append([]eventmodel.CompactionEvent(nil), a.compactions...),
		TruncationCount:    int64(len(a.truncations)),
		Truncations:        append([]eventmodel.TruncationEvent(nil), a.truncations...),
		Tools:              tools,
		BurnRate:           a.burnRateInfo(),
		Tasks:              eventmodel.TaskState{Tasks: tasksCopy, ActiveTaskID: a.activeTaskID},
		Subagents:          subagents,
		Plan:               planCopy,
		Timeline:           append([]eventmodel.TimelineEvent(nil), a.timeline...),
		Latency:            latency,
		Notes:              append([]eventmodel.SummaryNote(nil), a.summaries...),
	}
}

func averageLatency(records []eventmodel.ResponseLatency) (avgFirstToken, avgTotal int64) {
	if len(records) == 0 {
		return 0, 0
	}
	var sumFirst, sumTotal int64
	for _, r := range records {
		sumFirst += r.FirstTokenLatencyMs
		sumTotal += r.TotalResponseTimeMs
	}
	n := int64(len(records))
	return sumFirst / n, sumTotal / n
}
