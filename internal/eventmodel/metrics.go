package eventmodel

// BurnRateInfo is the current sliding-window burn-rate reading (spec §4.4.9).
type BurnRateInfo struct {
	TokensPerMinute int64
	Samples         []BurnSample
}

// LatencyStats summarizes the capped FIFO of ResponseLatency records.
type LatencyStats struct {
	Records []ResponseLatency
	// AvgFirstTokenLatencyMs / AvgTotalResponseTimeMs are derived
	// convenience fields, recomputed on each getMetrics() call.
	AvgFirstTokenLatencyMs int64
	AvgTotalResponseTimeMs int64
}

// TaskState is the task-lifecycle view exposed by getMetrics().
type TaskState struct {
	Tasks        map[string]TrackedTask
	ActiveTaskID string
}

// AggregatedMetrics is the full on-demand snapshot returned by
// Aggregator.GetMetrics() (spec §6).
type AggregatedMetrics struct {
	SessionStartTimeMS int64
	LastEventTimeMS    int64
	EventCount         int64
	MessageCount       int64
	CurrentModel       string
	ProviderID         string

	Tokens               TokenTotals
	ModelUsage           []ModelUsage
	CurrentContextSize   int64
	Attribution          ContextAttribution
	CompactionCount      int64
	Compactions          []CompactionEvent
	TruncationCount      int64
	Truncations          []TruncationEvent
	Tools                []ToolAnalytics
	BurnRate             BurnRateInfo
	Tasks                TaskState
	Subagents            []SubagentLifecycle
	Plan                 *PlanState
	Timeline             []TimelineEvent
	Latency              *LatencyStats
	Notes                []SummaryNote
}
