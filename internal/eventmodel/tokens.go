package eventmodel

// TokenTotals is the cumulative token accounting for a session. Every
// field is monotonically non-decreasing over the session's life (spec §8).
type TokenTotals struct {
	Input        int64
	Output       int64
	CacheWrite   int64
	CacheRead    int64
	ReportedCost float64
}

// Add accumulates u into t in place.
func (t *TokenTotals) Add(u Usage) {
	t.Input += int64(u.InputTokens)
	t.Output += int64(u.OutputTokens)
	t.CacheWrite += int64(u.CacheCreationInputTokens)
	t.CacheRead += int64(u.CacheReadInputTokens)
	t.ReportedCost += u.ReportedCost
}

// ModelUsage is the per-model accumulator (spec §3).
type ModelUsage struct {
	Model            string
	Calls            int64
	Tokens           int64
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	Cost             float64
}

// Add folds usage from one turn on this model into the accumulator.
func (m *ModelUsage) Add(u Usage) {
	m.Calls++
	m.InputTokens += int64(u.InputTokens)
	m.OutputTokens += int64(u.OutputTokens)
	m.CacheWriteTokens += int64(u.CacheCreationInputTokens)
	m.CacheReadTokens += int64(u.CacheReadInputTokens)
	m.Tokens += int64(u.InputTokens) + int64(u.OutputTokens) + int64(u.CacheCreationInputTokens) + int64(u.CacheReadInputTokens)
	m.Cost += u.ReportedCost
}

// BurnSample is one point on the tokens/minute sliding-window series.
type BurnSample struct {
	TimeMS          int64
	TokensPerMinute int64
}

// ResponseLatency records one completed assistant turn's latency.
type ResponseLatency struct {
	FirstTokenLatencyMs int64
	TotalResponseTimeMs int64
	RequestTimestamp    int64
}

// CompactionEvent records a context-reducing event, whether explicit
// (summary event) or heuristically detected (>20% token drop).
type CompactionEvent struct {
	TimestampMS     int64
	ContextBefore   int64
	ContextAfter    int64
	TokensReclaimed int64
}

// TruncationEvent records that a tool's output was clipped before the
// model saw it.
type TruncationEvent struct {
	TimestampMS int64
	ToolName    string
	Marker      string
}

// SummaryNote carries a `summary` event's raw text forward so the
// cross-session store sync (SPEC_FULL §6) can decide whether it is
// substantial enough to keep as a knowledge note.
type SummaryNote struct {
	TimestampMS int64
	Text        string
}
