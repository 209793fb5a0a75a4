// Package aggregator implements the stateful engine that consumes
// SessionEvents in emission order and maintains every piece of aggregate
// state a session view needs: token totals, tool analytics, task and
// subagent lifecycles, context attribution, truncation/compaction
// history, a capped timeline, burn rate, and response latency (spec
// §4.4). A session owns exactly one Aggregator and there is a single
// writer to it, matching the concurrency model in spec §5.
package aggregator

import (
	"strings"
	"sync"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/logging"
	"agentlens/internal/normalize"
)

// ComputeContextSizeFunc overrides the default input+cacheWrite+cacheRead
// context-size formula with a provider-native computation (spec §4.4.2).
type ComputeContextSizeFunc func(eventmodel.Usage) int64

// ReadPlanFileFunc has the shape of the plan extractor's disk-read
// fallback (spec §4.5, §6). Config.ReadPlanFile is not read by the
// aggregator; the plan extractor receives its own callback via plan.New.
type ReadPlanFileFunc func(path string) (string, bool)

// PlanExtractor is the interface the plan package's extractor satisfies.
// Accepting the interface here (rather than importing internal/plan
// directly) keeps the aggregator the dependency root of the pipeline,
// matching spec §4.4 step 8's "delegated to §4.5" framing without an
// import cycle.
type PlanExtractor interface {
	ProcessFollowEvent(fe eventmodel.FollowEvent) *eventmodel.PlanState
	Reset()
}

// Config carries the aggregator tunables from spec §6. Construct one from
// config.EngineConfig at the call site (kept separate from EngineConfig
// itself since ComputeContextSize/ReadPlanFile are callbacks, not
// viper-serializable values).
type Config struct {
	TimelineCap         int
	LatencyCap          int
	BurnWindow          time.Duration
	BurnSample          time.Duration
	ProviderID          string
	CompactionDropRatio float64
	ComputeContextSize  ComputeContextSizeFunc
	ReadPlanFile        ReadPlanFileFunc

	// PreciseTokenEstimate routes context-attribution counting (spec
	// §4.4.6) through tokenutil.CountTokens's real cl100k_base encoding
	// instead of the default EstimateFast heuristic (SPEC_FULL §4.4.12).
	PreciseTokenEstimate bool
}

// DefaultConfig returns the spec §6 documented defaults.
func DefaultConfig() Config {
	return Config{
		TimelineCap:         200,
		LatencyCap:          100,
		BurnWindow:          5 * time.Minute,
		BurnSample:          10 * time.Second,
		CompactionDropRatio: 0.8,
	}
}

type pendingUserRequest struct {
	timestampMS          int64
	firstResponseReceived bool
	firstResponseTimeMS  int64
	firstTokenLatencyMs  int64
}

type pendingTaskCreate struct {
	subject      string
	description  string
	activeForm   string
	subagentType string
	isGoalGate   bool
}

// Aggregator is the per-session state engine (spec §4.4).
type Aggregator struct {
	mu     sync.Mutex
	cfg    Config
	logger logging.Logger

	planExtractor PlanExtractor
	plan          *eventmodel.PlanState

	// Counters (spec §4.4 step 1).
	eventCount         int64
	messageCount       int64
	sessionStartTimeMS int64
	lastEventTimeMS    int64
	currentModel       string

	// Tokens (§4.4.2).
	tokens               eventmodel.TokenTotals
	modelUsage           map[string]*eventmodel.ModelUsage
	currentContextSize   int64
	previousContextSize  int64
	compactions          []eventmodel.CompactionEvent
	summaries            []eventmodel.SummaryNote

	// Tools (§4.4.3).
	toolAnalytics    map[string]*eventmodel.ToolAnalytics
	pendingToolCalls map[string]eventmodel.PendingToolCall

	// Tasks (§4.4.4).
	tasks              map[string]eventmodel.TrackedTask
	activeTaskID       string
	pendingTaskCreates map[string]pendingTaskCreate

	// Subagents (§4.4.5).
	subagents        map[string]eventmodel.SubagentLifecycle
	pendingSubagents map[string]struct{}

	// Context attribution (§4.4.6).
	attribution eventmodel.ContextAttribution

	// Truncation (§4.4.7).
	truncations []eventmodel.TruncationEvent

	// Timeline (§4.4.8).
	timeline []eventmodel.TimelineEvent

	// Burn rate (§4.4.9).
	burnSamples           []eventmodel.BurnSample
	lastBurnSampleTimeMS  int64
	tokensSinceLastSample int64

	// Latency (§4.4.1).
	pendingUserRequest *pendingUserRequest
	latencyRecords     []eventmodel.ResponseLatency
}

// New constructs an Aggregator. planExtractor may be nil: plan extraction
// is then simply skipped.
func New(cfg Config, logger logging.Logger, planExtractor PlanExtractor) *Aggregator {
	if cfg.TimelineCap <= 0 {
		cfg.TimelineCap = 200
	}
	if cfg.LatencyCap <= 0 {
		cfg.LatencyCap = 100
	}
	if cfg.BurnWindow <= 0 {
		cfg.BurnWindow = 5 * time.Minute
	}
	if cfg.BurnSample <= 0 {
		cfg.BurnSample = 10 * time.Second
	}
	if cfg.CompactionDropRatio <= 0 {
		cfg.CompactionDropRatio = 0.8
	}
	a := &Aggregator{cfg: cfg, logger: logging.OrNop(logger), planExtractor: planExtractor}
	a.resetLocked()
	return a
}

// ProcessSessionEvent is the canonical entry point (spec §4.4).
func (a *Aggregator) ProcessSessionEvent(e eventmodel.SessionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processLocked(e)
}

// ProcessFollowEvent is a thin adapter for paths where the upstream only
// produced FollowEvents (spec §4.4): it reconstructs the minimal
// SessionEvent fields a FollowEvent still carries and delegates. This is
// necessarily lossy (a FollowEvent's content blocks are already
// flattened into a summary string), so prefer ProcessSessionEvent when
// the canonical event is available.
func (a *Aggregator) ProcessFollowEvent(fe eventmodel.FollowEvent) {
	e := eventmodel.SessionEvent{
		Type:       fe.Type,
		Timestamp:  fe.Timestamp,
		ProviderID: fe.ProviderID,
	}
	switch fe.Type {
	case eventmodel.EventToolUse:
		e.Tool = &eventmodel.ToolInfo{Name: fe.ToolName}
	case eventmodel.EventToolResult:
		e.Result = &eventmodel.ResultInfo{Output: []byte(fe.Summary)}
	case eventmodel.EventAssistant, eventmodel.EventUser:
		e.Message = &eventmodel.MessageInfo{Model: fe.Model, Text: fe.Summary}
		if fe.Tokens > 0 || fe.CacheTokens > 0 {
			e.Message.Usage = &eventmodel.Usage{InputTokens: fe.Tokens, ReportedCost: fe.Cost}
		}
	case eventmodel.EventSummary, eventmodel.EventSystem:
		e.Summary = fe.Summary
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processLocked(e)
}

func nowMS(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (a *Aggregator) processLocked(e eventmodel.SessionEvent) {
	ts := nowMS(e.Timestamp)

	// 1. Counters.
	a.eventCount++
	if ts != 0 && a.sessionStartTimeMS == 0 {
		a.sessionStartTimeMS = ts
	}
	if ts != 0 {
		a.lastEventTimeMS = ts
	}
	if !isPureUsageTick(e) && e.Type != eventmodel.EventSystem {
		a.messageCount++
	}

	// 2. Model tracking.
	if e.Message != nil && e.Message.Model != "" {
		a.currentModel = e.Message.Model
	}

	// 3. Latency.
	a.trackLatency(e, ts)

	// 4. Token accumulation + compaction.
	if e.Message != nil && e.Message.Usage != nil {
		a.accumulateTokens(*e.Message.Usage, e.Message.Model, ts)
	}

	// 5. Tool-call extraction.
	resolvedToolName := a.trackTool(e, ts)

	// 6. Task-state extraction.
	a.trackTask(e)

	// 7. Subagent tracking.
	a.trackSubagent(e, ts)

	// 8. Plan extraction (delegated).
	if a.planExtractor != nil {
		fe := normalize.ToFollowEvent(e)
		if plan := a.planExtractor.ProcessFollowEvent(fe); plan != nil {
			a.plan = plan
		}
	}

	// 9. Context attribution.
	a.attributeContext(e)

	// 10. Truncation detection.
	a.detectTruncation(e, ts, resolvedToolName)

	// 11. Timeline.
	a.appendTimeline(e, ts)

	// 12. Explicit compaction on summary events.
	if e.Type == eventmodel.EventSummary {
		a.compactions = append(a.compactions, eventmodel.CompactionEvent{
			TimestampMS:   ts,
			ContextBefore: a.previousContextSize,
			ContextAfter:  0,
		})
		a.previousContextSize = 0
		a.currentContextSize = 0
		if e.Summary != "" {
			a.summaries = append(a.summaries, eventmodel.SummaryNote{TimestampMS: ts, Text: e.Summary})
		}
	}
}

// isPureUsageTick reports whether e is a synthetic usage-only heartbeat
// (message id prefixed token-count-) that should not count toward
// messageCount (spec §4.4 step 1).
func isPureUsageTick(e eventmodel.SessionEvent) bool {
	return e.Message != nil && strings.HasPrefix(e.Message.ID, "token-count-")
}

// Reset clears all durable and transient state, including the plan
// extractor's in-flight buffers (spec §4.4.10).
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Aggregator) resetLocked() {
	a.eventCount = 0
	a.messageCount = 0
	a.sessionStartTimeMS = 0
	a.lastEventTimeMS = 0
	a.currentModel = ""

	a.tokens = eventmodel.TokenTotals{}
	a.modelUsage = make(map[string]*eventmodel.ModelUsage)
	a.currentContextSize = 0
	a.previousContextSize = 0
	a.compactions = nil
	a.summaries = nil

	a.toolAnalytics = make(map[string]*eventmodel.ToolAnalytics)
	a.pendingToolCalls = make(map[string]eventmodel.PendingToolCall)

	a.tasks = make(map[string]eventmodel.TrackedTask)
	a.activeTaskID = ""
	a.pendingTaskCreates = make(map[string]pendingTaskCreate)

	a.subagents = make(map[string]eventmodel.SubagentLifecycle)
	a.pendingSubagents = make(map[string]struct{})

	a.attribution = eventmodel.ContextAttribution{}
	a.truncations = nil
	a.timeline = nil

	a.burnSamples = nil
	a.lastBurnSampleTimeMS = 0
	a.tokensSinceLastSample = 0

	a.pendingUserRequest = nil
	a.latencyRecords = nil

	a.plan = nil
	if a.planExtractor != nil {
		a.planExtractor.Reset()
	}
}

// SeedContextSize sets both current and previous context size, used when
// attaching to a running session to avoid a spurious first-event
// compaction (spec §4.4.10).
func (a *Aggregator) SeedContextSize(n int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentContextSize = n
	a.previousContextSize = n
}

// SeedContextAttribution replaces the attribution totals wholesale (spec
// §4.4.10).
func (a *Aggregator) SeedContextAttribution(attr eventmodel.ContextAttribution) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attribution = attr
}
