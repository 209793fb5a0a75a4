package aggregator

import "agentlens/internal/eventmodel"

// accumulateTokens implements spec §4.4.2: update totals, compute context
// size, detect compaction via the >20%-drop heuristic, update per-model
// usage, and sample the burn rate.
func (a *Aggregator) accumulateTokens(u eventmodel.Usage, model string, ts int64) {
	a.tokens.Add(u)

	var contextSize int64
	if a.cfg.ComputeContextSize != nil {
		contextSize = a.cfg.ComputeContextSize(u)
	} else {
		contextSize = int64(u.InputTokens) + int64(u.CacheCreationInputTokens) + int64(u.CacheReadInputTokens)
	}

	if a.previousContextSize > 0 && float64(contextSize) < float64(a.previousContextSize)*a.cfg.CompactionDropRatio {
		a.compactions = append(a.compactions, eventmodel.CompactionEvent{
			TimestampMS:     ts,
			ContextBefore:   a.previousContextSize,
			ContextAfter:    contextSize,
			TokensReclaimed: a.previousContextSize - contextSize,
		})
	}
	a.previousContextSize = contextSize
	a.currentContextSize = contextSize

	key := model
	if key == "" {
		key = a.currentModel
	}
	if key == "" {
		key = "unknown"
	}
	mu, ok := a.modelUsage[key]
	if !ok {
		mu = &eventmodel.ModelUsage{Model: key}
		a.modelUsage[key] = mu
	}
	mu.Add(u)

	a.sampleBurnRate(u, ts)
}
