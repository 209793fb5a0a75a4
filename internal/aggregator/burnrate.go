package aggregator

import "agentlens/internal/eventmodel"

// sampleBurnRate implements spec §4.4.9's sliding-window burn rate.
func (a *Aggregator) sampleBurnRate(u eventmodel.Usage, ts int64) {
	a.tokensSinceLastSample += int64(u.InputTokens) + int64(u.OutputTokens)

	if a.lastBurnSampleTimeMS == 0 {
		a.lastBurnSampleTimeMS = ts
		return
	}

	elapsedMS := ts - a.lastBurnSampleTimeMS
	if elapsedMS < a.cfg.BurnSample.Milliseconds() {
		return
	}
	// Clamp the denominator to a 1-minute minimum to avoid division noise
	// on a single fast-arriving event (spec §4.4.9).
	denomMS := elapsedMS
	if denomMS < 60_000 {
		denomMS = 60_000
	}

	tokensPerMinute := int64(float64(a.tokensSinceLastSample) / float64(denomMS) * 60_000)
	a.burnSamples = append(a.burnSamples, eventmodel.BurnSample{TimeMS: ts, TokensPerMinute: tokensPerMinute})
	a.tokensSinceLastSample = 0
	a.lastBurnSampleTimeMS = ts

	cutoff := ts - a.cfg.BurnWindow.Milliseconds()
	kept := a.burnSamples[:0]
	for _, s := range a.burnSamples {
		if s.TimeMS >= cutoff {
			kept = append(kept, s)
		}
	}
	a.burnSamples = kept
}

func (a *Aggregator) burnRateInfo() eventmodel.BurnRateInfo {
	info := eventmodel.BurnRateInfo{Samples: append([]eventmodel.BurnSample(nil), a.burnSamples...)}
	if len(a.burnSamples) > 0 {
		info.TokensPerMinute = a.burnSamples[len(a.burnSamples)-1].TokensPerMinute
	}
	return info
}
