package aggregator

import "agentlens/internal/eventmodel"

// trackLatency implements spec §4.4.1: a user event with text starts
// tracking; an assistant event while tracking records first-token
// latency on its first text, then total response time once usage arrives
// (signaling the turn is complete).
func (a *Aggregator) trackLatency(e eventmodel.SessionEvent, ts int64) {
	switch e.Type {
	case eventmodel.EventUser:
		if e.HasText() {
			a.pendingUserRequest = &pendingUserRequest{timestampMS: ts}
		}
	case eventmodel.EventAssistant:
		if a.pendingUserRequest == nil {
			return
		}
		p := a.pendingUserRequest
		if !p.firstResponseReceived && e.HasText() {
			p.firstResponseReceived = true
			p.firstResponseTimeMS = ts
			p.firstTokenLatencyMs = ts - p.timestampMS
		}
		if p.firstResponseReceived && e.Message != nil && e.Message.Usage != nil {
			record := eventmodel.ResponseLatency{
				FirstTokenLatencyMs: p.firstTokenLatencyMs,
				TotalResponseTimeMs: ts - p.timestampMS,
				RequestTimestamp:    p.timestampMS,
			}
			a.latencyRecords = append(a.latencyRecords, record)
			if len(a.latencyRecords) > a.cfg.LatencyCap {
				a.latencyRecords = a.latencyRecords[len(a.latencyRecords)-a.cfg.LatencyCap:]
			}
			a.pendingUserRequest = nil
		}
	}
}
