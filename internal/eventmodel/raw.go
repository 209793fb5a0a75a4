// Package eventmodel defines the canonical types that flow through the
// agentlens ingestion pipeline: RawEvent (provider-specific, opaque) ->
// SessionEvent (canonical, normalized) -> FollowEvent (lossy UI summary).
//
// These types are pure data; nothing in this package reaches into a file,
// a database, or a clock. That keeps normalization and aggregation
// trivially unit-testable against literal event sequences, per spec §8.
package eventmodel

import "encoding/json"

// RawEvent is an opaque, provider-specific JSON object: one per JSONL line
// or per database row. It is immutable after creation — normalization
// reads from it but never mutates it in place.
type RawEvent struct {
	ProviderID string
	Data       json.RawMessage
}

// Get returns the value of a top-level field in its generic decoded form
// (any), or (nil, false) if the raw payload isn't a JSON object or the
// field is absent. Used by
// provider-specific normalizers that need to peek at fields the canonical
// SessionEvent doesn't model (e.g. a provider-private envelope wrapper).
func (r RawEvent) Get(field string) (any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(r.Data, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[field]
	return v, ok
}
