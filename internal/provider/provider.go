// Package provider defines the SessionProvider contract (spec §4.1) that
// encapsulates the on-disk layout of one coding-agent CLI, and the
// supporting SearchHit / SessionFileStats value types shared by every
// concrete provider.
package provider

import (
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/reader"
)

// SessionFileStats is the one-shot, aggregator-independent summary
// readSessionStats returns (spec §4.1).
type SessionFileStats struct {
	SizeBytes    int64
	ModTime      time.Time
	LineCount    int
	FirstEventAt time.Time
	LastEventAt  time.Time
}

// SearchHit is one match from searchInSession (spec §4.1): a substring
// scan returning a snippet with up to +/-40 chars of surrounding context.
type SearchHit struct {
	LineNumber int
	Snippet    string
	MatchStart int
}

// SessionProvider encapsulates the on-disk layout of one coding-agent CLI
// (spec §4.1). All discovery/search operations return empty results on
// I/O failure and never return an error for those cases — errors are
// reserved for programmer-facing contract violations, not missing files.
type SessionProvider interface {
	ID() string

	// GetSessionDirectory returns the directory this provider expects to
	// find session files for workspacePath, purely by the provider's
	// encoding rule (no I/O).
	GetSessionDirectory(workspacePath string) string

	// DiscoverSessionDirectory tries the computed path, then a directory
	// scan matching by prefix/basename/case-insensitivity, then a
	// temp-directory fallback. Returns "" when nothing is found.
	DiscoverSessionDirectory(workspacePath string) string

	// FindActiveSession prefers a session whose backing file mtime is
	// within the active window, then the most recent mtime, skipping
	// empty files. Returns "" when no session qualifies.
	FindActiveSession(workspacePath string) string

	// FindAllSessions returns every session path for workspacePath,
	// newest first.
	FindAllSessions(workspacePath string) []string

	// CreateReader returns an incremental reader over sessionPath.
	CreateReader(sessionPath string) (reader.Reader, error)

	// ReadSessionStats computes one-shot stats for sessionPath,
	// independent of any live aggregator.
	ReadSessionStats(sessionPath string) (SessionFileStats, error)

	// SearchInSession performs a substring scan of sessionPath, returning
	// up to maxResults hits.
	SearchInSession(sessionPath, query string, maxResults int) []SearchHit

	// ExtractSessionLabel returns the first non-empty user-message text,
	// truncated to 60 chars, or "" if none is found.
	ExtractSessionLabel(sessionPath string) string
}

// ContextSizer is an optional capability: a provider that can compute a
// more precise context size than the default input+cacheWrite+cacheRead
// formula (spec §4.4.2).
type ContextSizer interface {
	ComputeContextSize(u eventmodel.Usage) int64
}

// ContextAttributor is an optional capability: a provider with
// provider-native per-message token fields it can use to override the
// ceil(len/4) attribution estimate (spec §4.4.6).
type ContextAttributor interface {
	GetContextAttribution(sessionPath string) (eventmodel.ContextAttribution, bool)
}

// ContextWindowLimiter is an optional capability exposing a model's
// context window size (spec §4.1).
type ContextWindowLimiter interface {
	GetContextWindowLimit(modelID string) (int64, bool)
}

// UsageSnapshotter is an optional capability exposing the provider's own
// current usage snapshot, used to seed/refine aggregator state (spec
// §4.1).
type UsageSnapshotter interface {
	GetCurrentUsageSnapshot(sessionPath string) (eventmodel.TokenTotals, bool)
}
