// Package activity classifies a session file as ongoing, ended, or stale
// purely from the tail of its bytes and its mtime (spec §4.7), without
// reading or parsing the full file.
package activity

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"
)

// State is the coarse activity classification.
type State string

const (
	StateOngoing State = "ongoing"
	StateEnded   State = "ended"
	StateStale   State = "stale"
)

// Status is the detector's verdict, with a reason explaining which rule
// in spec §4.7 fired.
type Status struct {
	State  State
	Reason string
}

const tailWindow = 32 * 1024

// Config carries the detector's configurable thresholds (spec.md §9 OQ3:
// the 5-minute staleness window and grace period are made configurable
// rather than hardcoded).
type Config struct {
	StaleAfter  time.Duration
	GracePeriod time.Duration
}

// DefaultConfig returns the spec-documented defaults.
func DefaultConfig() Config {
	return Config{StaleAfter: 5 * time.Minute, GracePeriod: 5 * time.Second}
}

// terminal/ending/AI-activity marker lists, scanned in this order (spec
// §4.7 step 3). Plain substrings are sufficient (spec §9 design note) so
// the hot tail-read path avoids a regex dependency.
var terminalMarkers = []string{`"type":"result"`}
var endingMarkers = []string{`stop_reason":"end_turn"`, `type":"user"`}
var aiActivityMarkers = []string{`type":"assistant"`, `type":"tool_use"`, `type":"tool_result"`, `stop_reason":"tool_use"`}

// Detector evaluates session files against the rules in spec §4.7.
type Detector struct {
	cfg Config
}

// New constructs a Detector. A zero Config is replaced with defaults.
func New(cfg Config) *Detector {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Second
	}
	return &Detector{cfg: cfg}
}

// Detect classifies the file at path, relative to now (so callers — and
// tests — can pin the clock rather than depend on wall time).
func (d *Detector) Detect(path string, now time.Time) Status {
	info, err := os.Stat(path)
	if err != nil {
		return Status{State: StateEnded, Reason: "unreadable"}
	}

	age := now.Sub(info.ModTime())
	if age > d.cfg.StaleAfter {
		return Status{State: StateStale, Reason: "stale-mtime"}
	}

	tail, err := readTail(path, tailWindow)
	if err != nil || len(bytes.TrimSpace(tail)) == 0 {
		return Status{State: StateEnded, Reason: "empty"}
	}
	content := string(tail)

	if containsAny(content, terminalMarkers) {
		return Status{State: StateEnded, Reason: "terminal-event"}
	}

	endingIdx := lastIndexAny(content, endingMarkers)
	aiIdx := lastIndexAny(content, aiActivityMarkers)

	if aiIdx >= 0 && aiIdx > endingIdx {
		return Status{State: StateOngoing, Reason: "ai-activity"}
	}

	if endingIdx >= 0 {
		if age < d.cfg.GracePeriod {
			return Status{State: StateOngoing, Reason: "grace-period"}
		}
		return Status{State: StateEnded, Reason: "ending-event"}
	}

	if age < d.cfg.GracePeriod {
		return Status{State: StateOngoing, Reason: "recent-mtime"}
	}
	return Status{State: StateEnded, Reason: "no-activity"}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// lastIndexAny returns the highest byte offset at which any marker
// occurs, or -1 if none occur.
func lastIndexAny(s string, markers []string) int {
	best := -1
	for _, m := range markers {
		if idx := strings.LastIndex(s, m); idx > best {
			best = idx
		}
	}
	return best
}

// readTail returns up to the last n bytes of the file at path.
func readTail(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	start := int64(0)
	if size > n {
		start = size - n
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, size-start)
	if _, err := io.ReadFull(f, buf); err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf, nil
}
