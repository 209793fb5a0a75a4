package reader

import (
	"sort"
	"sync"

	"agentlens/internal/eventmodel"
)

// DBDecoder converts one message and its full set of parts into canonical
// SessionEvents. Implemented per-provider.
type DBDecoder func(msg Message, parts []Part) []eventmodel.SessionEvent

// TimeCursorReader is the incremental reader for the embedded-database
// source (spec §4.2). Its cursor is a monotonic time_updated epoch rather
// than a byte offset. wasTruncated is always false and Exists is always
// true: the database row is durable (spec §4.2).
type TimeCursorReader struct {
	sessionID string
	source    DBSource
	decode    DBDecoder

	mu              sync.Mutex
	hasReadOnce     bool
	lastTimeUpdated int64
}

// NewTimeCursorReader constructs a reader over sessionID using source to
// query the embedded database and decode to turn rows into SessionEvents.
func NewTimeCursorReader(sessionID string, source DBSource, decode DBDecoder) *TimeCursorReader {
	return &TimeCursorReader{sessionID: sessionID, source: source, decode: decode}
}

// ReadNew implements the two-phase protocol from spec §4.2: a full
// history load (filtering unanswered tail user messages) on the first
// call, then strictly incremental "refetch the whole message when any of
// its parts change" updates afterward.
func (r *TimeCursorReader) ReadNew() ([]eventmodel.SessionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasReadOnce {
		return r.firstLoad()
	}
	return r.incrementalLoad()
}

func (r *TimeCursorReader) firstLoad() ([]eventmodel.SessionEvent, error) {
	msgs, parts, err := r.source.LoadAll(r.sessionID)
	if err != nil {
		return nil, nil
	}
	r.hasReadOnce = true

	partsByMsg := groupPartsByMessage(parts)
	filtered := filterUnansweredTailUserMessages(msgs)

	var events []eventmodel.SessionEvent
	var maxUpdated int64
	for _, m := range filtered {
		if r.decode != nil {
			events = append(events, r.decode(m, partsByMsg[m.ID])...)
		}
	}
	for _, m := range msgs {
		if m.TimeUpdated > maxUpdated {
			maxUpdated = m.TimeUpdated
		}
	}
	for _, p := range parts {
		if p.TimeUpdated > maxUpdated {
			maxUpdated = p.TimeUpdated
		}
	}
	r.lastTimeUpdated = maxUpdated
	return events, nil
}

func (r *TimeCursorReader) incrementalLoad() ([]eventmodel.SessionEvent, error) {
	ids, maxUpdated, err := r.source.LoadChangedMessageIDs(r.sessionID, r.lastTimeUpdated)
	if err != nil {
		return nil, nil
	}
	if len(ids) == 0 {
		return nil, nil
	}

	msgs, parts, err := r.source.LoadMessagesByID(r.sessionID, ids)
	if err != nil {
		return nil, nil
	}
	partsByMsg := groupPartsByMessage(parts)

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].TimeCreated < msgs[j].TimeCreated })

	var events []eventmodel.SessionEvent
	for _, m := range msgs {
		if r.decode != nil {
			events = append(events, r.decode(m, partsByMsg[m.ID])...)
		}
	}

	if maxUpdated > r.lastTimeUpdated {
		r.lastTimeUpdated = maxUpdated
	}
	return events, nil
}

// ReadAll resets the cursor and replays the full history.
func (r *TimeCursorReader) ReadAll() ([]eventmodel.SessionEvent, error) {
	r.mu.Lock()
	r.hasReadOnce = false
	r.lastTimeUpdated = 0
	r.mu.Unlock()
	return r.ReadNew()
}

// Reset clears the cursor, as ReadAll does (the DB reader has no
// separate buffered-parser state to discard).
func (r *TimeCursorReader) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasReadOnce = false
	r.lastTimeUpdated = 0
}

// Exists is always true for the database source: the row is durable.
func (r *TimeCursorReader) Exists() bool { return true }

// Flush is a no-op: there is no partial-line buffer to drain.
func (r *TimeCursorReader) Flush() {}

// GetPosition returns the current time_updated cursor.
func (r *TimeCursorReader) GetPosition() Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTimeUpdated
}

// SeekTo moves the cursor to an arbitrary time_updated value, e.g. when
// restoring from a snapshot. It implies hasReadOnce=true since a seek
// only makes sense after an initial load already happened.
func (r *TimeCursorReader) SeekTo(pos Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastTimeUpdated = pos
	r.hasReadOnce = true
}

// WasTruncated is always false: the database source cannot be truncated
// the way a JSONL file can (spec §4.2).
func (r *TimeCursorReader) WasTruncated() bool { return false }

func groupPartsByMessage(parts []Part) map[string][]Part {
	out := make(map[string][]Part, len(parts))
	for _, p := range parts {
		out[p.MessageID] = append(out[p.MessageID], p)
	}
	for _, ps := range out {
		sort.Slice(ps, func(i, j int) bool { return ps[i].TimeCreated < ps[j].TimeCreated })
	}
	return out
}

// filterUnansweredTailUserMessages removes user messages that have not
// yet been followed by an assistant reply, identified via parentID (spec
// §4.2): a user message is "answered" if some other message's parentID
// points back to it.
func filterUnansweredTailUserMessages(msgs []Message) []Message {
	answered := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if m.ParentID != "" {
			answered[m.ParentID] = true
		}
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "user" && !answered[m.ID] {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeCreated < out[j].TimeCreated })
	return out
}
