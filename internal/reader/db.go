package reader

// Message mirrors one row of the embedded relational schema's `message`
// table (spec §6).
type Message struct {
	ID          string
	SessionID   string
	TimeCreated int64
	TimeUpdated int64
	Role        string
	ModelID     string
	ParentID    string
	Input       int64
	Output      int64
	CacheRead   int64
	CacheWrite  int64
	Reasoning   int64
	Cost        float64
}

// Part mirrors one row of the `part` table.
type Part struct {
	ID          string
	MessageID   string
	SessionID   string
	TimeCreated int64
	TimeUpdated int64
	Type        string // text | reasoning | tool | tool-invocation | subtask | ...
	Data        map[string]any
}

// DBSource is the query surface the time-cursor reader needs from the
// embedded-database provider (spec §4.1.3, §4.2). Implemented by
// internal/provider/opencode against the out-of-process `sqlite3
// -json -readonly` invocation described in spec §4.1/§5/§9.
type DBSource interface {
	// LoadAll returns every message and part for sessionID, ordered by
	// time_created ascending.
	LoadAll(sessionID string) ([]Message, []Part, error)
	// LoadChangedMessageIDs returns the set of message ids touched (by a
	// changed message row or a changed part row) since cursor, and the
	// max time_updated observed across both tables.
	LoadChangedMessageIDs(sessionID string, cursor int64) (ids []string, maxTimeUpdated int64, err error)
	// LoadMessagesByID fetches the named messages and all of their parts,
	// batched in one round trip.
	LoadMessagesByID(sessionID string, ids []string) ([]Message, []Part, error)
}
