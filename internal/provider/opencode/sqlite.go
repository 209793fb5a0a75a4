// Package opencode implements the SessionProvider for the embedded
// relational database layout (spec §4.1.3): sessions, messages and parts
// stored in SQLite, queried read-only via an out-of-process `sqlite3
// -json -readonly` invocation (spec §9 Open Question: a production
// implementation should use an in-process read-only connection with a
// statement cache instead; the external contract is unchanged).
package opencode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"agentlens/internal/logging"
	"agentlens/internal/reader"
)

// SQLiteSource implements reader.DBSource by shelling out to the sqlite3
// CLI for every query, grounded on the `gitOperations.run` subprocess
// pattern: build args, capture stdout/stderr separately, wrap failures
// with the command name.
type SQLiteSource struct {
	DBPath  string
	Timeout time.Duration
	logger  logging.Logger
}

// NewSQLiteSource constructs a source over dbPath. A zero Timeout
// defaults to 5s per invocation.
func NewSQLiteSource(dbPath string, logger logging.Logger) *SQLiteSource {
	return &SQLiteSource{DBPath: dbPath, Timeout: 5 * time.Second, logger: logging.OrNop(logger)}
}

func (s *SQLiteSource) query(ctx context.Context, sql string) ([]map[string]any, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sqlite3", "-json", "-readonly", s.DBPath, sql)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		s.logger.Debug("sqlite3 query failed: %s", stderrStr)
		return nil, fmt.Errorf("sqlite3: %s", stderrStr)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		return nil, fmt.Errorf("sqlite3: decode output: %w", err)
	}
	return rows, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// LoadAll implements reader.DBSource.
func (s *SQLiteSource) LoadAll(sessionID string) ([]reader.Message, []reader.Part, error) {
	ctx := context.Background()
	msgRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT id, session_id, time_created, time_updated, data FROM message WHERE session_id = '%s' ORDER BY time_created ASC;`,
		escapeSQLString(sessionID)))
	if err != nil {
		return nil, nil, err
	}
	msgs := decodeMessages(msgRows)

	partRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT id, message_id, session_id, time_created, time_updated, data FROM part WHERE session_id = '%s' ORDER BY time_created ASC;`,
		escapeSQLString(sessionID)))
	if err != nil {
		return nil, nil, err
	}
	return msgs, decodeParts(partRows), nil
}

// LoadChangedMessageIDs implements reader.DBSource.
func (s *SQLiteSource) LoadChangedMessageIDs(sessionID string, cursor int64) ([]string, int64, error) {
	ctx := context.Background()
	msgRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT id, time_updated FROM message WHERE session_id = '%s' AND time_updated > %d;`,
		escapeSQLString(sessionID), cursor))
	if err != nil {
		return nil, 0, err
	}
	partRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT message_id, time_updated FROM part WHERE session_id = '%s' AND time_updated > %d;`,
		escapeSQLString(sessionID), cursor))
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool)
	var maxUpdated int64
	for _, row := range msgRows {
		id, _ := row["id"].(string)
		if id != "" {
			seen[id] = true
		}
		if tu := asInt64(row["time_updated"]); tu > maxUpdated {
			maxUpdated = tu
		}
	}
	for _, row := range partRows {
		id, _ := row["message_id"].(string)
		if id != "" {
			seen[id] = true
		}
		if tu := asInt64(row["time_updated"]); tu > maxUpdated {
			maxUpdated = tu
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, maxUpdated, nil
}

// LoadMessagesByID implements reader.DBSource.
func (s *SQLiteSource) LoadMessagesByID(sessionID string, ids []string) ([]reader.Message, []reader.Part, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	ctx := context.Background()
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + escapeSQLString(id) + "'"
	}
	inClause := strings.Join(quoted, ",")

	msgRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT id, session_id, time_created, time_updated, data FROM message WHERE session_id = '%s' AND id IN (%s) ORDER BY time_created ASC;`,
		escapeSQLString(sessionID), inClause))
	if err != nil {
		return nil, nil, err
	}
	msgs := decodeMessages(msgRows)

	partRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT id, message_id, session_id, time_created, time_updated, data FROM part WHERE session_id = '%s' AND message_id IN (%s) ORDER BY time_created ASC;`,
		escapeSQLString(sessionID), inClause))
	if err != nil {
		return nil, nil, err
	}
	return msgs, decodeParts(partRows), nil
}

// messageData is the shape of the `message` table's JSON `data` column
// (spec §4.1.3): role, modelID, cost and token counts all live inside
// this blob rather than as flat columns.
type messageData struct {
	Role     string  `json:"role"`
	ModelID  string  `json:"modelID"`
	ParentID string  `json:"parentID"`
	Cost     float64 `json:"cost"`
	Tokens   struct {
		Input     int64 `json:"input"`
		Output    int64 `json:"output"`
		Reasoning int64 `json:"reasoning"`
		Cache     struct {
			Read  int64 `json:"read"`
			Write int64 `json:"write"`
		} `json:"cache"`
	} `json:"tokens"`
}

func decodeMessages(rows []map[string]any) []reader.Message {
	out := make([]reader.Message, 0, len(rows))
	for _, row := range rows {
		var data messageData
		if raw, ok := row["data"].(string); ok && raw != "" {
			json.Unmarshal([]byte(raw), &data)
		}
		out = append(out, reader.Message{
			ID:          asString(row["id"]),
			SessionID:   asString(row["session_id"]),
			TimeCreated: asInt64(row["time_created"]),
			TimeUpdated: asInt64(row["time_updated"]),
			Role:        data.Role,
			ModelID:     data.ModelID,
			ParentID:    data.ParentID,
			Input:       data.Tokens.Input,
			Output:      data.Tokens.Output,
			CacheRead:   data.Tokens.Cache.Read,
			CacheWrite:  data.Tokens.Cache.Write,
			Reasoning:   data.Tokens.Reasoning,
			Cost:        data.Cost,
		})
	}
	return out
}

func decodeParts(rows []map[string]any) []reader.Part {
	out := make([]reader.Part, 0, len(rows))
	for _, row := range rows {
		var data map[string]any
		if raw, ok := row["data"].(string); ok && raw != "" {
			json.Unmarshal([]byte(raw), &data)
		}
		typ, _ := data["type"].(string)
		out = append(out, reader.Part{
			ID:          asString(row["id"]),
			MessageID:   asString(row["message_id"]),
			SessionID:   asString(row["session_id"]),
			TimeCreated: asInt64(row["time_created"]),
			TimeUpdated: asInt64(row["time_updated"]),
			Type:        typ,
			Data:        data,
		})
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
