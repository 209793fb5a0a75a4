package opencode

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/logging"
	"agentlens/internal/provider"
	"agentlens/internal/reader"
)

const ProviderID = "opencode"

const activeWindow = 5 * time.Minute

// Provider implements provider.SessionProvider for the embedded-database
// layout. Unlike the two JSONL providers, a "session path" here is an
// opaque session id, not a filesystem path: there is no per-session file
// to point at, only rows in the shared database at DBPath.
type Provider struct {
	DBPath string
	Source *SQLiteSource
	logger logging.Logger
}

func New(dbPath string, logger logging.Logger) *Provider {
	logger = logging.OrNop(logger)
	return &Provider{DBPath: dbPath, Source: NewSQLiteSource(dbPath, logger), logger: logger}
}

func (p *Provider) ID() string { return ProviderID }

func (p *Provider) loadProjects(ctx context.Context) []projectRow {
	rows, err := p.Source.query(ctx, `SELECT id, worktree FROM project;`)
	if err != nil {
		return nil
	}
	out := make([]projectRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, projectRow{ID: asString(r["id"]), Worktree: asString(r["worktree"])})
	}
	return out
}

// GetSessionDirectory resolves workspacePath to a project id without
// loading the project table: the worktree/prefix matches against an empty
// project set always miss, so the result comes from the repo root commit
// hash fallback (which runs git). DiscoverSessionDirectory runs the full
// resolution chain.
func (p *Provider) GetSessionDirectory(workspacePath string) string {
	return ResolveProjectID(context.Background(), workspacePath, nil, p.logger)
}

// DiscoverSessionDirectory returns the resolved project id for
// workspacePath, trying exact worktree match, longest-prefix match, then
// the repo root commit hash fallback (spec §4.1).
func (p *Provider) DiscoverSessionDirectory(workspacePath string) string {
	ctx := context.Background()
	projects := p.loadProjects(ctx)
	return ResolveProjectID(ctx, workspacePath, projects, p.logger)
}

type sessionRow struct {
	id          string
	timeCreated int64
	timeUpdated int64
}

func (p *Provider) sessionsForProject(projectID string) []sessionRow {
	if projectID == "" {
		return nil
	}
	rows, err := p.Source.query(context.Background(), fmt.Sprintf(
		`SELECT id, time_created, time_updated FROM session WHERE project_id = '%s' ORDER BY time_updated DESC;`,
		escapeSQLString(projectID)))
	if err != nil {
		return nil
	}
	out := make([]sessionRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, sessionRow{id: asString(r["id"]), timeCreated: asInt64(r["time_created"]), timeUpdated: asInt64(r["time_updated"])})
	}
	return out
}

// FindAllSessions returns every session id for workspacePath's resolved
// project, newest first.
func (p *Provider) FindAllSessions(workspacePath string) []string {
	projectID := p.DiscoverSessionDirectory(workspacePath)
	sessions := p.sessionsForProject(projectID)
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.id
	}
	return out
}

// FindActiveSession prefers the session whose time_updated falls within
// the active window, then the most recently updated session.
func (p *Provider) FindActiveSession(workspacePath string) string {
	projectID := p.DiscoverSessionDirectory(workspacePath)
	sessions := p.sessionsForProject(projectID)
	if len(sessions) == 0 {
		return ""
	}
	nowMs := time.Now().UnixMilli()
	for _, s := range sessions {
		if time.Duration(nowMs-s.timeUpdated)*time.Millisecond <= activeWindow {
			return s.id
		}
	}
	return sessions[0].id
}

// CreateReader returns a time-cursor poll reader over sessionID.
func (p *Provider) CreateReader(sessionID string) (reader.Reader, error) {
	return reader.NewTimeCursorReader(sessionID, p.Source, DecodeMessage), nil
}

// ReadSessionStats aggregates message counts and timestamps for
// sessionID.
func (p *Provider) ReadSessionStats(sessionID string) (provider.SessionFileStats, error) {
	rows, err := p.Source.query(context.Background(), fmt.Sprintf(
		`SELECT COUNT(*) as n, MIN(time_created) as first_ts, MAX(time_created) as last_ts FROM message WHERE session_id = '%s';`,
		escapeSQLString(sessionID)))
	if err != nil || len(rows) == 0 {
		return provider.SessionFileStats{}, nil
	}
	row := rows[0]
	stats := provider.SessionFileStats{LineCount: int(asInt64(row["n"]))}
	if first := asInt64(row["first_ts"]); first > 0 {
		stats.FirstEventAt = time.UnixMilli(first)
	}
	if last := asInt64(row["last_ts"]); last > 0 {
		stats.LastEventAt = time.UnixMilli(last)
		stats.ModTime = stats.LastEventAt
	}
	return stats, nil
}

// SearchInSession scans part.data for query via a SQL LIKE, returning up
// to maxResults hits with ±40 chars of context.
func (p *Provider) SearchInSession(sessionID, query string, maxResults int) []provider.SearchHit {
	if query == "" || maxResults <= 0 {
		return nil
	}
	rows, err := p.Source.query(context.Background(), fmt.Sprintf(
		`SELECT data FROM part WHERE session_id = '%s' AND data LIKE '%%%s%%' LIMIT %d;`,
		escapeSQLString(sessionID), escapeSQLString(query), maxResults))
	if err != nil {
		return nil
	}

	var hits []provider.SearchHit
	for i, row := range rows {
		data := asString(row["data"])
		idx := strings.Index(data, query)
		if idx < 0 {
			continue
		}
		start := idx - 40
		if start < 0 {
			start = 0
		}
		end := idx + len(query) + 40
		if end > len(data) {
			end = len(data)
		}
		hits = append(hits, provider.SearchHit{LineNumber: i + 1, Snippet: data[start:end], MatchStart: idx - start})
	}
	return hits
}

// ExtractSessionLabel returns the first user message's text part,
// truncated to 60 chars.
func (p *Provider) ExtractSessionLabel(sessionID string) string {
	msgs, parts, err := p.Source.LoadAll(sessionID)
	if err != nil {
		return ""
	}
	partsByMsg := groupPartsByMessage(parts)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].TimeCreated < msgs[j].TimeCreated })
	for _, m := range msgs {
		if m.Role != "user" {
			continue
		}
		for _, part := range partsByMsg[m.ID] {
			if part.Type != "text" {
				continue
			}
			if text, ok := part.Data["text"].(string); ok && text != "" {
				return eventmodel.TruncateSummary(text, 60)
			}
		}
	}
	return ""
}

func groupPartsByMessage(parts []reader.Part) map[string][]reader.Part {
	out := make(map[string][]reader.Part, len(parts))
	for _, part := range parts {
		out[part.MessageID] = append(out[part.MessageID], part)
	}
	return out
}
