// Package claudecode implements the SessionProvider for the append-only
// JSONL per-workspace-directory layout (spec §4.1.1): one file per
// session, workspace path encoded into a directory name.
package claudecode

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/provider"
	"agentlens/internal/reader"
)

const ProviderID = "claude-code"

const activeWindow = 5 * time.Minute

var workspaceEncodeRe = regexp.MustCompile(`[:/_]`)

// Provider implements provider.SessionProvider for the claude-code JSONL
// layout. Root is the base directory under which per-workspace session
// directories live (e.g. ~/.claude/projects).
type Provider struct {
	Root string
}

// New constructs a Provider rooted at root.
func New(root string) *Provider { return &Provider{Root: root} }

func (p *Provider) ID() string { return ProviderID }

// GetSessionDirectory encodes workspacePath into a directory name by
// normalizing separators then replacing [:/_] with '-' (spec §4.1).
func (p *Provider) GetSessionDirectory(workspacePath string) string {
	normalized := filepath.ToSlash(workspacePath)
	encoded := workspaceEncodeRe.ReplaceAllString(normalized, "-")
	return filepath.Join(p.Root, encoded)
}

// DiscoverSessionDirectory tries (1) the computed path, (2) a scan of Root
// matching by prefix/basename/case-insensitivity, (3) a temp-directory
// fallback (spec §4.1).
func (p *Provider) DiscoverSessionDirectory(workspacePath string) string {
	computed := p.GetSessionDirectory(workspacePath)
	if dirExists(computed) {
		return computed
	}

	entries, err := os.ReadDir(p.Root)
	if err == nil {
		base := filepath.Base(filepath.ToSlash(workspacePath))
		lowerBase := strings.ToLower(base)
		computedBase := filepath.Base(computed)
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasPrefix(name, computedBase) || strings.HasSuffix(name, base) {
				return filepath.Join(p.Root, name)
			}
			if strings.Contains(strings.ToLower(name), lowerBase) {
				return filepath.Join(p.Root, name)
			}
		}
	}

	fallback := filepath.Join(os.TempDir(), "agentlens", filepath.Base(computed))
	if dirExists(fallback) {
		return fallback
	}
	return ""
}

// FindActiveSession prefers a session whose mtime is within the 5-minute
// active window, then the most recent mtime, skipping empty files (spec
// §4.1).
func (p *Provider) FindActiveSession(workspacePath string) string {
	sessions := p.FindAllSessions(workspacePath)
	if len(sessions) == 0 {
		return ""
	}
	now := time.Now()
	for _, s := range sessions {
		info, err := os.Stat(s)
		if err != nil || info.Size() == 0 {
			continue
		}
		if now.Sub(info.ModTime()) <= activeWindow {
			return s
		}
	}
	for _, s := range sessions {
		info, err := os.Stat(s)
		if err != nil || info.Size() == 0 {
			continue
		}
		return s
	}
	return ""
}

// FindAllSessions returns every *.jsonl session file under the workspace's
// directory, newest first.
func (p *Provider) FindAllSessions(workspacePath string) []string {
	dir := p.DiscoverSessionDirectory(workspacePath)
	if dir == "" {
		dir = p.GetSessionDirectory(workspacePath)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out
}

// CreateReader returns a byte-offset tail reader decoding this provider's
// JSONL shape.
func (p *Provider) CreateReader(sessionPath string) (reader.Reader, error) {
	return reader.NewByteOffsetReader(sessionPath, DecodeLine, nil), nil
}

// ReadSessionStats computes one-shot stats independent of any live
// aggregator (spec §4.1).
func (p *Provider) ReadSessionStats(sessionPath string) (provider.SessionFileStats, error) {
	info, err := os.Stat(sessionPath)
	if err != nil {
		return provider.SessionFileStats{}, nil
	}
	stats := provider.SessionFileStats{SizeBytes: info.Size(), ModTime: info.ModTime()}

	f, err := os.Open(sessionPath)
	if err != nil {
		return stats, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] != '{' {
			continue
		}
		stats.LineCount++
		var head struct {
			Timestamp time.Time `json:"timestamp"`
		}
		if err := json.Unmarshal([]byte(line), &head); err == nil && !head.Timestamp.IsZero() {
			if stats.FirstEventAt.IsZero() {
				stats.FirstEventAt = head.Timestamp
			}
			stats.LastEventAt = head.Timestamp
		}
	}
	return stats, nil
}

// SearchInSession performs a substring scan, returning up to maxResults
// hits with +/-40 chars of context (spec §4.1).
func (p *Provider) SearchInSession(sessionPath, query string, maxResults int) []provider.SearchHit {
	if query == "" || maxResults <= 0 {
		return nil
	}
	f, err := os.Open(sessionPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	var hits []provider.SearchHit
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		idx := strings.Index(line, query)
		if idx < 0 {
			continue
		}
		start := idx - 40
		if start < 0 {
			start = 0
		}
		end := idx + len(query) + 40
		if end > len(line) {
			end = len(line)
		}
		hits = append(hits, provider.SearchHit{LineNumber: lineNo, Snippet: line[start:end], MatchStart: idx - start})
		if len(hits) >= maxResults {
			break
		}
	}
	return hits
}

// ExtractSessionLabel returns the first non-empty user-message text,
// truncated to 60 chars (spec §4.1).
func (p *Provider) ExtractSessionLabel(sessionPath string) string {
	f, err := os.Open(sessionPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] != '{' {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if obj["type"] != "user" {
			continue
		}
		text := extractFirstText(obj)
		if text == "" {
			continue
		}
		return eventmodel.TruncateSummary(text, 60)
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
