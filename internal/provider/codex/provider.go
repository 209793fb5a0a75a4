// Package codex implements the SessionProvider for append-only JSONL
// rollout files living in a single directory tree, one file per session,
// discoverable only by reading each file's first line (spec §4.1.2).
package codex

import (
	"bufio"
	"encoding/json"
	"io/fs"
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

const ProviderID = "codex"

const activeWindow = 5 * time.Minute

var uuidSuffixRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Provider implements provider.SessionProvider for the codex rollout-file
// layout. Root is the directory tree rollout-*.jsonl files are scattered
// under; there is no per-workspace subdirectory encoding, so
// GetSessionDirectory/DiscoverSessionDirectory both resolve to Root and
// the real filtering happens by reading each file's session_meta line.
type Provider struct {
	Root string
}

func New(root string) *Provider { return &Provider{Root: root} }

func (p *Provider) ID() string { return ProviderID }

func (p *Provider) GetSessionDirectory(string) string      { return p.Root }
func (p *Provider) DiscoverSessionDirectory(string) string { return p.Root }

// rolloutMeta is the session_meta record every rollout file carries as its
// first line.
type rolloutMeta struct {
	Type    string `json:"type"`
	Payload struct {
		Cwd string `json:"cwd"`
	} `json:"payload"`
}

type rolloutFile struct {
	path    string
	cwd     string
	modTime time.Time
	size    int64
}

// scanAll walks Root and reads the first line of every *.jsonl file,
// extracting its session_meta cwd. Files with no readable session_meta
// line are skipped.
func (p *Provider) scanAll() []rolloutFile {
	var files []rolloutFile
	filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		meta, ok := readSessionMeta(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, rolloutFile{path: path, cwd: meta.Payload.Cwd, modTime: info.ModTime(), size: info.Size()})
		return nil
	})
	return files
}

func readSessionMeta(path string) (rolloutMeta, bool) {
	f, err := os.Open(path)
	if err != nil {
		return rolloutMeta{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return rolloutMeta{}, false
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" || line[0] != '{' {
		return rolloutMeta{}, false
	}
	var meta rolloutMeta
	if err := json.Unmarshal([]byte(line), &meta); err != nil {
		return rolloutMeta{}, false
	}
	if meta.Type != "session_meta" {
		return rolloutMeta{}, false
	}
	return meta, true
}

// FindAllSessions returns every rollout file whose session_meta cwd
// matches workspacePath, newest first.
func (p *Provider) FindAllSessions(workspacePath string) []string {
	target := normalizePath(workspacePath)
	var matches []rolloutFile
	for _, f := range p.scanAll() {
		if normalizePath(f.cwd) == target {
			matches = append(matches, f)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.path
	}
	return out
}

func (p *Provider) FindActiveSession(workspacePath string) string {
	target := normalizePath(workspacePath)
	now := time.Now()
	var active, mostRecent *rolloutFile
	for _, f := range p.scanAll() {
		if normalizePath(f.cwd) != target || f.size == 0 {
			continue
		}
		fCopy := f
		if mostRecent == nil || f.modTime.After(mostRecent.modTime) {
			mostRecent = &fCopy
		}
		if now.Sub(f.modTime) <= activeWindow {
			if active == nil || f.modTime.After(active.modTime) {
				active = &fCopy
			}
		}
	}
	if active != nil {
		return active.path
	}
	if mostRecent != nil {
		return mostRecent.path
	}
	return ""
}

// SessionIDFromPath extracts the trailing 5-hyphen UUID from a rollout
// filename (spec §4.1.2).
func SessionIDFromPath(path string) string {
	return uuidSuffixRe.FindString(filepath.Base(path))
}

func (p *Provider) CreateReader(sessionPath string) (reader.Reader, error) {
	return reader.NewByteOffsetReader(sessionPath, DecodeLine, nil), nil
}

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
		payload, ok := obj["payload"].(map[string]any)
		if !ok || obj["type"] != "user" {
			continue
		}
		text := extractFirstText(payload)
		if text == "" {
			continue
		}
		return eventmodel.TruncateSummary(text, 60)
	}
	return ""
}

func normalizePath(p string) string {
	return strings.TrimRight(filepath.ToSlash(filepath.Clean(p)), "/")
}
