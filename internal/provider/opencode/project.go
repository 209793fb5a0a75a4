package opencode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"agentlens/internal/logging"
)

// projectRow mirrors one row of the `project` table: an id plus its
// worktree path.
type projectRow struct {
	ID       string
	Worktree string
}

// ResolveProjectID implements spec §4.1's project_id resolution: exact
// worktree match, then longest-prefix match on normalized absolute paths,
// then a fallback to the repo's root commit hash.
func ResolveProjectID(ctx context.Context, workspacePath string, projects []projectRow, logger logging.Logger) string {
	target := normalizeAbs(workspacePath)

	for _, p := range projects {
		if normalizeAbs(p.Worktree) == target {
			return p.ID
		}
	}

	var best projectRow
	bestLen := -1
	for _, p := range projects {
		wt := normalizeAbs(p.Worktree)
		if wt == "" {
			continue
		}
		if strings.HasPrefix(target, wt) && len(wt) > bestLen {
			best = p
			bestLen = len(wt)
		}
	}
	if bestLen >= 0 {
		return best.ID
	}

	hash, err := rootCommitHash(ctx, workspacePath, logger)
	if err != nil || hash == "" {
		return ""
	}
	return hash
}

func rootCommitHash(ctx context.Context, dir string, logger logging.Logger) (string, error) {
	logger = logging.OrNop(logger)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-list", "--max-parents=0", "HEAD")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Debug("git rev-list failed: %s", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("git rev-list: %s", strings.TrimSpace(stderr.String()))
	}

	lines := strings.Fields(strings.TrimSpace(stdout.String()))
	if len(lines) == 0 {
		return "", nil
	}
	sort.Strings(lines)
	return lines[0], nil
}

func normalizeAbs(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimRight(filepath.ToSlash(filepath.Clean(p)), "/")
}
