package opencode

import (
	"context"
	"testing"
)

func TestResolveProjectID_ExactWorktreeMatch(t *testing.T) {
	projects := []projectRow{
		{ID: "proj-a", Worktree: "/home/user/app"},
		{ID: "proj-b", Worktree: "/home/user/app/sub"},
	}
	got := ResolveProjectID(context.Background(), "/home/user/app", projects, nil)
	if got != "proj-a" {
		t.Fatalf("ResolveProjectID() = %q, want proj-a", got)
	}
}

func TestResolveProjectID_LongestPrefixMatch(t *testing.T) {
	projects := []projectRow{
		{ID: "proj-a", Worktree: "/home/user"},
		{ID: "proj-b", Worktree: "/home/user/app"},
	}
	got := ResolveProjectID(context.Background(), "/home/user/app/sub/dir", projects, nil)
	if got != "proj-b" {
		t.Fatalf("ResolveProjectID() = %q, want proj-b (longest prefix)", got)
	}
}

func TestResolveProjectID_NoMatchFallsBackToGit(t *testing.T) {
	// No projects and no git repo at this path: expect empty, not a panic.
	got := ResolveProjectID(context.Background(), t.TempDir(), nil, nil)
	if got != "" {
		t.Fatalf("ResolveProjectID() = %q, want empty for a non-repo with no project match", got)
	}
}
