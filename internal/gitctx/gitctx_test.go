package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParsePorcelain(t *testing.T) {
	input := " M cmd/root.go\n" +
		"M  go.mod\n" +
		"MM README.md\n" +
		"?? scratch/notes.txt\n" +
		"R  old.go -> new.go\n" +
		"!! ignored.log\n" +
		"\n"
	got := parsePorcelain([]byte(input))
	expected := []FileStatus{
		{Path: "README.md", Staged: true, Unstaged: true},
		{Path: "cmd/root.go", Unstaged: true},
		{Path: "go.mod", Staged: true},
		{Path: "new.go", Staged: true},
		{Path: "scratch/notes.txt", Untracked: true},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("parsePorcelain() = %+v\nexpected %+v", got, expected)
	}
}

func TestParsePorcelainEmpty(t *testing.T) {
	if got := parsePorcelain(nil); len(got) != 0 {
		t.Errorf("expected no entries, got %+v", got)
	}
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return dir, repo
}

func commitFile(t *testing.T, dir string, repo *git.Repository, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestRepoStatusClean(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, ".pre-commit-config.yaml", "repos: []\n")

	st, err := NewRepo(dir).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("expected clean tree, got %+v", st)
	}
}

func TestRepoStatusDirty(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "tracked.txt", "one\n")

	if err := os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("two\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err := NewRepo(dir).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	expected := []FileStatus{
		{Path: "new.txt", Untracked: true},
		{Path: "tracked.txt", Unstaged: true},
	}
	if !reflect.DeepEqual(st, expected) {
		t.Errorf("Status() = %+v, expected %+v", st, expected)
	}
}

func TestRepoStatusRespectsGitignore(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, ".gitignore", "*.log\n")
	if err := os.WriteFile(filepath.Join(dir, "debug.log"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err := NewRepo(dir).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("ignored file should not be reported, got %+v", st)
	}
}

func requireGitCLI(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestRepoStatusLinkedWorktree(t *testing.T) {
	requireGitCLI(t)
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, ".pre-commit-config.yaml", "repos: []\n")
	commitFile(t, dir, repo, "hooks/check.sh", "#!/bin/sh\n")

	linked := filepath.Join(t.TempDir(), "linked")
	runGit(t, dir, "worktree", "add", "--detach", linked)

	st, err := NewRepo(linked).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("expected clean linked worktree, got %+v", st)
	}

	if err := os.WriteFile(filepath.Join(linked, "hooks", "check.sh"), []byte("#!/bin/sh\nexit 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err = NewRepo(linked).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	expected := []FileStatus{{Path: "hooks/check.sh", Unstaged: true}}
	if !reflect.DeepEqual(st, expected) {
		t.Errorf("Status() = %+v, expected %+v", st, expected)
	}
}

func TestStatusCLI(t *testing.T) {
	requireGitCLI(t)
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "tracked.txt", "one\n")
	commitFile(t, dir, repo, "bundle/.pre-commit-config.yaml", "repos: []\n")

	st, err := statusCLI(context.Background(), dir)
	if err != nil {
		t.Fatalf("statusCLI() error: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("expected clean tree, got %+v", st)
	}

	if err := os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("two\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bundle", ".pre-commit-config.yaml"), []byte("repos: [x]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bundle", "new.sh"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err = statusCLI(context.Background(), dir)
	if err != nil {
		t.Fatalf("statusCLI() error: %v", err)
	}
	expected := []FileStatus{
		{Path: "bundle/.pre-commit-config.yaml", Unstaged: true},
		{Path: "bundle/new.sh", Untracked: true},
		{Path: "tracked.txt", Unstaged: true},
	}
	if !reflect.DeepEqual(st, expected) {
		t.Errorf("statusCLI() = %+v, expected %+v", st, expected)
	}

	// from a subdirectory, paths are relative to it and limited to it
	st, err = statusCLI(context.Background(), filepath.Join(dir, "bundle"))
	if err != nil {
		t.Fatalf("statusCLI() error: %v", err)
	}
	expected = []FileStatus{
		{Path: ".pre-commit-config.yaml", Unstaged: true},
		{Path: "new.sh", Untracked: true},
	}
	if !reflect.DeepEqual(st, expected) {
		t.Errorf("statusCLI() from subdir = %+v, expected %+v", st, expected)
	}
}
