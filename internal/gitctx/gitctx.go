package gitctx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when target is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// FileStatus is one non-clean path in the work tree.
type FileStatus struct {
	Path      string `json:"path"`
	Staged    bool   `json:"staged"`
	Unstaged  bool   `json:"unstaged"`
	Untracked bool   `json:"untracked"`
}

// Repo reads work tree status for the repository containing Root.
type Repo struct {
	Root string
}

// NewRepo returns a Repo rooted at target.
func NewRepo(target string) *Repo {
	return &Repo{Root: target}
}

// Status lists every path that differs from HEAD, plus untracked
// (non-ignored) files, sorted by path. go-git is preferred; the git CLI is
// used when go-git cannot open the repository.
func (r *Repo) Status(ctx context.Context) ([]FileStatus, error) {
	st, err := statusGoGit(r.Root)
	if err == nil {
		return st, nil
	}
	if errors.Is(err, ErrNotRepository) {
		if _, lookErr := exec.LookPath("git"); lookErr != nil || !isRepoCLI(ctx, r.Root) {
			return nil, fmt.Errorf("%s: %w", r.Root, ErrNotRepository)
		}
	}
	return statusCLI(ctx, r.Root)
}

func statusGoGit(target string) ([]FileStatus, error) {
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, err
	}

	// go-git reports paths relative to the work tree root; make them
	// relative to target so they match what the caller copies.
	prefix := ""
	if rel, err := filepath.Rel(wt.Filesystem.Root(), target); err == nil && rel != "." {
		prefix = filepath.ToSlash(rel) + "/"
	}

	var out []FileStatus
	for path, s := range st {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		p := filepath.ToSlash(path)
		if prefix != "" {
			if !strings.HasPrefix(p, prefix) {
				continue
			}
			p = strings.TrimPrefix(p, prefix)
		}
		fs := FileStatus{Path: p}
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			fs.Untracked = true
		} else {
			fs.Staged = s.Staging != git.Unmodified
			fs.Unstaged = s.Worktree != git.Unmodified
		}
		out = append(out, fs)
	}
	sortStatus(out)
	return out, nil
}

func statusCLI(ctx context.Context, target string) ([]FileStatus, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--untracked-files=all", "--", ".")
	cmd.Dir = target
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	prefix, err := showPrefix(ctx, target)
	if err != nil {
		return nil, err
	}

	// porcelain paths are relative to the top of the work tree
	st := parsePorcelain(out)
	for i := range st {
		st[i].Path = strings.TrimPrefix(st[i].Path, prefix)
	}
	return st, nil
}

func showPrefix(ctx context.Context, target string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-prefix")
	cmd.Dir = target
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// parsePorcelain parses `git status --porcelain` v1 output.
func parsePorcelain(data []byte) []FileStatus {
	var out []FileStatus
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		// Format: XY <path> or XY <orig> -> <path>
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		path = strings.Trim(path, `"`)
		switch {
		case x == '!' && y == '!':
			continue
		case x == '?' && y == '?':
			out = append(out, FileStatus{Path: path, Untracked: true})
		default:
			out = append(out, FileStatus{Path: path, Staged: x != ' ', Unstaged: y != ' '})
		}
	}
	sortStatus(out)
	return out
}

func sortStatus(s []FileStatus) {
	sort.Slice(s, func(i, j int) bool { return s[i].Path < s[j].Path })
}

func isRepoCLI(ctx context.Context, target string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = target
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}
