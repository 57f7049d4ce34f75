// Package workspace materialises the disposable directory a harness run
// executes in: hook configuration copied from the source tree, fixture files
// extracted verbatim, and a fresh git repository with everything staged.
package workspace

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/fulmenhq/hookkit/pkg/logger"
	"github.com/fulmenhq/hookkit/pkg/safeio"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
)

var (
	// ErrAliasesSource is returned when the temp root lies inside the source tree.
	ErrAliasesSource = errors.New("workspace would alias the source tree")
	// ErrCollision is returned when a fixture overwrites a copied config file.
	ErrCollision = errors.New("fixture collides with copied configuration")
)

// Identity committed as the workspace repository's local user.
const (
	gitUserName  = "hookkit"
	gitUserEmail = "hookkit@localhost"
)

// Builder creates workspaces.
type Builder struct {
	SourceRoot   string
	HookConfig   string   // relative to SourceRoot, always copied
	CopyPatterns []string // doublestar globs relative to SourceRoot
	TempRoot     string   // empty means os.TempDir()
	Fixtures     fixtures.Options
	Keep         bool
	RunID        string
}

// Workspace is one run's isolated directory.
type Workspace struct {
	Root       string
	ConfigPath string // hook config, relative to Root
	Fixtures   *fixtures.Set
	Copied     []string
	RunID      string

	fs   billy.Filesystem
	keep bool
}

// Build loads the fixture archive, then creates and populates the workspace.
// The archive is fully validated before anything is written.
func (b *Builder) Build(ctx context.Context, archivePath string) (*Workspace, error) {
	cfgPath, err := safeio.CleanRelPath(b.HookConfig)
	if err != nil {
		return nil, &stageerr.BuildError{Op: "copy", Path: b.HookConfig, Err: err}
	}
	set, err := fixtures.Load(archivePath, b.Fixtures)
	if err != nil {
		return nil, &stageerr.BuildError{Op: "extract", Path: archivePath, Err: err}
	}

	root, err := b.mkdir()
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		Root:       root,
		ConfigPath: cfgPath,
		Fixtures:   set,
		RunID:      b.RunID,
		fs:         osfs.New(root, osfs.WithBoundOS()),
		keep:       b.Keep,
	}

	if err := b.populate(ctx, ws); err != nil {
		if !b.Keep {
			_ = os.RemoveAll(root)
		}
		return nil, err
	}

	logger.Info("workspace ready",
		logger.String("path", root),
		logger.Int("config_files", len(ws.Copied)),
		logger.Int("fixtures", set.Len()),
		logger.String("size", humanize.Bytes(set.TotalBytes())),
	)
	return ws, nil
}

func (b *Builder) mkdir() (string, error) {
	tempRoot := b.TempRoot
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	inside, err := safeio.IsWithin(b.SourceRoot, tempRoot)
	if err != nil {
		return "", &stageerr.BuildError{Op: "mkdir", Path: tempRoot, Err: err}
	}
	if inside {
		return "", &stageerr.BuildError{Op: "mkdir", Path: tempRoot, Err: ErrAliasesSource}
	}
	root, err := os.MkdirTemp(tempRoot, "hookkit-")
	if err != nil {
		return "", &stageerr.BuildError{Op: "mkdir", Path: tempRoot, Err: err}
	}
	return root, nil
}

func (b *Builder) populate(ctx context.Context, ws *Workspace) error {
	steps := []struct {
		name string
		fn   func(*Workspace) error
	}{
		{"copy", b.copyConfig},
		{"extract", b.writeFixtures},
		{"verify", verifyFixtures},
		{"git-init", initRepo},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &stageerr.BuildError{Op: step.name, Err: err}
		}
		logger.Debug("workspace: "+step.name, logger.String("path", ws.Root))
		if err := step.fn(ws); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) copyConfig(ws *Workspace) error {
	src := os.DirFS(b.SourceRoot)
	if _, err := fs.Stat(src, ws.ConfigPath); err != nil {
		return &stageerr.BuildError{Op: "copy", Path: ws.ConfigPath, Err: err}
	}

	selected := map[string]bool{ws.ConfigPath: true}
	for _, pattern := range b.CopyPatterns {
		matches, err := doublestar.Glob(src, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return &stageerr.BuildError{Op: "copy", Path: pattern, Err: err}
		}
		for _, m := range matches {
			if m == ".git" || strings.HasPrefix(m, ".git/") {
				continue
			}
			selected[m] = true
		}
	}

	paths := make([]string, 0, len(selected))
	for p := range selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		info, err := fs.Stat(src, p)
		if err != nil {
			return &stageerr.BuildError{Op: "copy", Path: p, Err: err}
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return &stageerr.BuildError{Op: "copy", Path: p, Err: err}
		}
		if err := util.WriteFile(ws.fs, p, data, info.Mode().Perm()); err != nil {
			return &stageerr.BuildError{Op: "copy", Path: p, Err: err}
		}
	}
	ws.Copied = paths
	return nil
}

func (b *Builder) writeFixtures(ws *Workspace) error {
	copied := make(map[string]bool, len(ws.Copied))
	for _, p := range ws.Copied {
		copied[p] = true
	}
	for _, e := range ws.Fixtures.Entries {
		if copied[e.Path] {
			return &stageerr.BuildError{Op: "extract", Path: e.Path, Err: ErrCollision}
		}
		// Entry paths were validated on load; re-check containment before writing.
		if _, err := safeio.ContainedPath(ws.Root, e.Path); err != nil {
			return &stageerr.BuildError{Op: "extract", Path: e.Path, Err: err}
		}
		if err := util.WriteFile(ws.fs, e.Path, e.Data, e.Mode); err != nil {
			return &stageerr.BuildError{Op: "extract", Path: e.Path, Err: err}
		}
	}
	return nil
}

// verifyFixtures re-reads every extracted file and compares it with the
// archive bytes.
func verifyFixtures(ws *Workspace) error {
	for _, e := range ws.Fixtures.Entries {
		got, err := safeio.ReadFileContained(ws.Root, ws.Path(e.Path))
		if err != nil {
			return &stageerr.BuildError{Op: "verify", Path: e.Path, Err: err}
		}
		if !bytes.Equal(got, e.Data) {
			return &stageerr.BuildError{Op: "verify", Path: e.Path,
				Err: fmt.Errorf("content mismatch: wrote %d bytes, read %d", len(e.Data), len(got))}
		}
	}
	return nil
}

func initRepo(ws *Workspace) error {
	repo, err := git.PlainInit(ws.Root, false)
	if err != nil {
		return &stageerr.BuildError{Op: "git-init", Path: ws.Root, Err: err}
	}
	cfg, err := repo.Config()
	if err != nil {
		return &stageerr.BuildError{Op: "git-init", Path: ws.Root, Err: err}
	}
	cfg.User.Name = gitUserName
	cfg.User.Email = gitUserEmail
	if err := repo.SetConfig(cfg); err != nil {
		return &stageerr.BuildError{Op: "git-init", Path: ws.Root, Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return &stageerr.BuildError{Op: "git-add", Path: ws.Root, Err: err}
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return &stageerr.BuildError{Op: "git-add", Path: ws.Root, Err: err}
	}
	return nil
}

// Path returns the absolute path of a workspace-relative file.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.Root, filepath.FromSlash(rel))
}

// Digest identifies file content.
type Digest [sha256.Size]byte

// Tracked lists the files the workspace was populated with: the copied
// config files and the fixtures, sorted.
func (w *Workspace) Tracked() []string {
	seen := make(map[string]bool, len(w.Copied))
	paths := append([]string{}, w.Copied...)
	for _, p := range paths {
		seen[p] = true
	}
	if w.Fixtures != nil {
		for _, p := range w.Fixtures.Paths() {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// Snapshot hashes the tracked files, keyed by slash-separated relative path.
// A tracked file that no longer exists is absent from the result. Files a
// tool creates on its own (.ruff_cache/, .mypy_cache/) are not part of the
// snapshot.
func (w *Workspace) Snapshot() (map[string]Digest, error) {
	tracked := w.Tracked()
	out := make(map[string]Digest, len(tracked))
	for _, rel := range tracked {
		data, err := util.ReadFile(w.fs, rel)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[rel] = sha256.Sum256(data)
	}
	return out, nil
}

// Close removes the workspace directory unless it was built with Keep.
func (w *Workspace) Close() error {
	if w.keep {
		logger.Info("workspace kept for inspection", logger.String("path", w.Root))
		return nil
	}
	return os.RemoveAll(w.Root)
}
