// Package runner installs the pre-commit framework's hook environments into a
// workspace and runs every configured hook against all of its files.
package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/internal/workspace"
	"github.com/fulmenhq/hookkit/pkg/hookconfig"
	"github.com/fulmenhq/hookkit/pkg/logger"
)

// Status is a hook's verdict.
type Status string

const (
	Passed Status = "PASSED"
	Failed Status = "FAILED"
)

// ErrFrameworkFailure marks output that shows the framework itself broke.
var ErrFrameworkFailure = errors.New("hook framework reported an infrastructure failure")

// Infrastructure diagnostics printed by pre-commit itself when a hook could
// not run. Anchored to line starts so a linter quoting the same words about a
// fixture is still a finding.
var infraPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?m)^Executable `[^`]+` not found"),
	regexp.MustCompile(`(?m)^An (unexpected )?error has occurred`),
}

// HookOutcome is the result of running one hook across the workspace.
type HookOutcome struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	ExitCode int           `json:"exit_code"`
	Flagged  []string      `json:"flagged"`
	Modified []string      `json:"modified"`
	Output   string        `json:"output,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Runner drives the framework for one or more workspaces.
type Runner struct {
	Framework Framework
	Exec      Executor
	CacheDir  string // exported to the framework as PRE_COMMIT_HOME

	installed map[string]bool
}

// New returns a Runner; a nil executor means LocalExecutor.
func New(fw Framework, exec Executor, cacheDir string) *Runner {
	if exec == nil {
		exec = LocalExecutor{}
	}
	return &Runner{Framework: fw, Exec: exec, CacheDir: cacheDir, installed: map[string]bool{}}
}

func (r *Runner) env() map[string]string {
	if r.CacheDir == "" {
		return nil
	}
	return map[string]string{"PRE_COMMIT_HOME": r.CacheDir}
}

func (r *Runner) execute(ctx context.Context, ws *workspace.Workspace, args ...string) (*ExecuteResult, error) {
	return r.Exec.Execute(ctx, ExecuteOptions{
		Command: r.Framework.args(args...),
		WorkDir: ws.Root,
		Env:     r.env(),
	})
}

// Install prepares every hook environment declared by the workspace config.
// Repeated calls for the same workspace do nothing.
func (r *Runner) Install(ctx context.Context, ws *workspace.Workspace) error {
	if r.installed == nil {
		r.installed = map[string]bool{}
	}
	if r.installed[ws.Root] {
		logger.Debug("hook environments already installed", logger.String("workspace", ws.Root))
		return nil
	}

	start := time.Now()
	res, err := r.execute(ctx, ws, "install-hooks", "--config", ws.ConfigPath)
	if err != nil {
		return &stageerr.RunError{Op: "install", Err: err}
	}
	if res.ExitCode != 0 {
		return &stageerr.RunError{Op: "install", Output: res.Output(),
			Err: fmt.Errorf("install-hooks exited with code %d", res.ExitCode)}
	}
	r.installed[ws.Root] = true
	logger.Info("hook environments installed",
		logger.String("framework", r.Framework.String()),
		logger.Duration("took", time.Since(start)))
	return nil
}

// RunAll runs each configured hook once over all files, in config order.
func (r *Runner) RunAll(ctx context.Context, ws *workspace.Workspace) ([]HookOutcome, error) {
	cfg, err := hookconfig.LoadConfig(ws.Path(ws.ConfigPath))
	if err != nil {
		return nil, &stageerr.RunError{Op: "config", Err: err}
	}
	ids := cfg.HookIDs()
	if len(ids) == 0 {
		return nil, &stageerr.RunError{Op: "config", Err: hookconfig.ErrNoHooks}
	}

	outcomes := make([]HookOutcome, 0, len(ids))
	for i, id := range ids {
		logger.Debug(fmt.Sprintf("running hook [%d/%d]", i+1, len(ids)), logger.String("hook", id))
		out, err := r.runHook(ctx, ws, id)
		if err != nil {
			return nil, err
		}
		logger.Info("hook finished",
			logger.String("hook", id),
			logger.String("status", string(out.Status)),
			logger.Int("flagged", len(out.Flagged)),
			logger.Int("attempts", out.Attempts))
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

type attempt struct {
	res      *ExecuteResult
	modified []string
}

func (r *Runner) runOnce(ctx context.Context, ws *workspace.Workspace, id string) (attempt, error) {
	before, err := ws.Snapshot()
	if err != nil {
		return attempt{}, &stageerr.RunError{Op: "snapshot", HookID: id, Err: err}
	}
	res, err := r.execute(ctx, ws, "run", id, "--all-files", "--color", "never", "--config", ws.ConfigPath)
	if err != nil {
		return attempt{}, &stageerr.RunError{Op: "run", HookID: id, Err: err}
	}
	output := res.Output()
	for _, re := range infraPatterns {
		if loc := re.FindString(output); loc != "" {
			return attempt{}, &stageerr.RunError{Op: "run", HookID: id, Output: output,
				Err: fmt.Errorf("%w: %s", ErrFrameworkFailure, loc)}
		}
	}
	after, err := ws.Snapshot()
	if err != nil {
		return attempt{}, &stageerr.RunError{Op: "snapshot", HookID: id, Err: err}
	}
	return attempt{res: res, modified: diffSnapshots(before, after)}, nil
}

func (r *Runner) runHook(ctx context.Context, ws *workspace.Workspace, id string) (HookOutcome, error) {
	start := time.Now()
	first, err := r.runOnce(ctx, ws, id)
	if err != nil {
		return HookOutcome{}, err
	}

	out := HookOutcome{ID: id, Attempts: 1, ExitCode: first.res.ExitCode, Output: first.res.Output()}
	modified := first.modified
	outputs := []string{out.Output}

	switch {
	case first.res.ExitCode == 0:
		out.Status = Passed
	case len(first.modified) > 0:
		// Fixers exit non-zero after rewriting files; a clean second pass means
		// everything they reported was fixed.
		second, err := r.runOnce(ctx, ws, id)
		if err != nil {
			return HookOutcome{}, err
		}
		out.Attempts = 2
		out.ExitCode = second.res.ExitCode
		out.Output = second.res.Output()
		outputs = append(outputs, out.Output)
		modified = union(modified, second.modified)
		if second.res.ExitCode == 0 {
			out.Status = Passed
		} else {
			out.Status = Failed
		}
	default:
		out.Status = Failed
	}

	out.Modified = modified
	out.Flagged = union(modified, mentionedFiles(strings.Join(outputs, "\n"), ws.Fixtures.Paths()))
	out.Duration = time.Since(start)
	return out, nil
}

func diffSnapshots(before, after map[string]workspace.Digest) []string {
	var changed []string
	for p, d := range after {
		if prev, ok := before[p]; !ok || prev != d {
			changed = append(changed, p)
		}
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	return changed
}

// mentionedFiles returns the candidates that appear in output as whole paths.
func mentionedFiles(output string, candidates []string) []string {
	var found []string
	for _, c := range candidates {
		if mentions(output, c) {
			found = append(found, c)
		}
	}
	return found
}

func mentions(output, path string) bool {
	for from := 0; ; {
		i := strings.Index(output[from:], path)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(path)
		if (i == 0 || !isPathByte(output[i-1])) && (end == len(output) || !isNameByte(output[end])) {
			return true
		}
		from = i + 1
	}
}

func isNameByte(b byte) bool {
	return b == '_' || b == '-' || b == '/' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func isPathByte(b byte) bool { return isNameByte(b) || b == '.' }

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
