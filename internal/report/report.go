// Package report compares fixture content before and after the hooks ran and
// renders the result.
package report

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/hookkit/internal/runner"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/fulmenhq/hookkit/pkg/safeio"
	"github.com/pmezard/go-difflib/difflib"
)

// Change kinds for FileDiff.
const (
	Modified = "modified"
	Deleted  = "deleted"
)

const contextLines = 3

// FileDiff is the unified diff of one fixture file.
type FileDiff struct {
	Path   string `json:"path"`
	Change string `json:"change"`
	Diff   string `json:"diff"`
}

// HookSummary is a hook's line in the report.
type HookSummary struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	ExitCode int      `json:"exit_code"`
	Flagged  []string `json:"flagged"`
	Output   string   `json:"output,omitempty"`
}

// DiffReport is the final product of a harness run.
type DiffReport struct {
	RunID string        `json:"run_id,omitempty"`
	Files []FileDiff    `json:"files"`
	Clean []string      `json:"clean"`
	Hooks []HookSummary `json:"hooks"`
}

// Failed returns the hooks that did not pass.
func (r *DiffReport) Failed() []HookSummary {
	var out []HookSummary
	for _, h := range r.Hooks {
		if h.Status != string(runner.Passed) {
			out = append(out, h)
		}
	}
	return out
}

// Build diffs every fixture in set against its current content under wsRoot.
// A file that no longer exists is diffed against empty content.
func Build(set *fixtures.Set, wsRoot string, outcomes []runner.HookOutcome) (*DiffReport, error) {
	r := &DiffReport{Files: []FileDiff{}, Clean: []string{}, Hooks: make([]HookSummary, 0, len(outcomes))}

	for _, p := range set.Paths() {
		entry, _ := set.Lookup(p)
		change := Modified
		current, err := safeio.ReadFileContained(wsRoot, filepath.Join(wsRoot, filepath.FromSlash(p)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			change, current = Deleted, nil
		case err != nil:
			return nil, &stageerr.ReportError{Path: p, Err: err}
		case bytes.Equal(current, entry.Data):
			r.Clean = append(r.Clean, p)
			continue
		}

		diff, err := unified(p, entry.Data, current)
		if err != nil {
			return nil, &stageerr.ReportError{Path: p, Err: err}
		}
		r.Files = append(r.Files, FileDiff{Path: p, Change: change, Diff: diff})
	}

	for _, o := range outcomes {
		flagged := o.Flagged
		if flagged == nil {
			flagged = []string{}
		}
		r.Hooks = append(r.Hooks, HookSummary{
			ID:       o.ID,
			Status:   string(o.Status),
			ExitCode: o.ExitCode,
			Flagged:  flagged,
			Output:   o.Output,
		})
	}
	return r, nil
}

func unified(path string, before, after []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  contextLines,
	})
}

// noNewline marks a final line without a terminator, as git does.
const noNewline = "\n\\ No newline at end of file\n"

// splitLines keeps line terminators (including \r) so whitespace-only changes
// stay visible in the diff.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + noNewline
	}
	return lines
}
