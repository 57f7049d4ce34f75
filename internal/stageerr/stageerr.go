// Package stageerr defines the harness failure taxonomy. Each type names the
// pipeline stage that aborted; a hook reporting problems is never one of these.
package stageerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/hookkit/pkg/exitcode"
)

// Stage identifies a harness pipeline stage.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StageWorkspace Stage = "workspace"
	StageRun       Stage = "run"
	StageReport    Stage = "report"
)

// DirtyTreeError is returned when the source tree has pending changes.
type DirtyTreeError struct {
	Paths []string
}

func (e *DirtyTreeError) Error() string {
	const max = 10
	shown := e.Paths
	more := ""
	if len(shown) > max {
		more = fmt.Sprintf(" (+%d more)", len(shown)-max)
		shown = shown[:max]
	}
	return fmt.Sprintf("working tree has %d uncommitted change(s); commit or stash first: %s%s",
		len(e.Paths), strings.Join(shown, ", "), more)
}

// Stage returns StagePreflight.
func (e *DirtyTreeError) Stage() Stage { return StagePreflight }

// BuildError is returned when the isolated workspace cannot be constructed.
type BuildError struct {
	Op   string // mkdir, copy, extract, verify, git-init, ...
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("workspace %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("workspace %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Stage returns StageWorkspace.
func (e *BuildError) Stage() Stage { return StageWorkspace }

// RunError is an infrastructure failure of the hook framework: missing binary,
// failed install, or a framework crash. Hook findings are not RunErrors.
type RunError struct {
	Op     string // locate, install, run
	HookID string
	Output string
	Err    error
}

func (e *RunError) Error() string {
	if e.HookID != "" {
		return fmt.Sprintf("hook framework %s (%s): %v", e.Op, e.HookID, e.Err)
	}
	return fmt.Sprintf("hook framework %s: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Stage returns StageRun.
func (e *RunError) Stage() Stage { return StageRun }

// ReportError is an unexpected I/O failure while reading back workspace files.
type ReportError struct {
	Path string
	Err  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Path, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// Stage returns StageReport.
func (e *ReportError) Stage() Stage { return StageReport }

// Failure attributes an otherwise untyped error to the stage it aborted.
type Failure struct {
	At  Stage
	Err error
}

func (e *Failure) Error() string { return fmt.Sprintf("%s: %v", e.At, e.Err) }

func (e *Failure) Unwrap() error { return e.Err }

// Stage returns the stage the failure is attributed to.
func (e *Failure) Stage() Stage { return e.At }

// Wrap attributes err to stage unless it already carries one.
func Wrap(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := StageOf(err); ok {
		return err
	}
	return &Failure{At: stage, Err: err}
}

// StageOf returns the stage carried by err, if any.
func StageOf(err error) (Stage, bool) {
	var s interface{ Stage() Stage }
	if errors.As(err, &s) {
		return s.Stage(), true
	}
	return "", false
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	stage, ok := StageOf(err)
	if !ok {
		return exitcode.GeneralError
	}
	switch stage {
	case StagePreflight:
		var dirty *DirtyTreeError
		if errors.As(err, &dirty) {
			return exitcode.DirtyTree
		}
		return exitcode.Preflight
	case StageWorkspace:
		return exitcode.WorkspaceBuild
	case StageRun:
		var re *RunError
		if errors.As(err, &re) && re.Op == "locate" {
			return exitcode.ToolNotFound
		}
		return exitcode.HookRun
	case StageReport:
		return exitcode.ReportFailure
	default:
		return exitcode.GeneralError
	}
}
