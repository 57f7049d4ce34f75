package stageerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"plain", errors.New("boom"), exitcode.GeneralError},
		{"dirty", &DirtyTreeError{Paths: []string{"a.go"}}, exitcode.DirtyTree},
		{"status unreadable", &Failure{At: StagePreflight, Err: errors.New("not a git repository")}, exitcode.Preflight},
		{"build", &BuildError{Op: "extract", Err: fs.ErrPermission}, exitcode.WorkspaceBuild},
		{"locate", &RunError{Op: "locate", Err: errors.New("missing")}, exitcode.ToolNotFound},
		{"run", &RunError{Op: "run", HookID: "ruff", Err: errors.New("crash")}, exitcode.HookRun},
		{"report", &ReportError{Path: "x", Err: fs.ErrPermission}, exitcode.ReportFailure},
		{"wrapped", fmt.Errorf("outer: %w", &RunError{Op: "install", Err: errors.New("x")}), exitcode.HookRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := &BuildError{Op: "mkdir", Path: "/tmp/x", Err: fs.ErrPermission}
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "workspace mkdir /tmp/x: permission denied", err.Error())

	rerr := &ReportError{Path: "a.py", Err: fs.ErrPermission}
	assert.ErrorIs(t, rerr, fs.ErrPermission)
}

func TestDirtyTreeErrorMessage(t *testing.T) {
	err := &DirtyTreeError{Paths: []string{"a.go", "b.go"}}
	assert.Contains(t, err.Error(), "2 uncommitted change(s)")
	assert.Contains(t, err.Error(), "a.go, b.go")

	var many []string
	for i := 0; i < 12; i++ {
		many = append(many, fmt.Sprintf("f%02d", i))
	}
	err = &DirtyTreeError{Paths: many}
	assert.Contains(t, err.Error(), "(+2 more)")
	assert.NotContains(t, err.Error(), "f11")
}

func TestStageOf(t *testing.T) {
	stage, ok := StageOf(&RunError{Op: "run", HookID: "ruff", Err: errors.New("x")})
	assert.True(t, ok)
	assert.Equal(t, StageRun, stage)

	_, ok = StageOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(StageRun, nil))

	plain := errors.New("not a git repository")
	wrapped := Wrap(StagePreflight, plain)
	assert.ErrorIs(t, wrapped, plain)
	assert.Equal(t, exitcode.Preflight, ExitCode(wrapped))
	assert.Equal(t, "preflight: not a git repository", wrapped.Error())

	typed := &ReportError{Path: "a", Err: plain}
	assert.Same(t, typed, Wrap(StageRun, typed))
}
