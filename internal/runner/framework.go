package runner

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/logger"
)

// ErrFrameworkNotFound is returned when no pre-commit installation can be found.
var ErrFrameworkNotFound = errors.New("pre-commit not found (install it or uv)")

// LookPathFunc resolves a program name on PATH.
type LookPathFunc func(file string) (string, error)

// Framework is the resolved command prefix used to drive pre-commit.
type Framework struct {
	Command []string
	Source  string // override, path, uvx
}

func (f Framework) String() string { return strings.Join(f.Command, " ") }

func (f Framework) args(extra ...string) []string {
	out := make([]string, 0, len(f.Command)+len(extra))
	out = append(out, f.Command...)
	return append(out, extra...)
}

// Locate picks the framework command: an explicit override wins, then
// pre-commit on PATH, then pre-commit launched through uvx.
func Locate(override []string, lookPath LookPathFunc) (Framework, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if len(override) > 0 {
		if _, err := lookPath(override[0]); err != nil {
			return Framework{}, &stageerr.RunError{Op: "locate", Err: err}
		}
		return Framework{Command: override, Source: "override"}, nil
	}
	if p, err := lookPath("pre-commit"); err == nil {
		logger.Debug("framework found on PATH", logger.String("path", p))
		return Framework{Command: []string{p}, Source: "path"}, nil
	}
	if p, err := lookPath("uvx"); err == nil {
		logger.Debug("framework via uvx", logger.String("path", p))
		return Framework{Command: []string{p, "pre-commit"}, Source: "uvx"}, nil
	}
	return Framework{}, &stageerr.RunError{Op: "locate", Err: ErrFrameworkNotFound}
}
