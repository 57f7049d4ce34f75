// Package runnertest provides a scripted Executor standing in for the
// pre-commit framework in tests.
package runnertest

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fulmenhq/hookkit/internal/runner"
)

// Script answers one framework invocation.
type Script func(ctx context.Context, opts runner.ExecuteOptions) (*runner.ExecuteResult, error)

// Executor dispatches install-hooks and run <id> invocations to scripts.
// Unscripted hooks pass.
type Executor struct {
	Install Script
	Hooks   map[string]Script

	mu    sync.Mutex
	calls []runner.ExecuteOptions
}

// Execute records the call and runs the matching script.
func (e *Executor) Execute(ctx context.Context, opts runner.ExecuteOptions) (*runner.ExecuteResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, opts)
	e.mu.Unlock()

	sub, id := parse(opts.Command)
	var script Script
	switch sub {
	case "install-hooks":
		script = e.Install
	case "run":
		script = e.Hooks[id]
	}
	if script == nil {
		return &runner.ExecuteResult{}, nil
	}
	return script(ctx, opts)
}

// Calls returns the number of invocations of a subcommand ("install-hooks",
// "run") and, for run, optionally of a single hook id.
func (e *Executor) Calls(sub string, id ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		s, hook := parse(c.Command)
		if s != sub {
			continue
		}
		if len(id) > 0 && hook != id[0] {
			continue
		}
		n++
	}
	return n
}

// Last returns the most recent invocation.
func (e *Executor) Last() runner.ExecuteOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return runner.ExecuteOptions{}
	}
	return e.calls[len(e.calls)-1]
}

func parse(cmd []string) (sub, id string) {
	for i, arg := range cmd {
		switch arg {
		case "install-hooks":
			return arg, ""
		case "run":
			if i+1 < len(cmd) {
				return arg, cmd[i+1]
			}
			return arg, ""
		}
	}
	return "", ""
}

// Exit returns a script that prints output and exits with code.
func Exit(code int, output string) Script {
	return func(context.Context, runner.ExecuteOptions) (*runner.ExecuteResult, error) {
		return &runner.ExecuteResult{ExitCode: code, Stdout: []byte(output)}, nil
	}
}

// FixOnce rewrites file in the workspace and exits 1 the first time it runs,
// the way pre-commit fixers do, and exits 0 afterwards.
func FixOnce(file string, fixed []byte, output string) Script {
	done := false
	return func(_ context.Context, opts runner.ExecuteOptions) (*runner.ExecuteResult, error) {
		if done {
			return &runner.ExecuteResult{}, nil
		}
		done = true
		if err := os.WriteFile(filepath.Join(opts.WorkDir, filepath.FromSlash(file)), fixed, 0o644); err != nil {
			return nil, err
		}
		return &runner.ExecuteResult{ExitCode: 1, Stdout: []byte(output)}, nil
	}
}
