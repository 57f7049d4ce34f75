/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// ExecuteOptions describes one framework invocation.
type ExecuteOptions struct {
	// Command is the program followed by its arguments.
	Command []string

	// WorkDir is the working directory, normally the workspace root.
	WorkDir string

	// Env contains additional environment variables.
	Env map[string]string
}

// ExecuteResult is the captured outcome of a process that started.
type ExecuteResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Output returns stdout followed by stderr.
func (r *ExecuteResult) Output() string {
	return string(r.Stdout) + string(r.Stderr)
}

// Executor runs external commands. A non-zero exit is reported through
// ExecuteResult; the error return is reserved for processes that could not
// be started or were cancelled.
type Executor interface {
	Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error)
}

// LocalExecutor runs commands as child processes.
type LocalExecutor struct{}

// Execute runs the command and captures its output.
func (LocalExecutor) Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("empty command")
	}

	// #nosec G204 -- the framework command comes from local configuration
	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.WorkDir
	cmd.Env = os.Environ()
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ExecuteResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
