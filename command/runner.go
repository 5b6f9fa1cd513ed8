package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
)

// Result holds the outcome of a finished command. Runner never returns a Go
// error for command failures; callers inspect ExitCode instead.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Succeeded reports whether the command exited zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner executes short-lived commands and captures their output whole.
// It is the bridge's "never raises" executor for git: a command that cannot
// even be started is reported as exit code -1 with the spawn error on stderr.
type Runner struct {
	executor Executor
}

// NewRunner creates a Runner backed by the real os/exec executor.
func NewRunner() *Runner {
	return NewRunnerWithExecutor(&RealExecutor{})
}

// NewRunnerWithExecutor creates a Runner with a custom Executor.
func NewRunnerWithExecutor(executor Executor) *Runner {
	return &Runner{executor: executor}
}

// Run executes name with args in dir. When env is non-nil it is appended to
// the current process environment, letting callers pin variables such as
// GIT_DIR without losing PATH.
func (r *Runner) Run(ctx context.Context, dir string, env []string, name string, args ...string) Result {
	cmd := r.executor.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: strings.TrimRight(stdout.String(), "\n"),
		Stderr: strings.TrimRight(stderr.String(), "\n"),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The command never started (binary missing, permission denied).
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	return result
}

// Git runs a git command in dir with the default environment.
func (r *Runner) Git(ctx context.Context, dir string, args ...string) Result {
	return r.Run(ctx, dir, nil, "git", args...)
}

// GitEnv runs a git command in dir with extra environment variables, used to
// query the pinned git context handed to the task executor.
func (r *Runner) GitEnv(ctx context.Context, dir string, env []string, args ...string) Result {
	return r.Run(ctx, dir, env, "git", args...)
}
