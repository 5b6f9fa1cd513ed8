// Package task executes the external Codex task executor for one guarded
// instruction at a time.
package task

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

// DefaultTimeout is the default wall-clock bound for one task invocation.
const DefaultTimeout = 10 * time.Minute

// EmptyOutputPlaceholder is returned when a successful task printed nothing.
const EmptyOutputPlaceholder = "(the task finished without producing output)"

// waitDelay bounds Wait after the task process has exited (or the run
// context expired) while an inherited pipe is still held open elsewhere.
const waitDelay = time.Second

// Request describes one task invocation. Each invocation is stateless; any
// conversational continuity must already be rendered into Instruction.
type Request struct {
	// Dir is the working directory the task operates on.
	Dir string

	// Env is appended to the process environment, pinning the git directory
	// pointers so the task cannot redirect its git context elsewhere.
	Env []string

	// SandboxToken is the opaque capability string controlling the
	// executor's write permissions. It is passed through, never interpreted.
	SandboxToken string

	// Instruction is the free-text payload for the executor.
	Instruction string
}

// Runner executes the Codex CLI with a wall-clock timeout.
type Runner struct {
	executor command.Executor
	binary   string
	timeout  time.Duration
	logger   *logrus.Entry
}

// NewRunner creates a Runner invoking the given binary.
func NewRunner(binary string, timeout time.Duration) *Runner {
	return NewRunnerWithExecutor(&command.RealExecutor{}, binary, timeout)
}

// NewRunnerWithExecutor creates a Runner with a custom command executor.
func NewRunnerWithExecutor(executor command.Executor, binary string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		executor: executor,
		binary:   binary,
		timeout:  timeout,
		logger:   logging.NewLogger("task-runner"),
	}
}

// Timeout returns the configured wall-clock bound.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes one task. Exit code 0 resolves with captured stdout (a fixed
// placeholder if empty). A nonzero exit resolves with a TASK_FAILED error
// carrying stderr, falling back to stdout when stderr is empty. Exceeding
// the wall-clock bound terminates the process and resolves with
// TASK_TIMEOUT; a process that cannot be started resolves with TASK_SPAWN.
// Resolution follows the task process itself; background children it leaves
// behind do not extend or reclassify it.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{"exec"}
	if req.SandboxToken != "" {
		args = append(args, "--sandbox", req.SandboxToken)
	}
	args = append(args, req.Instruction)

	cmd := r.executor.CommandContext(runCtx, r.binary, args...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{
		"dir":     req.Dir,
		"timeout": r.timeout.String(),
	}).Debug("Starting task executor")

	if err := cmd.Start(); err != nil {
		return "", errors.TaskSpawn(r.binary, err)
	}

	started := time.Now()
	err := cmd.Wait()
	elapsed := time.Since(started)

	// A background child inheriting the stdout pipe can outlive the task
	// process. WaitDelay abandons the pipe; the task's own exit status is
	// what classifies the run.
	if stderrors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}

	if err != nil && runCtx.Err() == context.DeadlineExceeded {
		r.logger.WithField("elapsed", elapsed.String()).Warn("Task terminated after exceeding time limit")
		return "", errors.TaskTimeout(r.timeout)
	}

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		r.logger.WithFields(logrus.Fields{
			"exitCode": exitCode,
			"elapsed":  elapsed.String(),
		}).Warn("Task exited with failure")
		return "", errors.TaskFailed(exitCode, detail)
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = EmptyOutputPlaceholder
	}
	r.logger.WithField("elapsed", elapsed.String()).Info("Task completed")
	return output, nil
}
