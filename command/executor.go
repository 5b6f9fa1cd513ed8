package command

import (
	"context"
	"os/exec"
)

// Executor is the seam between the bridge and process creation. Every
// subprocess the bridge spawns, git queries included, is context-bound, so
// the seam carries exactly one method; tests substitute executors that run
// fixed scripts in place of the real binaries.
type Executor interface {
	// CommandContext creates a context-aware exec.Cmd for the given binary
	// and arguments.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production Executor backed by os/exec.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
