package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
)

// Context addresses one git view of a working directory: the directory
// itself plus optional environment overrides. A plain Context queries the
// primary working tree; one built with PinnedEnv queries the pinned context
// handed to the task executor.
type Context struct {
	Runner *command.Runner
	Dir    string
	Env    []string
}

// NewContext returns a Context over the primary working tree at dir.
func NewContext(runner *command.Runner, dir string) Context {
	return Context{Runner: runner, Dir: dir}
}

// NewPinnedContext returns a Context that queries dir through the same
// pinned environment the task executor runs under.
func NewPinnedContext(runner *command.Runner, dir string) Context {
	return Context{Runner: runner, Dir: dir, Env: PinnedEnv(dir)}
}

func (c Context) git(ctx context.Context, args ...string) command.Result {
	return c.Runner.GitEnv(ctx, c.Dir, c.Env, args...)
}

// IsRepo checks whether the directory is inside a git repository.
func (c Context) IsRepo(ctx context.Context) bool {
	return c.git(ctx, "rev-parse", "--git-dir").Succeeded()
}

// HeadCommit returns the current HEAD commit hash.
func (c Context) HeadCommit(ctx context.Context) (string, error) {
	result := c.git(ctx, "rev-parse", "HEAD")
	if !result.Succeeded() {
		return "", errors.GitFailed([]string{"rev-parse", "HEAD"}, result.ExitCode, result.Stderr)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Branch returns the current branch name.
func (c Context) Branch(ctx context.Context) (string, error) {
	result := c.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if !result.Succeeded() {
		return "", errors.GitFailed([]string{"rev-parse", "--abbrev-ref", "HEAD"}, result.ExitCode, result.Stderr)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// AheadCount returns how many local commits are not yet on remote/branch.
func (c Context) AheadCount(ctx context.Context, remote, branch string) (int, error) {
	upstream := fmt.Sprintf("%s/%s", remote, branch)
	result := c.git(ctx, "rev-list", "--count", upstream+"..HEAD")
	if !result.Succeeded() {
		return 0, errors.GitFailed([]string{"rev-list", "--count", upstream + "..HEAD"}, result.ExitCode, result.Stderr)
	}
	count, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeGitFailed, "unparseable rev-list output").
			WithDetail("output", result.Stdout)
	}
	return count, nil
}

// Push pushes the branch to the remote. The raw result is returned so the
// caller can distinguish push failure from every other git failure.
func (c Context) Push(ctx context.Context, remote, branch string) command.Result {
	return c.git(ctx, "push", remote, branch)
}
