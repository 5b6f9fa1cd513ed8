package git

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

// Outcome classifies the result of a confirmed push.
type Outcome string

const (
	// OutcomeSkipped means the task produced no commit, so nothing was pushed.
	OutcomeSkipped Outcome = "SKIPPED"

	// OutcomePushed means a commit was produced and delivered to the remote.
	OutcomePushed Outcome = "PUSHED"
)

// PushReport describes what a confirmed push actually did.
type PushReport struct {
	Outcome    Outcome
	TaskOutput string

	// HeadBefore and HeadAfter bracket the task invocation.
	HeadBefore string
	HeadAfter  string

	// WorkTreeDirty is set on OutcomeSkipped so the user learns whether the
	// task left uncommitted changes behind.
	WorkTreeDirty bool
}

// TaskFunc runs the commit-producing task and returns its output.
type TaskFunc func(ctx context.Context) (string, error)

// SafetyChecker guards the confirmed leg of the staged-push workflow: it
// verifies the pinned git context has not accumulated its own history,
// brackets the task with HEAD captures, and only pushes when a commit was
// actually produced.
type SafetyChecker struct {
	runner *command.Runner
	logger *logrus.Entry
}

// NewSafetyChecker creates a SafetyChecker on the given command runner.
func NewSafetyChecker(runner *command.Runner) *SafetyChecker {
	return &SafetyChecker{
		runner: runner,
		logger: logging.NewLogger("git-safety"),
	}
}

// ConfirmPush executes the confirmed push sequence against the repository at
// dir, tracking remote/branch. The task callback is expected to modify files
// and create exactly one commit; pushing is the checker's job, never the
// task's. Whatever the outcome, the caller must clear its staged push state.
func (c *SafetyChecker) ConfirmPush(ctx context.Context, dir, branch, remote string, task TaskFunc) (*PushReport, error) {
	primary := NewContext(c.runner, dir)
	pinned := NewPinnedContext(c.runner, dir)

	headBefore, err := primary.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}

	// Fail fast if the pinned context already holds unpushed commits. Running
	// the task on top of them would let a divergent history accumulate
	// outside the normal push path.
	pinnedAhead, err := pinned.AheadCount(ctx, remote, branch)
	if err != nil {
		return nil, err
	}
	if pinnedAhead > 0 {
		return nil, errors.New(errors.ErrCodeGitFailed,
			"the task's git context already has unpushed commits; reconcile the repository before confirming another push").
			WithDetail("aheadCount", pinnedAhead)
	}

	output, err := task(ctx)
	if err != nil {
		return nil, err
	}

	headAfter, err := primary.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	ahead, err := primary.AheadCount(ctx, remote, branch)
	if err != nil {
		return nil, err
	}

	report := &PushReport{
		TaskOutput: output,
		HeadBefore: headBefore,
		HeadAfter:  headAfter,
	}

	if headAfter == headBefore && ahead == 0 {
		report.Outcome = OutcomeSkipped
		if status, statusErr := primary.Status(ctx); statusErr == nil {
			report.WorkTreeDirty = status.IsDirty
		}
		c.logger.WithField("head", headAfter).Info("Task produced no commit, push skipped")
		return report, nil
	}

	result := primary.Push(ctx, remote, branch)
	if !result.Succeeded() {
		stderr := result.Stderr
		if stderr == "" {
			stderr = result.Stdout
		}
		c.logger.WithFields(logrus.Fields{
			"exitCode": result.ExitCode,
			"remote":   remote,
			"branch":   branch,
		}).Error("Push failed after successful commit")
		return report, errors.PushFailed(stderr)
	}

	report.Outcome = OutcomePushed
	c.logger.WithFields(logrus.Fields{
		"from": headBefore,
		"to":   headAfter,
	}).Info("Pushed confirmed commit")
	return report, nil
}
