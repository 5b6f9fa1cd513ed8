package task

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
)

// scriptExecutor ignores the requested binary and runs a fixed shell script,
// standing in for the Codex CLI.
type scriptExecutor struct {
	script string
}

func (e *scriptExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", e.script)
}

// argEchoExecutor prints the arguments it was asked to run, one per line.
type argEchoExecutor struct{}

func (e *argEchoExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "printf", append([]string{"%s\n"}, args...)...)
}

func newTestRunner(t *testing.T, script string, timeout time.Duration) *Runner {
	t.Helper()
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	return NewRunnerWithExecutor(&scriptExecutor{script: script}, "codex", timeout)
}

func TestRunSuccessCapturesStdout(t *testing.T) {
	runner := newTestRunner(t, "echo done", time.Minute)

	output, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "do it"})
	require.NoError(t, err)
	assert.Equal(t, "done", output)
}

func TestRunEmptyOutputPlaceholder(t *testing.T) {
	runner := newTestRunner(t, "true", time.Minute)

	output, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "quiet"})
	require.NoError(t, err)
	assert.Equal(t, EmptyOutputPlaceholder, output)
}

func TestRunNonzeroExitCarriesStderr(t *testing.T) {
	runner := newTestRunner(t, "echo broken >&2; exit 2", time.Minute)

	_, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "fail"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTaskFailed))
	assert.Contains(t, err.Error(), "broken")
}

func TestRunNonzeroExitFallsBackToStdout(t *testing.T) {
	runner := newTestRunner(t, "echo only-stdout; exit 1", time.Minute)

	_, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "fail"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTaskFailed))
	assert.Contains(t, err.Error(), "only-stdout")
}

func TestRunTimeoutIsDistinct(t *testing.T) {
	runner := newTestRunner(t, "sleep 5", 100*time.Millisecond)

	start := time.Now()
	_, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "hang"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrCodeTaskTimeout))
	assert.False(t, errors.Is(err, errors.ErrCodeTaskFailed))
	assert.Less(t, time.Since(start), 3*time.Second, "process must be terminated, not waited out")
}

func TestRunBackgroundChildDoesNotStallResolution(t *testing.T) {
	runner := newTestRunner(t, "echo done; sleep 5 &", 30*time.Second)

	start := time.Now()
	output, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "spawn child"})
	require.NoError(t, err)

	assert.Equal(t, "done", output)
	assert.Less(t, time.Since(start), 3*time.Second,
		"resolution must follow the task's own exit, not a lingering child")
}

func TestRunCleanExitWithLingeringChildIsNotTimeout(t *testing.T) {
	runner := newTestRunner(t, "echo done; sleep 2 &", 500*time.Millisecond)

	output, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "child"})
	require.NoError(t, err)
	assert.Equal(t, "done", output)
}

func TestRunSpawnErrorIsDistinct(t *testing.T) {
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	runner := NewRunner("definitely-not-a-real-binary-xyz", time.Minute)

	_, err := runner.Run(context.Background(), Request{Dir: t.TempDir(), Instruction: "spawn"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTaskSpawn))
}

func TestRunPassesSandboxTokenAndInstruction(t *testing.T) {
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	runner := NewRunnerWithExecutor(&argEchoExecutor{}, "codex", time.Minute)

	output, err := runner.Run(context.Background(), Request{
		Dir:          t.TempDir(),
		SandboxToken: "workspace-write",
		Instruction:  "fix the bug",
	})
	require.NoError(t, err)

	assert.Contains(t, output, "exec")
	assert.Contains(t, output, "--sandbox")
	assert.Contains(t, output, "workspace-write")
	assert.Contains(t, output, "fix the bug")
}
