package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerCapturesOutput(t *testing.T) {
	runner := NewRunner()

	result := runner.Run(context.Background(), t.TempDir(), nil, "sh", "-c", "echo out; echo err >&2")

	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
}

func TestRunnerNonzeroExit(t *testing.T) {
	runner := NewRunner()

	result := runner.Run(context.Background(), t.TempDir(), nil, "sh", "-c", "echo bad >&2; exit 3")

	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "bad", result.Stderr)
}

func TestRunnerMissingBinary(t *testing.T) {
	runner := NewRunner()

	result := runner.Run(context.Background(), t.TempDir(), nil, "definitely-not-a-real-binary-xyz")

	assert.Equal(t, -1, result.ExitCode)
	assert.NotEmpty(t, result.Stderr)
}

func TestRunnerAppendsEnv(t *testing.T) {
	runner := NewRunner()

	result := runner.Run(context.Background(), t.TempDir(), []string{"BRIDGE_TEST_VAR=pinned"}, "sh", "-c", "echo $BRIDGE_TEST_VAR; echo $HOME >/dev/null")

	require.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "pinned", result.Stdout)
}
