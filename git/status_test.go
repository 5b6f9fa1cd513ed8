package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/testutil"
)

func TestStatusCleanRepo(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir)

	c := NewContext(command.NewRunner(), dir)
	status, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "main", status.Branch)
	assert.False(t, status.IsDirty)
	assert.Zero(t, status.ModifiedCount)
	assert.Zero(t, status.UntrackedCount)
}

func TestStatusDirtyRepo(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed"), 0600))

	c := NewContext(command.NewRunner(), dir)
	status, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, status.IsDirty)
	assert.Equal(t, 1, status.UntrackedCount)
	assert.Equal(t, 1, status.ModifiedCount)
}

func TestStatusNotARepo(t *testing.T) {
	c := NewContext(command.NewRunner(), t.TempDir())

	_, err := c.Status(context.Background())
	assert.Error(t, err)
}

func TestStatusAheadOfUpstream(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "work")
	remoteDir := filepath.Join(t.TempDir(), "remote.git")
	require.NoError(t, os.MkdirAll(workDir, 0755))
	testutil.InitRepoWithRemote(t, workDir, remoteDir)

	testutil.CreateCommit(t, workDir, "a.txt", "a")

	c := NewContext(command.NewRunner(), workDir)
	status, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, status.HasUpstream)
	assert.Equal(t, 1, status.AheadCount)
}
