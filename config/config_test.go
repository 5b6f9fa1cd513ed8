package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: abc
repo:
  dir: /tmp/somewhere
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "codex", cfg.Codex.Binary)
	assert.Equal(t, "main", cfg.Repo.Branch)
	assert.Equal(t, "origin", cfg.Repo.Remote)
	assert.Equal(t, 20, cfg.Limits.MaxHistory)
	assert.Equal(t, 4000, cfg.Limits.MaxContent)
	assert.Equal(t, 4000, cfg.Limits.ChunkSize)
	assert.Equal(t, DefaultContextTurns, cfg.Limits.ContextTurns)
	assert.NotEmpty(t, cfg.StateDir)
	assert.Equal(t, filepath.Join(cfg.StateDir, "sessions.json"), cfg.SessionStorePath())
	assert.Equal(t, filepath.Join(cfg.StateDir, "aliases.json"), cfg.AliasStorePath())
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("BRIDGE_TEST_TOKEN", "secret-token")
	path := writeConfig(t, `
telegram:
  token: ${BRIDGE_TEST_TOKEN}
repo:
  dir: /tmp/somewhere
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Telegram.Token)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "telegram: [unclosed")

	_, err := Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	err := cfg.Validate()
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestValidateRequiresGitMarker(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "abc"},
		Repo:     RepoConfig{Dir: t.TempDir()},
	}
	cfg.applyDefaults()

	err := cfg.Validate()
	assert.True(t, errors.Is(err, errors.ErrCodeNotARepository))
}

func TestValidateAcceptsGitRepo(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir)

	cfg := &Config{
		Telegram: TelegramConfig{Token: "abc"},
		Repo:     RepoConfig{Dir: dir},
		Codex:    CodexConfig{Timeout: "5m"},
	}
	cfg.applyDefaults()

	require.NoError(t, cfg.Validate())

	timeout, err := cfg.TaskTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, timeout)
}

func TestValidateRejectsBadTimeout(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir)

	cfg := &Config{
		Telegram: TelegramConfig{Token: "abc"},
		Repo:     RepoConfig{Dir: dir},
		Codex:    CodexConfig{Timeout: "soonish"},
	}
	cfg.applyDefaults()

	err := cfg.Validate()
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}
