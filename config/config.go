package config

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/git"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
	"github.com/wbaxter3/codex-telegram-bridge/output"
	"github.com/wbaxter3/codex-telegram-bridge/session"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultContextTurns is how many history turns are rendered into each
// instruction payload.
const DefaultContextTurns = 10

// Config is the bridge configuration loaded from bridge.yml.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Codex    CodexConfig    `yaml:"codex"`
	Repo     RepoConfig     `yaml:"repo"`
	GitHub   GitHubConfig   `yaml:"github"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  logging.Config `yaml:"logging"`

	// StateDir holds the session store, alias store, and default log sink.
	StateDir string `yaml:"state_dir"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	Token string `yaml:"token"`

	// AllowedChats lists the chat IDs the bridge will answer. Updates from
	// any other chat are ignored.
	AllowedChats []int64 `yaml:"allowed_chats"`
}

// CodexConfig configures the external task executor.
type CodexConfig struct {
	// Binary is the executor command name, resolved via PATH.
	Binary string `yaml:"binary"`

	// Sandbox is the opaque capability token handed to the executor.
	Sandbox string `yaml:"sandbox"`

	// Timeout is the wall-clock bound per invocation, e.g. "10m".
	Timeout string `yaml:"timeout"`
}

// RepoConfig is the statically configured default repository context.
type RepoConfig struct {
	Dir    string `yaml:"dir"`
	Branch string `yaml:"branch"`
	Remote string `yaml:"remote"`
}

// GitHubConfig configures the code-hosting API. An empty token degrades the
// pull-request and CI commands to a user message.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// LimitsConfig bounds history, message, and chunk sizes.
type LimitsConfig struct {
	MaxHistory   int `yaml:"max_history"`
	MaxContent   int `yaml:"max_content"`
	ChunkSize    int `yaml:"chunk_size"`
	ContextTurns int `yaml:"context_turns"`
}

// Load reads and parses a bridge configuration file, expanding ${VAR}
// references from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Codex.Binary == "" {
		c.Codex.Binary = "codex"
	}
	if c.Repo.Branch == "" {
		c.Repo.Branch = "main"
	}
	if c.Repo.Remote == "" {
		c.Repo.Remote = "origin"
	}
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.StateDir = filepath.Join(home, ".codex-telegram-bridge")
		}
	}
	c.StateDir = expandPath(c.StateDir)
	c.Repo.Dir = expandPath(c.Repo.Dir)

	if c.Limits.MaxHistory <= 0 {
		c.Limits.MaxHistory = session.DefaultMaxHistory
	}
	if c.Limits.MaxContent <= 0 {
		c.Limits.MaxContent = session.DefaultMaxContent
	}
	if c.Limits.ChunkSize <= 0 {
		c.Limits.ChunkSize = output.DefaultChunkSize
	}
	if c.Limits.ContextTurns <= 0 {
		c.Limits.ContextTurns = DefaultContextTurns
	}
}

// Validate checks the settings the bridge cannot start without. Failures
// here are fatal; degraded-but-runnable settings (missing GitHub token) are
// not validated.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.ConfigInvalid("telegram.token is required")
	}
	if c.Repo.Dir == "" {
		return errors.ConfigInvalid("repo.dir is required")
	}
	if _, err := c.TaskTimeout(); err != nil {
		return errors.ConfigInvalid("codex.timeout is not a valid duration: " + c.Codex.Timeout)
	}
	if !git.NewContext(command.NewRunner(), c.Repo.Dir).IsRepo(context.Background()) {
		return errors.NotARepository(c.Repo.Dir)
	}
	return nil
}

// TaskTimeout parses the configured task timeout, defaulting when unset.
func (c *Config) TaskTimeout() (time.Duration, error) {
	if c.Codex.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Codex.Timeout)
}

// SessionStorePath returns the session store location under the state dir.
func (c *Config) SessionStorePath() string {
	return filepath.Join(c.StateDir, "sessions.json")
}

// AliasStorePath returns the alias store location under the state dir.
func (c *Config) AliasStorePath() string {
	return filepath.Join(c.StateDir, "aliases.json")
}

// expandEnvVars replaces ${VAR} references with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
