package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wbaxter3/codex-telegram-bridge/bot"
	"github.com/wbaxter3/codex-telegram-bridge/cli"
	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/config"
	"github.com/wbaxter3/codex-telegram-bridge/gate"
	"github.com/wbaxter3/codex-telegram-bridge/git"
	"github.com/wbaxter3/codex-telegram-bridge/hosting"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
	"github.com/wbaxter3/codex-telegram-bridge/repo"
	"github.com/wbaxter3/codex-telegram-bridge/session"
	"github.com/wbaxter3/codex-telegram-bridge/task"
	"github.com/wbaxter3/codex-telegram-bridge/telegram"
	"github.com/wbaxter3/codex-telegram-bridge/version"
)

const configWatchDebounce = 250 * time.Millisecond

func main() {
	rootCmd := cli.NewStandardCommand("codex-telegram-bridge", "Relay chat messages to a Codex working session")
	rootCmd.RunE = runServe

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge and poll for messages",
		RunE:  runServe,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo().String())
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	configPath := cli.ResolveConfigPath(opts.ConfigFile)
	cfg, err := config.Load(configPath)
	if err != nil {
		return handler.Handle(err)
	}
	if err := cfg.Validate(); err != nil {
		return handler.Handle(err)
	}

	logging.Configure(cfg.Logging)
	logger := cli.GetLogger(cmd)
	logger.WithField("version", version.Version).Info("Starting codex-telegram-bridge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout, err := cfg.TaskTimeout()
	if err != nil {
		return handler.Handle(err)
	}

	runner := command.NewRunner()

	store := session.NewStore(cfg.SessionStorePath(), session.Limits{
		MaxHistory: cfg.Limits.MaxHistory,
		MaxContent: cfg.Limits.MaxContent,
	})
	if err := store.Load(); err != nil {
		return handler.Handle(err)
	}

	registry := repo.NewRegistry(cfg.AliasStorePath(), repo.Definition{
		Dir:    cfg.Repo.Dir,
		Branch: cfg.Repo.Branch,
		Remote: cfg.Repo.Remote,
	}, runner)
	if err := registry.Load(); err != nil {
		return handler.Handle(err)
	}

	var gh bot.HostingClient
	if cfg.GitHub.Token != "" {
		client, ghErr := hosting.NewClient(ctx, cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
		if ghErr != nil {
			logger.WithError(ghErr).Warn("GitHub client unavailable, /pr and /ci disabled")
		} else {
			gh = client
		}
	}

	botHandler := bot.NewHandler(bot.Params{
		Gate:         gate.New(),
		Store:        store,
		Registry:     registry,
		Runner:       task.NewRunner(cfg.Codex.Binary, timeout),
		Checker:      git.NewSafetyChecker(runner),
		Hosting:      gh,
		Git:          runner,
		SandboxToken: cfg.Codex.Sandbox,
		ContextTurns: cfg.Limits.ContextTurns,
		ChunkSize:    cfg.Limits.ChunkSize,
	})

	transport, err := telegram.NewClient(cfg.Telegram.Token)
	if err != nil {
		return handler.Handle(err)
	}

	bridge := bot.NewBridge(transport, botHandler, cfg.Telegram.AllowedChats)

	// Log level changes apply without a restart; everything else needs one.
	watcher, err := config.NewWatcher(configPath, configWatchDebounce, func(updated *config.Config) {
		logging.Configure(updated.Logging)
		logger.Info("Reloaded logging configuration")
	})
	if err != nil {
		logger.WithError(err).Warn("Config watcher unavailable, continuing without hot reload")
	} else {
		go watcher.Start(ctx)
		defer watcher.Close()
	}

	if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
		return handler.Handle(err)
	}

	logger.Info("Bridge stopped")
	return nil
}
