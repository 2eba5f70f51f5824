package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/adapter/cli/mcp"
	"github.com/felixgeelhaar/taskboard/adapter/cli/server"
	"github.com/felixgeelhaar/taskboard/adapter/cli/task"
	"github.com/felixgeelhaar/taskboard/pkg/config"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	logger = observability.NewLogger(cfg.LogConfig(cli.Version))
	cli.SetLogger(logger)

	// Task commands talk to the configured server; --server overrides it.
	cli.SetApp(cli.NewRemoteApp(cfg.ServerURL))

	// Register commands
	cli.AddCommand(task.Cmd)
	cli.AddCommand(server.Cmd)
	cli.AddCommand(mcp.Cmd)

	// Execute CLI
	cli.ExecuteContext(ctx)
}
