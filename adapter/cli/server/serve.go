// Package server provides the serve command, which runs the registry, the
// HTTP API, the observer hub and optionally MCP in one process.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/internal/app"
	mcpinternal "github.com/felixgeelhaar/taskboard/internal/mcp"
	"github.com/felixgeelhaar/taskboard/pkg/config"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	addr  string
	noMCP bool
)

// Cmd is the serve command.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task registry server",
	Long: `Run the task registry with its HTTP API, the /ws observer endpoint
and, unless --no-mcp is given, the MCP server. Configured Redis and
RabbitMQ relays are started as well.

Examples:
  taskboard serve
  taskboard serve --addr :9090 --no-mcp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cli.ConfigFile())
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.HTTPAddr = addr
		}
		if noMCP {
			cfg.MCPAddr = ""
		}

		logger := observability.NewLogger(cfg.LogConfig(cli.Version))
		cli.SetLogger(logger)

		return Run(cmd.Context(), cfg, logger)
	},
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	Cmd.Flags().BoolVar(&noMCP, "no-mcp", false, "do not start the MCP server")
}

// NewAPIServer builds the HTTP API server on top of container.
func NewAPIServer(cfg *config.Config, container *app.Container, logger *slog.Logger) *api.Server {
	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.CORSOrigins = cfg.CORSOrigins
	serverCfg.MetricsEnabled = cfg.MetricsEnabled

	tasks := api.NewTaskHandler(api.TaskHandlerConfig{
		CreateTask: container.CreateTaskHandler,
		UpdateTask: container.UpdateTaskHandler,
		DeleteTask: container.DeleteTaskHandler,
		GetTask:    container.GetTaskHandler,
		ListTasks:  container.ListTasksHandler,
		Analytics:  container.AnalyticsHandler,
		Scorer:     container.ScoringEngine,
		Logger:     logger,
	})

	return api.NewServer(serverCfg, api.Dependencies{
		Tasks:   tasks,
		Hub:     container.Hub,
		Health:  container.Health,
		Metrics: container.Metrics,
	}, logger)
}

// Run serves until ctx is canceled or a listener fails, then shuts every
// component down.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	srv := NewAPIServer(cfg, container, logger)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		container.RunRelays(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()

	if cfg.MCPAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
				cancel()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down taskboard server")

	// Shutdown does not track hijacked websocket connections.
	container.Hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("API server shutdown error", "error", err)
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
