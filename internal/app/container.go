package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/subscribers"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/persistence"
	"github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/realtime"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	sharedPersistence "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/taskboard/pkg/config"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Registry
	TaskRepo      task.Repository
	UnitOfWork    sharedApplication.UnitOfWork
	ScoringEngine *services.ScoringEngine

	// Events
	InProcessEventBus *eventbus.InProcessEventBus
	Relays            []*eventbus.RelayConsumer
	TaskCounter       *subscribers.TaskCountSubscriber

	// Observers
	Hub *realtime.Hub

	// Task Command Handlers
	CreateTaskHandler *commands.CreateTaskHandler
	UpdateTaskHandler *commands.UpdateTaskHandler
	DeleteTaskHandler *commands.DeleteTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler
	AnalyticsHandler *queries.AnalyticsHandler

	publishers   []eventbus.Publisher
	relaysActive atomic.Bool
	closeOnce    sync.Once
}

// relayDrainTimeout bounds how long Close waits for queued relay events.
const relayDrainTimeout = 5 * time.Second

// Options customizes container construction.
type Options struct {
	// Registerer receives the Prometheus collectors. Nil uses the default
	// registerer when metrics are enabled.
	Registerer prometheus.Registerer

	// Metrics overrides the metrics backend chosen from the config.
	Metrics observability.Metrics

	// HandlerOptions are passed to every command handler.
	HandlerOptions []commands.Option

	// Scorer overrides the wall-clock scoring engine.
	Scorer *services.ScoringEngine
}

// NewContainer creates and wires all dependencies. Relays are connected
// here; call RunRelays to start draining them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	return NewContainerWithOptions(ctx, cfg, logger, Options{})
}

// NewContainerWithOptions is NewContainer with overrides for tests and
// embedding.
func NewContainerWithOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", config.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Health: observability.NewHealthRegistry(),
	}

	switch {
	case opts.Metrics != nil:
		c.Metrics = opts.Metrics
	case cfg.MetricsEnabled:
		c.Metrics = observability.NewPrometheusMetrics(opts.Registerer, logger)
	default:
		c.Metrics = observability.NoopMetrics{}
	}

	// Registry
	c.TaskRepo = persistence.NewMemoryTaskRepository()
	c.UnitOfWork = sharedPersistence.NewSerialUnitOfWork()
	c.ScoringEngine = opts.Scorer
	if c.ScoringEngine == nil {
		c.ScoringEngine = services.NewScoringEngine()
	}

	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger).WithMetrics(c.Metrics)

	handlerOpts := append([]commands.Option{commands.WithMetrics(c.Metrics)}, opts.HandlerOptions...)

	// Create task command handlers
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.InProcessEventBus, c.UnitOfWork, c.ScoringEngine, handlerOpts...)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.InProcessEventBus, c.UnitOfWork, c.ScoringEngine, handlerOpts...)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(c.TaskRepo, c.InProcessEventBus, c.UnitOfWork, handlerOpts...)

	// Create task query handlers
	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)
	c.AnalyticsHandler = queries.NewAnalyticsHandler(c.TaskRepo)

	// Subscribers
	c.TaskCounter = subscribers.NewTaskCountSubscriber(c.Metrics, logger)
	c.InProcessEventBus.RegisterConsumer(c.TaskCounter)

	hubCfg := realtime.DefaultHubConfig()
	if cfg.ObserverBuffer > 0 {
		hubCfg.Buffer = cfg.ObserverBuffer
	}
	if cfg.ObserverWriteTimeout > 0 {
		hubCfg.WriteTimeout = cfg.ObserverWriteTimeout
	}
	hubCfg.AllowedOrigins = cfg.CORSOrigins
	c.Hub = realtime.NewHub(c.InProcessEventBus, hubCfg, logger, c.Metrics)

	if err := c.connectRelays(ctx); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("container initialized",
		"relays", len(c.Relays),
		"metrics_enabled", cfg.MetricsEnabled,
	)

	return c, nil
}

// connectRelays attaches a relay observer for each configured broker. In
// development an unreachable broker is logged and skipped.
func (c *Container) connectRelays(ctx context.Context) error {
	cfg := c.Config

	if cfg.RedisURL != "" {
		publisher, err := eventbus.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannel, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			c.Logger.Warn("Redis not available, relay disabled", "error", err)
		} else {
			c.Health.Register("redis", observability.RedisHealthChecker(publisher.Ping))
			c.addRelay("redis", publisher)
			c.Logger.Info("connected to Redis", "channel", cfg.RedisChannel)
		}
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, relay disabled", "error", err)
		} else {
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			c.addRelay("rabbitmq", publisher)
			c.Logger.Info("connected to RabbitMQ")
		}
	}

	return nil
}

func (c *Container) addRelay(name string, publisher eventbus.Publisher) {
	relayCfg := eventbus.DefaultRelayConfig(name, task.RoutingKeys)
	if c.Config.RelayFailureThreshold > 0 {
		relayCfg.FailureThreshold = uint32(c.Config.RelayFailureThreshold)
	}
	if c.Config.RelayOpenTimeout > 0 {
		relayCfg.OpenTimeout = c.Config.RelayOpenTimeout
	}

	relay := eventbus.NewRelayConsumer(relayCfg, publisher, c.Logger, c.Metrics)
	c.InProcessEventBus.RegisterConsumer(relay)
	c.Health.Register(name+"_relay", observability.CircuitHealthChecker(func() string {
		return relay.State().String()
	}))

	c.Relays = append(c.Relays, relay)
	c.publishers = append(c.publishers, publisher)
}

// RunRelays drains every relay until ctx is canceled.
func (c *Container) RunRelays(ctx context.Context) {
	c.relaysActive.Store(true)
	var wg sync.WaitGroup
	for _, relay := range c.Relays {
		wg.Add(1)
		go func(r *eventbus.RelayConsumer) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				c.Logger.Warn("relay stopped", "error", err)
			}
		}(relay)
	}
	wg.Wait()
}

// Close cleans up all resources. It is safe to call more than once.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		if c.Hub != nil {
			c.Hub.Close()
		}

		for _, relay := range c.Relays {
			c.InProcessEventBus.UnregisterConsumer(relay)
			relay.Close()
		}
		if c.relaysActive.Load() {
			for _, relay := range c.Relays {
				select {
				case <-relay.Done():
				case <-time.After(relayDrainTimeout):
					c.Logger.Warn("relay did not drain before shutdown")
				}
			}
		}

		for _, publisher := range c.publishers {
			if err := publisher.Close(); err != nil {
				c.Logger.Warn("error closing event publisher", "error", err)
			}
		}

		if c.InProcessEventBus != nil {
			if err := c.InProcessEventBus.Close(); err != nil {
				c.Logger.Warn("error closing event bus", "error", err)
			}
		}
	})
}
