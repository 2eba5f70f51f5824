package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// RelayConfig configures a RelayConsumer.
type RelayConfig struct {
	// Name identifies the relay in logs, metrics and the breaker.
	Name string

	// EventTypes are the routing keys to relay.
	EventTypes []string

	// QueueSize bounds the number of events waiting to be relayed.
	// Events arriving when the queue is full are dropped.
	QueueSize int

	// PublishTimeout bounds a single publish call.
	PublishTimeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultRelayConfig returns a sensible default configuration.
func DefaultRelayConfig(name string, eventTypes []string) RelayConfig {
	return RelayConfig{
		Name:             name,
		EventTypes:       eventTypes,
		QueueSize:        256,
		PublishTimeout:   5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// RelayConsumer forwards bus events to an external Publisher. Handle only
// enqueues, so a slow or unreachable broker never delays the publisher; Run
// drains the queue through a circuit breaker. Failed events are logged and
// dropped, never retried.
type RelayConsumer struct {
	cfg       RelayConfig
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	queue     chan *ConsumedEvent
	logger    *slog.Logger
	metrics   observability.Metrics

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRelayConsumer creates a relay for the given publisher.
func NewRelayConsumer(cfg RelayConfig, publisher Publisher, logger *slog.Logger, metrics observability.Metrics) *RelayConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	r := &RelayConsumer{
		cfg:       cfg,
		publisher: publisher,
		queue:     make(chan *ConsumedEvent, cfg.QueueSize),
		logger:    logger.With("relay", cfg.Name),
		metrics:   metrics,
		done:      make(chan struct{}),
	}

	r.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return r
}

// EventTypes implements EventConsumer.
func (r *RelayConsumer) EventTypes() []string {
	return r.cfg.EventTypes
}

// Handle implements EventConsumer. It never blocks.
func (r *RelayConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil
	}

	select {
	case r.queue <- event:
	default:
		r.metrics.Counter(observability.MetricEventsDropped, 1, observability.T("consumer", r.cfg.Name))
		r.logger.Warn("relay queue full, dropping event",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
		)
	}
	return nil
}

// Run relays queued events until Close is called or ctx is canceled. On
// cancellation it stops accepting events and relays what is already queued
// within one PublishTimeout before returning ctx.Err().
func (r *RelayConsumer) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			r.drain(ctx)
			return ctx.Err()
		case event, ok := <-r.queue:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				r.drain(ctx, event)
				return ctx.Err()
			}
			r.relay(ctx, event)
		}
	}
}

func (r *RelayConsumer) drain(ctx context.Context, pending ...*ConsumedEvent) {
	r.Close()

	drainCtx := context.WithoutCancel(ctx)
	if r.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(drainCtx, r.cfg.PublishTimeout)
		defer cancel()
	}

	send := func(event *ConsumedEvent) {
		if drainCtx.Err() != nil {
			r.metrics.Counter(observability.MetricEventsDropped, 1, observability.T("consumer", r.cfg.Name))
			return
		}
		r.relay(drainCtx, event)
	}
	for _, event := range pending {
		send(event)
	}
	for event := range r.queue {
		send(event)
	}
	r.logger.Debug("relay drained")
}

// State returns the breaker state.
func (r *RelayConsumer) State() gobreaker.State {
	return r.breaker.State()
}

// Close stops accepting events. Events still queued are relayed before Run
// returns.
func (r *RelayConsumer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.queue)
}

// Done is closed when Run returns.
func (r *RelayConsumer) Done() <-chan struct{} {
	return r.done
}

func (r *RelayConsumer) relay(ctx context.Context, event *ConsumedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to encode event", "event_id", event.EventID, "error", err)
		return
	}

	_, err = r.breaker.Execute(func() (any, error) {
		pubCtx := ctx
		if r.cfg.PublishTimeout > 0 {
			var cancel context.CancelFunc
			pubCtx, cancel = context.WithTimeout(ctx, r.cfg.PublishTimeout)
			defer cancel()
		}
		return nil, r.publisher.Publish(pubCtx, event.RoutingKey, payload)
	})

	tags := []observability.Tag{observability.T("relay", r.cfg.Name)}
	if err != nil {
		r.metrics.Counter(observability.MetricRelayFailures, 1, tags...)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Debug("relay circuit open, dropping event", "event_id", event.EventID)
			return
		}
		r.logger.Error("failed to relay event",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}
	r.metrics.Counter(observability.MetricEventsRelayed, 1, tags...)
}
