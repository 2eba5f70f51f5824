package subscribers

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// TaskCountSubscriber keeps the MetricTasksActive gauge in step with the
// registry by counting created and deleted events. The registry starts
// empty, so the count starts at zero.
type TaskCountSubscriber struct {
	count   atomic.Int64
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewTaskCountSubscriber creates a new task count subscriber.
func NewTaskCountSubscriber(metrics observability.Metrics, logger *slog.Logger) *TaskCountSubscriber {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &TaskCountSubscriber{metrics: metrics, logger: logger}
	s.metrics.Gauge(observability.MetricTasksActive, 0)
	return s
}

// EventTypes returns the event types this subscriber handles.
func (s *TaskCountSubscriber) EventTypes() []string {
	return []string{task.RoutingKeyCreated, task.RoutingKeyDeleted}
}

// Handle processes an event.
func (s *TaskCountSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var n int64
	switch event.RoutingKey {
	case task.RoutingKeyCreated:
		n = s.count.Add(1)
	case task.RoutingKeyDeleted:
		n = s.count.Add(-1)
	default:
		s.logger.Warn("unknown event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	s.metrics.Gauge(observability.MetricTasksActive, float64(n))
	return nil
}

// Count returns the number of tasks seen created and not yet deleted.
func (s *TaskCountSubscriber) Count() int64 {
	return s.count.Load()
}
