package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// EventPublisher delivers domain events to the registered observers.
type EventPublisher interface {
	PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error
}

// publishEvents stamps the pending events of t with command metadata and
// publishes them in order. It must run inside the unit of work so that
// events leave in the same order as the mutations that caused them.
func publishEvents(ctx context.Context, publisher EventPublisher, t *task.Task) error {
	events := t.DomainEvents()
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

	for _, event := range events {
		if err := publisher.PublishDomainEvent(ctx, event); err != nil {
			return err
		}
	}
	t.ClearDomainEvents()
	return nil
}

// handlerOptions holds the collaborators shared by every command handler.
type handlerOptions struct {
	now     func() time.Time
	metrics observability.Metrics
}

func defaultHandlerOptions() handlerOptions {
	return handlerOptions{
		now:     time.Now,
		metrics: observability.NoopMetrics{},
	}
}

// Option customises a command handler.
type Option func(*handlerOptions)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *handlerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(o *handlerOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

func applyOptions(opts []Option) handlerOptions {
	o := defaultHandlerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
