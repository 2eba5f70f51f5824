package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel events are relayed to.
const DefaultRedisChannel = "taskboard:events"

// RedisPublisher relays events over Redis pub/sub. Every message goes to one
// channel; subscribers route on the routing_key field of the payload.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, url, channel string, logger *slog.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() // Best-effort cleanup
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, channel, logger), nil
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	logger.Info("Redis publisher ready", "channel", channel)
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Publish sends the payload to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return err
	}

	p.logger.Debug("message published",
		"channel", p.channel,
		"routing_key", routingKey,
		"receivers", receivers,
	)
	return nil
}

// Ping checks Redis connectivity.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	if err := p.client.Close(); err != nil {
		return err
	}
	p.logger.Info("Redis publisher closed")
	return nil
}
