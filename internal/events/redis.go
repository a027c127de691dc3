package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultPublishTimeout bounds each publish so a slow broker cannot stall
// an ingestion call that is only notifying best-effort.
const defaultPublishTimeout = 3 * time.Second

// RedisConfig holds connection parameters for the Redis notifier.
type RedisConfig struct {
	// Addr is either a host:port pair or a full redis:// / rediss:// URL.
	Addr string

	// Password is the optional AUTH password, ignored when Addr is a URL.
	Password string

	// DB is the logical database number, ignored when Addr is a URL.
	DB int

	// Channel is the pub/sub channel events are published to.
	Channel string

	// PublishTimeout bounds each publish call. Defaults to 3s if zero.
	PublishTimeout time.Duration
}

// RedisNotifier publishes events as JSON messages on a Redis pub/sub channel.
// It is safe for concurrent use.
type RedisNotifier struct {
	// client is the underlying Redis client.
	client *redis.Client

	// channel is the pub/sub channel name.
	channel string

	// timeout bounds each publish call.
	timeout time.Duration
}

// NewRedisNotifier connects to Redis and verifies reachability with a ping.
// Addr accepts both "host:port" and full redis:// URLs (managed providers
// hand out the latter).
func NewRedisNotifier(ctx context.Context, cfg *RedisConfig) (*RedisNotifier, error) {
	var client *redis.Client
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opt, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("events: parse redis URL: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("events: redis ping: %w", err)
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &RedisNotifier{
		client:  client,
		channel: cfg.Channel,
		timeout: timeout,
	}, nil
}

// Publish sends one event as a JSON message, bounded by the notifier's own
// timeout so callers never wait on a slow broker.
func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.client.Publish(pubCtx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("events: publish to %q: %w", n.channel, err)
	}
	return nil
}

// Ping checks broker reachability.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	if err := n.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("events: redis ping: %w", err)
	}
	return nil
}

// Name returns the label used in health responses.
func (n *RedisNotifier) Name() string { return "redis" }

// Close closes the underlying Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
