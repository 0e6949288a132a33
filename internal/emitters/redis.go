package emitters

import (
	"context"
	"encoding/json"
	"fmt"

	"wave-portal/internal/config"
	"wave-portal/internal/logger"
	"wave-portal/internal/models"

	"github.com/redis/go-redis/v9"
)

// publisher is the part of redis.Client the emitter uses
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisEmitter publishes every history record on a pub/sub channel.
type RedisEmitter struct {
	client  publisher
	channel string
}

// NewRedisEmitter connects to Redis and checks the connection with a ping.
func NewRedisEmitter(ctx context.Context, cfg config.RedisConfig) (*RedisEmitter, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.GetLogger().Info().Str("addr", opts.Addr).Str("channel", cfg.Channel).Msg("Redis connected")
	return &RedisEmitter{client: client, channel: cfg.Channel}, nil
}

func (r *RedisEmitter) EmitRecord(ctx context.Context, record models.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal wave: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish wave to redis: %w", err)
	}
	return nil
}

func (r *RedisEmitter) Close() error {
	return r.client.Close()
}
