package config

import (
	"context"
	"fmt"
	"time"

	"busbooking/internal/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisConnectAttempts = 3

// ConnectRedis opens a client and pings it, retrying a few times.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	var lastErr error
	for attempt := 1; attempt <= redisConnectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			utils.LogEvent("", "redis", "connect", "connected to redis "+cfg.Addr)
			return client, nil
		}
		utils.Logger().Warn("redis ping failed", zap.Int("attempt", attempt), zap.Error(lastErr))
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, lastErr)
}
