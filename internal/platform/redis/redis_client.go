package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/config"
)

// NewClient connects to Redis and verifies the connection with a ping.
// Callers treat a nil client as "run without cache".
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr, "error", err)
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr)
	return rdb, nil
}
