package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-ledger/config"
)

// ConnectRedis initializes and returns a new Redis client.
// It returns nil, nil when no address is configured, which disables caching.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("Redis address not configured, account cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.WithField("address", cfg.Addr).Info("Redis connection established successfully")
	return rdb, nil
}
