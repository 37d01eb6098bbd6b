package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub_backend/internal/platform/config"
)

// Connect opens the redis client used as a read-through cache for the
// student-facing test view. The caller decides whether a connect failure is
// fatal; the services treat a nil client as "cache disabled".
func Connect(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
