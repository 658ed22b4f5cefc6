package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
)

// Redis wraps the go-redis client. Redis backs creation locks and the
// workspace config cache; both fall back to in-process variants when it is
// unreachable at startup.
type Redis struct {
	Client    *redis.Client
	reachable bool
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r := &Redis{Client: client}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis; using in-process locks and no config cache", zap.Error(err))
	} else {
		r.reachable = true
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}
	return r
}

// Reachable reports whether the startup ping succeeded.
func (r *Redis) Reachable() bool {
	return r != nil && r.reachable
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
