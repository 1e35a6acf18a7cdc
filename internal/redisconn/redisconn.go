// Package redisconn owns the shared redis client. Redis is optional; the
// client is nil when no address is configured and consumers fall back to
// in-process implementations.
package redisconn

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fieldforge/fieldforge/internal/config"
)

func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Named("redis").Info("redis not configured, using in-process fallbacks")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Named("redis").Warn("redis ping failed", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return client
}

var Module = fx.Module("redisconn",
	fx.Provide(NewClient),
)
