package lock

import (
	"github.com/fieldforge/fieldforge/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the order locker, redis-backed when configured.
var Module = fx.Module("lock",
	fx.Provide(NewOrderLocker),
)

func NewOrderLocker(cfg config.Config, log *zap.Logger, client *redis.Client) OrderLocker {
	if client != nil {
		log.Info("using redis order locker", zap.String("addr", cfg.RedisAddr))
		return NewRedisLocker(client)
	}
	return NewKeyedMutex()
}
