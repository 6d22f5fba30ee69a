package lock

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/salescommission/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(NewGuard),
)

// NewGuard returns a redis backed guard when REDIS_ADDR is set and an
// in-process guard otherwise.
func NewGuard(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Guard {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Info("lock.guard.local")
		return NewLocalGuard()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("lock.guard.redis_unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	log.Info("lock.guard.redis", zap.String("addr", addr))
	return NewRedisGuard(client)
}
