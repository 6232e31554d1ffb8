package cache

import (
	"context"

	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the session-state stores chosen at startup
type Backends struct {
	Drafts personalization.DraftStore
	Locker personalization.LineLocker
	client *redis.Client
}

// NewBackends picks Redis when it is enabled and reachable, and falls back to
// process memory otherwise. In-memory locks do not coordinate across instances.
func NewBackends(redisCfg config.RedisConfig, drafts config.DraftConfig, lock config.LineLockConfig, logger *zap.Logger) *Backends {
	if redisCfg.Enabled {
		client, err := NewRedisClient(redisCfg)
		if err == nil {
			logger.Info("Using Redis for drafts and line locks", zap.String("addr", redisCfg.Addr()))
			return &Backends{
				Drafts: NewRedisDraftStore(client, drafts.TTL),
				Locker: NewRedisLineLocker(client, lock.TTL, logger),
				client: client,
			}
		}
		logger.Warn("Redis unavailable, falling back to in-memory drafts and line locks. "+
			"Concurrent edits of one line are only serialized within this instance.",
			zap.Error(err),
		)
	}

	return &Backends{
		Drafts: NewInMemoryDraftStore(drafts.TTL),
		Locker: NewInMemoryLineLocker(lock.TTL),
	}
}

// Ping reports whether the Redis backend answers. In-memory backends are always ready.
func (b *Backends) Ping(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Ping(ctx).Err()
}

// Close releases the Redis connection if one is in use
func (b *Backends) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
