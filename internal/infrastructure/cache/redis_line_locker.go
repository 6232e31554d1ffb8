package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lineLockKeyPrefix = "personalizer:line-lock:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lease taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLineLocker implements personalization.LineLocker with SET NX PX leases
type RedisLineLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLineLocker creates a locker on an existing client
func NewRedisLineLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLineLocker {
	return &RedisLineLocker{client: client, ttl: ttl, logger: logger}
}

// Acquire takes a lease on the line
func (l *RedisLineLocker) Acquire(ctx context.Context, lineID uuid.UUID) (func(), bool, error) {
	key := lineLockKeyPrefix + lineID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire line lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// release must work after the request context is cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release line lock",
				zap.String("line_id", lineID.String()),
				zap.Error(err),
			)
		}
	}
	return release, true, nil
}

var _ personalization.LineLocker = (*RedisLineLocker)(nil)
