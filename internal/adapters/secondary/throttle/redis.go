package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.WriteThrottle = (*RedisThrottle)(nil)

// RedisThrottle is a fixed-window counter per actor: INCR + EXPIRE in one
// MULTI. It only bounds write volume; it never stores visibility state.
type RedisThrottle struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisThrottle(client redis.Cmdable, limit int64, window time.Duration) *RedisThrottle {
	return &RedisThrottle{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (t *RedisThrottle) Allow(ctx context.Context, actorID string) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}

	// key: "throttle:writes:<actor>:<bucket>"
	bucket := t.now().UnixNano() / int64(t.window)
	key := fmt.Sprintf("throttle:writes:%s:%d", actorID, bucket)

	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle: %w", err)
	}

	return incr.Val() <= t.limit, nil
}
