/*
redis.go - Redis-backed Locker

PURPOSE:
  Distributed variant of the TTL lock for multi-node deployments. Acquire
  is SET NX PX; Release compares the stored token before deleting so a
  handle whose TTL already fired cannot free somebody else's lock.
*/
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by a Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
	poll   time.Duration
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "lock:", poll: defaultPoll}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error) {
	token := uuid.NewString()
	full := r.prefix + key
	for {
		ok, err := r.client.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return Handle{}, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return Handle{Key: key, Token: token}, nil
		}
		select {
		case <-ctx.Done():
			return Handle{}, ErrNotAcquired
		case <-time.After(r.poll):
		}
	}
}

func (r *Redis) Release(ctx context.Context, h Handle) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.prefix + h.Key}, h.Token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("lock: release %s: %w", h.Key, err)
	}
	return nil
}
