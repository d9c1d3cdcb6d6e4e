// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"sync"
	"time"

	"humaine-chatbot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.Locker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lock with a per-acquisition token, so an expired
// holder can never release a lock someone else took over.
type RedisLocker struct {
	cli    *redis.Client
	ttl    time.Duration
	tokens sync.Map // key -> token held by this process
}

func NewLocker(c *Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{cli: c.cli, ttl: ttl}
}

func lockKey(key string) string { return "lock:" + key }

func (l *RedisLocker) TryLock(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, lockKey(key), token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.tokens.Store(key, token)
	}
	return ok, nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	v, ok := l.tokens.LoadAndDelete(key)
	if !ok {
		return nil
	}
	_, err := luaUnlock.Run(ctx, l.cli, []string{lockKey(key)}, v.(string)).Result()
	return err
}
