package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker ejecuta una tarea solo si obtiene el lock; una sola instancia corre cada barrido.
type Locker interface {
	TryRun(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

// RedisLocker lock distribuido con redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewLocker construye el locker sobre el cliente Redis.
func NewLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// TryRun devuelve false sin error si otra instancia tiene el lock.
func (l *RedisLocker) TryRun(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	lock, err := l.client.Obtain(ctx, key("lock", name), ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = lock.Release(context.Background()) }()

	runCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return true, fn(runCtx)
}
