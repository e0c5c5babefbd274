package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis — реализация Store поверх go-redis.
type Redis struct {
	rdb *redis.Client
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет доступность (fail-fast на старте).
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	const op = "cache.redis.NewRedis"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "cache.redis.Get"

	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "cache.redis.Set"

	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Increment: INCR + EXPIRE NX + PTTL в одной транзакции MULTI/EXEC.
// EXPIRE NX выставляет TTL только ключу без TTL, то есть в начале окна.
func (r *Redis) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	const op = "cache.redis.Increment"

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		ttl = window
	}

	return incr.Val(), ttl, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	const op = "cache.redis.Delete"

	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping проверяет соединение (readiness).
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (r *Redis) Close() error { return r.rdb.Close() }

var _ Store = (*Redis)(nil)
