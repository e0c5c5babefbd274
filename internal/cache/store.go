// cache содержит доступ к внешнему key/value-хранилищу (Redis) и
// построенный поверх него кэш пользователей.
//
// Хранилище общее для кэша пользователей и rate limiter'а; пространства
// ключей не пересекаются ("user:" и "rl:").
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss — ключа нет в хранилище (или истёк TTL).
var ErrMiss = errors.New("cache miss")

// Store — минимальный контракт key/value-хранилища с TTL.
type Store interface {
	// Get возвращает значение или ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение с TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Increment атомарно увеличивает счётчик; TTL окна window выставляется
	// только при первом инкременте. Возвращает значение и остаток TTL.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error
}
