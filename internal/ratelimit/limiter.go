// ratelimit — admission control: фиксированное окно на пару (маршрут, клиент).
//
// Счётчики живут во внешнем хранилище (cache.Store) под префиксом "rl:";
// сброс окна обеспечивает TTL, выставленный при первом инкременте.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pribylovaa/go-contacts-api/internal/cache"
)

const keyPrefix = "rl:"

// ErrRateLimited — бюджет запросов исчерпан. Транспорт: HTTP 429 + Retry-After.
var ErrRateLimited = errors.New("rate limited")

var deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ratelimit_denied_total",
	Help: "Requests rejected by admission control.",
}, []string{"route"})

// Budget — не более Requests запросов за Window.
type Budget struct {
	Requests int
	Window   time.Duration
}

// Decision — результат проверки.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter проверяет бюджеты. Без состояния, безопасен для конкурентного использования.
type Limiter struct {
	store cache.Store
}

// New создаёт Limiter поверх store.
func New(store cache.Store) *Limiter {
	return &Limiter{store: store}
}

// Check учитывает запрос identity к route и решает, пропускать ли его.
// Ошибки хранилища возвращаются как есть: лимитер не пропускает запросы вслепую.
func (l *Limiter) Check(ctx context.Context, identity, route string, b Budget) (Decision, error) {
	const op = "ratelimit.limiter.Check"

	if b.Requests <= 0 || b.Window <= 0 {
		return Decision{}, fmt.Errorf("%s: invalid budget %d/%s", op, b.Requests, b.Window)
	}

	count, ttl, err := l.store.Increment(ctx, keyPrefix+route+":"+identity, b.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if count > int64(b.Requests) {
		deniedTotal.WithLabelValues(route).Inc()
		return Decision{Allowed: false, RetryAfter: roundUpSecond(ttl)}, nil
	}

	return Decision{Allowed: true, Remaining: b.Requests - int(count)}, nil
}

// roundUpSecond округляет вверх до целых секунд, минимум 1s.
func roundUpSecond(d time.Duration) time.Duration {
	if d <= time.Second {
		return time.Second
	}

	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}

	return d
}
