package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pribylovaa/go-contacts-api/internal/models"
)

const userPrefix = "user:"

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "user_cache_lookups_total",
	Help: "User cache lookups by result (hit, miss).",
}, []string{"result"})

// Users — read-through кэш снимков пользователей по e-mail.
//
// Снимок может отставать от БД на время TTL. Конкурентные промахи по одному
// ключу независимо читают БД и перезаписывают запись (last-write-wins),
// объединения запросов нет.
type Users struct {
	store Store
}

// NewUsers создаёт кэш пользователей поверх store.
func NewUsers(store Store) *Users {
	return &Users{store: store}
}

func userKey(email string) string {
	return userPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Get возвращает снимок и признак попадания.
func (u *Users) Get(ctx context.Context, email string) (*models.User, bool, error) {
	const op = "cache.users.Get"

	b, err := u.store.Get(ctx, userKey(email))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			lookupsTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	if err := json.Unmarshal(b, &user); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	lookupsTotal.WithLabelValues("hit").Inc()
	return &user, true, nil
}

// Put сохраняет снимок пользователя с TTL.
func (u *Users) Put(ctx context.Context, email string, user *models.User, ttl time.Duration) error {
	const op = "cache.users.Put"

	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := u.store.Set(ctx, userKey(email), b, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Evict удаляет снимок. В основном потоке не вызывается, пока
// не включён cache.evict_on_mutation.
func (u *Users) Evict(ctx context.Context, email string) error {
	const op = "cache.users.Evict"

	if err := u.store.Delete(ctx, userKey(email)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
