package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pribylovaa/go-contacts-api/internal/cache"
	"github.com/pribylovaa/go-contacts-api/internal/storage/postgres"
)

const (
	connectBaseDelay  = 500 * time.Millisecond
	connectMaxRetries = 5
)

func connectBackoff() retry.Backoff {
	return retry.WithMaxRetries(connectMaxRetries, retry.NewExponential(connectBaseDelay))
}

// connectPostgres повторяет подключение: при docker compose up БД
// поднимается позже сервиса.
func connectPostgres(ctx context.Context, log *slog.Logger, dbURL string) (*postgres.Storage, error) {
	var db *postgres.Storage

	err := retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		s, err := postgres.New(ctx, dbURL)
		if err != nil {
			log.Warn("postgres_connect_retry", slog.String("err", err.Error()))
			return retry.RetryableError(err)
		}

		db = s
		return nil
	})

	return db, err
}

func connectRedis(ctx context.Context, log *slog.Logger, redisURL string) (*cache.Redis, error) {
	var rdb *cache.Redis

	err := retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		r, err := cache.NewRedis(ctx, redisURL)
		if err != nil {
			log.Warn("redis_connect_retry", slog.String("err", err.Error()))
			return retry.RetryableError(err)
		}

		rdb = r
		return nil
	})

	return rdb, err
}
