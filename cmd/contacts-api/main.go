package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-contacts-api/internal/cache"
	"github.com/pribylovaa/go-contacts-api/internal/config"
	apihttp "github.com/pribylovaa/go-contacts-api/internal/http"
	"github.com/pribylovaa/go-contacts-api/internal/http/handlers"
	"github.com/pribylovaa/go-contacts-api/internal/mailer"
	"github.com/pribylovaa/go-contacts-api/internal/password"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/tracing"
	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
	"github.com/pribylovaa/go-contacts-api/internal/service"
	"github.com/pribylovaa/go-contacts-api/internal/storage/minio"
	"github.com/pribylovaa/go-contacts-api/internal/storage/postgres"
	"github.com/pribylovaa/go-contacts-api/internal/token"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting contacts-api", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	otl, err := tracing.SetupOTel(rootCtx, cfg.OTel)
	if err != nil {
		log.Error("otel_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otl.Shutdown(ctx); err != nil {
			log.Warn("otel_shutdown_failed", slog.String("err", err.Error()))
		}
	}()

	db, err := connectPostgres(rootCtx, log, cfg.DB.DatabaseURL)
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	log.Info("postgres_connected")

	if cfg.DB.MigrateOnStart {
		if err := postgres.Migrate(rootCtx, cfg.DB.DatabaseURL); err != nil {
			log.Error("migrations_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("migrations_applied")
	}

	rdb, err := connectRedis(rootCtx, log, cfg.Redis.RedisURL)
	if err != nil {
		log.Error("redis_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis_close_failed", slog.String("err", err.Error()))
		}
	}()
	log.Info("redis_connected")

	avatars, err := minio.New(rootCtx, cfg.S3)
	if err != nil {
		log.Error("minio_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("minio_connected", slog.String("bucket", cfg.S3.Bucket))

	codec, err := token.New([]byte(cfg.Auth.JWTSecret), cfg.Auth.Algorithm)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := service.New(service.Deps{
		Storage: db,
		Avatars: avatars,
		Mailer:  mailer.New(cfg.SMTP),
		Users:   cache.NewUsers(rdb),
		Tokens:  codec,
		Hasher:  password.New(cfg.Auth.BcryptCost),
	}, *cfg)

	apiHandler := apihttp.NewRouter(svc, apihttp.Options{
		Logger:      log,
		Timeout:     cfg.Timeouts.Request,
		BasePath:    "/api",
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Limiter:     ratelimit.New(rdb),
		Budget: ratelimit.Budget{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		Handlers: handlers.Options{
			BaseURL:        cfg.HTTP.BaseURL,
			MaxAvatarBytes: cfg.Avatar.MaxSizeBytes,
		},
		Tracing:     cfg.OTel.Enable,
		ServiceName: cfg.OTel.ServiceName,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("contacts_api_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	// Письма, ушедшие в фон до остановки, дописываем (каждое ограничено smtp.timeout).
	svc.Wait()

	log.Info("service_stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
