package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	logctx "github.com/pribylovaa/go-contacts-api/internal/pkg/log"
	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
)

// Limiter — admission controller.
type Limiter interface {
	Check(ctx context.Context, identity, route string, b ratelimit.Budget) (ratelimit.Decision, error)
}

// RateLimit ограничивает число запросов к route в окне budget.
// Идентичность клиента — e-mail пользователя, если Authenticate уже отработал,
// иначе адрес соединения (X-Forwarded-For не учитывается).
// При отказе отвечает 429 с Retry-After в секундах.
func RateLimit(l Limiter, route string, b ratelimit.Budget) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Check(r.Context(), identity(r), route, b)
			if err != nil {
				logctx.From(r.Context()).Error("ratelimit_check_failed",
					slog.String("route", route),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(b.Requests))

			if !d.Allowed {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter/time.Second)))
				logctx.From(r.Context()).Warn("rate_limited",
					slog.String("route", route),
					slog.Duration("retry_after", d.RetryAfter),
				)
				apierrors.WriteError(w, r, ratelimit.ErrRateLimited)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func identity(r *http.Request) string {
	if u, ok := UserFrom(r.Context()); ok {
		return "user:" + u.Email
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}
