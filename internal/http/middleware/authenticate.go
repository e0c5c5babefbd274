package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	"github.com/pribylovaa/go-contacts-api/internal/models"
	logctx "github.com/pribylovaa/go-contacts-api/internal/pkg/log"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

// UserResolver разрешает пользователя по access-токену.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// BearerToken извлекает токен из "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate требует валидный access-токен и кладёт пользователя в контекст.
// Без заголовка Authorization отвечает 401, не обращаясь к сервису.
func Authenticate(resolver UserResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, fmt.Errorf("middleware.Authenticate: %w", service.ErrUnauthorized))
				return
			}

			user, err := resolver.CurrentUser(r.Context(), raw)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = logctx.With(ctx, "user_id", user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
