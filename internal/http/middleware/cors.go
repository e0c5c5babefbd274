package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS разрешает браузерные запросы с перечисленных origins, с credentials.
// Пустой список — no-op.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After", ProcessTimeHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
