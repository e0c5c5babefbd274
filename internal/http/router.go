package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pribylovaa/go-contacts-api/internal/http/handlers"
	"github.com/pribylovaa/go-contacts-api/internal/http/middleware"
	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	// CORSOrigins — origins фронтендов; пустой список отключает CORS.
	CORSOrigins []string

	// Limiter и Budget задают admission control; nil Limiter отключает его.
	Limiter middleware.Limiter
	Budget  ratelimit.Budget

	Handlers handlers.Options

	// Tracing оборачивает роутер в otelhttp.
	Tracing     bool
	ServiceName string
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),              // безопасно ловим паники
		middleware.ProcessTime(),          // My-Process-Time в каждом ответе
		middleware.RequestID(),            // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),   // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),              // счётчики и гистограммы по шаблону маршрута
		middleware.CORS(opts.CORSOrigins), // preflight отвечаем до авторизации
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.Handlers)
	root.Get("/", h.Welcome)

	rt := routes{
		h:       h,
		auth:    middleware.Authenticate(svc),
		limiter: opts.Limiter,
		budget:  opts.Budget,
	}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		rt.register(sub)
		root.Mount(opts.BasePath, sub)
	} else {
		rt.register(root)
	}

	if !opts.Tracing {
		return root
	}

	name := opts.ServiceName
	if name == "" {
		name = "contacts-api"
	}

	return otelhttp.NewHandler(root, name,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

type routes struct {
	h       *handlers.Handlers
	auth    middleware.Middleware
	limiter middleware.Limiter
	budget  ratelimit.Budget
}

// limit — бюджет на маршрут; ключ маршрута разделяет счётчики.
func (rt routes) limit(route string) func(http.Handler) http.Handler {
	if rt.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return middleware.RateLimit(rt.limiter, route, rt.budget)
}

// register — единая точка регистрации всех REST-эндпойнтов.
func (rt routes) register(r chi.Router) {
	h := rt.h

	// auth, без токена: лимит по IP.
	r.With(rt.limit("auth.signup")).Post("/auth/signup", h.Signup)
	r.With(rt.limit("auth.login")).Post("/auth/login", h.Login)
	r.With(rt.limit("auth.refresh_token")).Get("/auth/refresh_token", h.RefreshToken)
	r.With(rt.limit("auth.confirmed_email")).Get("/auth/confirmed_email/{token}", h.ConfirmEmail)
	r.With(rt.limit("auth.request_email")).Post("/auth/request_email", h.RequestEmail)

	r.Get("/healthchecker", h.HealthChecker)

	// С access-токеном: лимит по пользователю.
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		r.With(rt.limit("auth.logout")).Post("/auth/logout", h.Logout)

		// users
		r.With(rt.limit("users.me")).Get("/users/me", h.Me)
		r.With(rt.limit("users.avatar")).Patch("/users/avatar", h.UpdateAvatar)

		// contacts
		r.With(rt.limit("contacts.list")).Get("/contacts", h.ListContacts)
		r.With(rt.limit("contacts.create")).Post("/contacts", h.CreateContact)
		r.With(rt.limit("contacts.birthdays")).Get("/contacts/birthdays", h.Birthdays)
		r.With(rt.limit("contacts.search")).Get("/contacts/search/{field}", h.SearchContacts)
		r.With(rt.limit("contacts.get")).Get("/contacts/{id}", h.GetContact)
		r.With(rt.limit("contacts.update")).Put("/contacts/{id}", h.UpdateContact)
		r.With(rt.limit("contacts.delete")).Delete("/contacts/{id}", h.DeleteContact)
	})
}
