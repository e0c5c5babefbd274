package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-contacts-api/internal/cache/cachetest"
	"github.com/pribylovaa/go-contacts-api/internal/http/handlers/mocks"
	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

var alice = &models.User{
	ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	Username:  "alice",
	Email:     "alice@example.com",
	Confirmed: true,
}

const testOrigin = "http://localhost:3000"

func newTestRouter(t *testing.T, budget ratelimit.Budget, tracing bool) (*mocks.MockService, *cachetest.Memory, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	store := cachetest.NewMemory(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	h := NewRouter(svc, Options{
		Timeout:  time.Second,
		BasePath:    "/api",
		CORSOrigins: []string{testOrigin},
		Limiter:     ratelimit.New(store),
		Budget:      budget,
		Tracing:     tracing,
	})

	return svc, store, h
}

func serve(h http.Handler, method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ProtectedRouteWithoutToken(t *testing.T) {
	t.Parallel()

	// Сервис не вызывается: 401 до CurrentUser.
	_, _, h := newTestRouter(t, ratelimit.Budget{Requests: 10, Window: time.Minute}, false)

	rec := serve(h, http.MethodGet, "/api/users/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_ProtectedRouteWithToken(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 10, Window: time.Minute}, false)
	svc.EXPECT().CurrentUser(gomock.Any(), "acc").Return(alice, nil)

	rec := serve(h, http.MethodGet, "/api/users/me", "acc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "alice@example.com")
	require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRouter_InvalidAccessToken(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 10, Window: time.Minute}, false)
	svc.EXPECT().CurrentUser(gomock.Any(), "stale").Return(nil, service.ErrUnauthorized)

	rec := serve(h, http.MethodGet, "/api/contacts", "stale")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RateLimitPerUserAndRoute(t *testing.T) {
	t.Parallel()

	svc, store, h := newTestRouter(t, ratelimit.Budget{Requests: 2, Window: time.Minute}, false)
	svc.EXPECT().CurrentUser(gomock.Any(), "acc").Return(alice, nil).AnyTimes()
	svc.EXPECT().UpcomingBirthdays(gomock.Any(), alice).Return(nil, nil).Times(3)

	for i := 0; i < 2; i++ {
		rec := serve(h, http.MethodGet, "/api/users/me", "acc")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(h, http.MethodGet, "/api/users/me", "acc")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Другой маршрут считается отдельно.
	for i := 0; i < 2; i++ {
		rec := serve(h, http.MethodGet, "/api/contacts/birthdays", "acc")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// После окна бюджет восстанавливается.
	store.Advance(time.Minute + time.Second)
	rec = serve(h, http.MethodGet, "/api/contacts/birthdays", "acc")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AnonymousRoutesLimitedByIP(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 1, Window: time.Minute}, false)
	svc.EXPECT().ConfirmEmail(gomock.Any(), "tok").Return(false, nil)

	rec := serve(h, http.MethodGet, "/api/auth/confirmed_email/tok", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/auth/confirmed_email/tok", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_HealthCheckerNotLimited(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 1, Window: time.Minute}, false)
	svc.EXPECT().Ping(gomock.Any()).Return(nil).Times(3)

	for i := 0; i < 3; i++ {
		rec := serve(h, http.MethodGet, "/api/healthchecker", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	_, _, h := newTestRouter(t, ratelimit.Budget{Requests: 1, Window: time.Minute}, false)

	rec := serve(h, http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_WithTracing(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 10, Window: time.Minute}, true)
	svc.EXPECT().Ping(gomock.Any()).Return(nil)

	rec := serve(h, http.MethodGet, "/api/healthchecker", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_NoLimiter(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().CurrentUser(gomock.Any(), "acc").Return(alice, nil).Times(3)

	h := NewRouter(svc, Options{BasePath: "/api"})

	for i := 0; i < 3; i++ {
		rec := serve(h, http.MethodGet, "/api/users/me", "acc")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRouter_CORSPreflightSkipsAuth(t *testing.T) {
	t.Parallel()

	// Preflight без токена: ни Authenticate, ни сервис не вызываются.
	_, _, h := newTestRouter(t, ratelimit.Budget{Requests: 1, Window: time.Minute}, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Less(t, rec.Code, 300)
	require.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_ProcessTimeOnEveryResponse(t *testing.T) {
	t.Parallel()

	svc, _, h := newTestRouter(t, ratelimit.Budget{Requests: 10, Window: time.Minute}, false)
	svc.EXPECT().Ping(gomock.Any()).Return(nil)

	for _, target := range []string{"/api/healthchecker", "/api/users/me", "/api/nope"} {
		rec := serve(h, http.MethodGet, target, "")
		require.NotEmpty(t, rec.Header().Get("My-Process-Time"), target)
	}
}

func TestRouter_Welcome(t *testing.T) {
	t.Parallel()

	_, _, h := newTestRouter(t, ratelimit.Budget{Requests: 1, Window: time.Minute}, false)

	rec := serve(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Hello, world!"}`, rec.Body.String())
}
