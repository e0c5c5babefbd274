package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

func wrap(err error) error {
	return fmt.Errorf("service.auth.Op: %w", err)
}

func TestToHTTP_DomainMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", wrap(service.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{"verification", wrap(service.ErrVerification), http.StatusBadRequest, "verification_error"},
		{"unauthorized", wrap(service.ErrUnauthorized), http.StatusUnauthorized, "unauthenticated"},
		{"refresh", wrap(service.ErrInvalidRefreshToken), http.StatusUnauthorized, "invalid_refresh_token"},
		{"email", wrap(service.ErrInvalidEmail), http.StatusUnauthorized, "invalid_email"},
		{"password", wrap(service.ErrInvalidPassword), http.StatusUnauthorized, "invalid_password"},
		{"not_confirmed", wrap(service.ErrEmailNotConfirmed), http.StatusUnauthorized, "email_not_confirmed"},
		{"contact_not_found", wrap(service.ErrContactNotFound), http.StatusNotFound, "not_found"},
		{"account_exists", wrap(service.ErrAccountExists), http.StatusConflict, "already_exists"},
		{"contact_exists", wrap(service.ErrContactExists), http.StatusConflict, "already_exists"},
		{"too_large", wrap(service.ErrAvatarTooLarge), http.StatusRequestEntityTooLarge, "payload_too_large"},
		{"confirm_token", wrap(service.ErrInvalidConfirmationToken), http.StatusUnprocessableEntity, "invalid_token"},
		{"rate_limited", wrap(ratelimit.ErrRateLimited), http.StatusTooManyRequests, "rate_limited"},
		{"canceled", wrap(context.Canceled), StatusClientClosedRequest, "canceled"},
		{"deadline", wrap(context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{"internal", errors.New("pg: connection refused"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_ValidationErrorCarriesField(t *testing.T) {
	err := wrap(&service.ValidationError{Field: "email", Reason: "is required"})

	gotStatus, resp := ToHTTP(err)
	require.Equal(t, http.StatusBadRequest, gotStatus)
	require.Equal(t, "invalid_argument", resp.Error.Code)
	require.Equal(t, "email: is required", resp.Error.Message)
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestToHTTP_InternalDoesNotLeak(t *testing.T) {
	_, resp := ToHTTP(errors.New("password=hunter2 at 10.0.0.1"))
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_WritesEnvelopeWithRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rec := httptest.NewRecorder()

	WriteError(rec, req, wrap(service.ErrUnauthorized))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unauthenticated", body.Error.Code)
	require.Equal(t, "rid-123", body.Error.RequestID)
}

func TestWriteError_NoRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, wrap(service.ErrContactNotFound))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Header().Get("WWW-Authenticate"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Error.RequestID)
}
