package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	"github.com/pribylovaa/go-contacts-api/internal/http/middleware"
	logctx "github.com/pribylovaa/go-contacts-api/internal/pkg/log"
)

// HealthChecker — GET /api/healthchecker: SELECT 1 в БД.
func (h *Handlers) HealthChecker(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		logctx.From(r.Context()).Error("healthcheck_db_failed", slog.String("err", err.Error()))

		writeJSON(w, http.StatusInternalServerError, apierrors.ErrorResponse{
			Error: apierrors.APIError{
				Code:      "internal",
				Message:   "Error connecting to the database",
				RequestID: middleware.RequestIDFrom(r.Context()),
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// Welcome — GET /.
func (h *Handlers) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Hello, world!"})
}
