package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	"github.com/pribylovaa/go-contacts-api/internal/http/middleware"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

// multipartOverhead — запас на заголовки multipart сверх размера файла.
const multipartOverhead = 64 << 10

// Me — GET /api/users/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers.Me: %w", service.ErrUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

// UpdateAvatar — PATCH /api/users/avatar, multipart-поле "file".
func (h *Handlers) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers.UpdateAvatar: %w", service.ErrUnauthorized))
		return
	}

	if h.opts.MaxAvatarBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxAvatarBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.WriteError(w, r, service.ErrAvatarTooLarge)
			return
		}

		apierrors.WriteError(w, r, badRequest("file", "is required"))
		return
	}
	defer file.Close()

	updated, err := h.svc.UpdateAvatar(r.Context(), user,
		header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}
