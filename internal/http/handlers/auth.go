package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	"github.com/pribylovaa/go-contacts-api/internal/http/middleware"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

const (
	msgUserCreated      = "User successfully created. Check your email for confirmation."
	msgEmailConfirmed   = "Email confirmed"
	msgAlreadyConfirmed = "Your email is already confirmed"
	msgCheckEmail       = "Check your email for confirmation."
)

// Signup — POST /api/auth/signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest("body", "malformed JSON"))
		return
	}

	user, err := h.svc.Signup(r.Context(), service.SignupInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	}, h.opts.BaseURL)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		User:   userFromModel(user),
		Detail: msgUserCreated,
	})
}

// Login — POST /api/auth/login.
// Принимает форму OAuth2 password flow (username=e-mail, password) или JSON.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			apierrors.WriteError(w, r, badRequest("body", "malformed form"))
			return
		}
		in.Username = r.PostFormValue("username")
		in.Password = r.PostFormValue("password")
	default:
		if err := decodeStrict(r, &in); err != nil {
			apierrors.WriteError(w, r, badRequest("body", "malformed JSON"))
			return
		}
	}

	pair, err := h.svc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensFromModel(pair, time.Now()))
}

// RefreshToken — GET /api/auth/refresh_token, refresh-токен в Authorization: Bearer.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.BearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers.RefreshToken: %w", service.ErrUnauthorized))
		return
	}

	pair, err := h.svc.RefreshToken(r.Context(), raw)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensFromModel(pair, time.Now()))
}

// Logout — POST /api/auth/logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers.Logout: %w", service.ErrUnauthorized))
		return
	}

	if err := h.svc.Logout(r.Context(), user); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmEmail — GET /api/auth/confirmed_email/{token}.
func (h *Handlers) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	already, err := h.svc.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	msg := msgEmailConfirmed
	if already {
		msg = msgAlreadyConfirmed
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// RequestEmail — POST /api/auth/request_email.
// Неизвестный e-mail получает тот же ответ, что и успешная отправка.
func (h *Handlers) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var in requestEmailRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest("body", "malformed JSON"))
		return
	}

	already, err := h.svc.RequestEmail(r.Context(), in.Email, h.opts.BaseURL)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	msg := msgCheckEmail
	if already {
		msg = msgAlreadyConfirmed
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}
