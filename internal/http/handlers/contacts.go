package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-contacts-api/internal/http/errors"
	"github.com/pribylovaa/go-contacts-api/internal/http/middleware"
	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

// currentUser достаёт пользователя; без него (роут без Authenticate) — 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers: %w", service.ErrUnauthorized))
	}
	return user, ok
}

func contactID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, badRequest("id", "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func paging(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	var err error
	if offset, err = queryInt(r, "skip", 0); err != nil {
		apierrors.WriteError(w, r, err)
		return 0, 0, false
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		apierrors.WriteError(w, r, err)
		return 0, 0, false
	}
	return limit, offset, true
}

func decodeContact(w http.ResponseWriter, r *http.Request) (models.ContactInput, bool) {
	var req contactRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, badRequest("body", "malformed JSON"))
		return models.ContactInput{}, false
	}

	in, err := req.toInput()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return models.ContactInput{}, false
	}
	return in, true
}

// ListContacts — GET /api/contacts?skip=&limit=.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}

	out, err := h.svc.ListContacts(r.Context(), user, limit, offset)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactsFromModel(out))
}

// GetContact — GET /api/contacts/{id}.
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Contact(r.Context(), user, id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactFromModel(c))
}

// CreateContact — POST /api/contacts.
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	in, ok := decodeContact(w, r)
	if !ok {
		return
	}

	c, err := h.svc.CreateContact(r.Context(), user, in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, contactFromModel(c))
}

// UpdateContact — PUT /api/contacts/{id}.
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	in, ok := decodeContact(w, r)
	if !ok {
		return
	}

	c, err := h.svc.UpdateContact(r.Context(), user, id, in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactFromModel(c))
}

// DeleteContact — DELETE /api/contacts/{id}.
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteContact(r.Context(), user, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchContacts — GET /api/contacts/search/{field}?q=.
func (h *Handlers) SearchContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}

	out, err := h.svc.SearchContacts(r.Context(), user,
		chi.URLParam(r, "field"), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactsFromModel(out))
}

// Birthdays — GET /api/contacts/birthdays.
func (h *Handlers) Birthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	out, err := h.svc.UpcomingBirthdays(r.Context(), user)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactsFromModel(out))
}
