package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

// Service — бизнес-операции, доступные HTTP-слою.
type Service interface {
	Signup(ctx context.Context, in service.SignupInput, baseURL string) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) (bool, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	RequestEmail(ctx context.Context, email, baseURL string) (bool, error)
	Logout(ctx context.Context, user *models.User) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)

	UpdateAvatar(ctx context.Context, user *models.User, filename, contentType string, size int64, r io.Reader) (*models.User, error)

	ListContacts(ctx context.Context, user *models.User, limit, offset int) ([]models.Contact, error)
	Contact(ctx context.Context, user *models.User, id uuid.UUID) (*models.Contact, error)
	CreateContact(ctx context.Context, user *models.User, in models.ContactInput) (*models.Contact, error)
	UpdateContact(ctx context.Context, user *models.User, id uuid.UUID, in models.ContactInput) (*models.Contact, error)
	DeleteContact(ctx context.Context, user *models.User, id uuid.UUID) error
	SearchContacts(ctx context.Context, user *models.User, field, query string, limit, offset int) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, user *models.User) ([]models.Contact, error)

	Ping(ctx context.Context) error
}

// Options — параметры хендлеров.
type Options struct {
	// BaseURL — внешний адрес сервиса для ссылок в письмах.
	BaseURL string
	// MaxAvatarBytes ограничивает тело запроса загрузки аватара.
	MaxAvatarBytes int64
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc  Service
	opts Options
}

func New(svc Service, opts Options) *Handlers {
	return &Handlers{svc: svc, opts: opts}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// badRequest — локальная ошибка разбора запроса.
func badRequest(field, reason string) error {
	return fmt.Errorf("handlers: %w", &service.ValidationError{Field: field, Reason: reason})
}

// queryInt читает неотрицательное целое из query; пустое значение — def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key, "must be an integer")
	}

	return v, nil
}
