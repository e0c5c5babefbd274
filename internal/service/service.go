// service содержит бизнес-логику contacts-api: регистрацию и подтверждение
// e-mail, вход и ротацию токенов, разрешение текущего пользователя,
// аватары и адресную книгу.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования, если безопасны переданные зависимости.
//   - Экземпляр создаётся явно через New; глобальных синглтонов нет,
//     поэтому тесты поднимают независимые экземпляры с разной конфигурацией.
//   - Ошибки маппятся HTTP-слоем (см. комментарии к переменным ошибок ниже).
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pribylovaa/go-contacts-api/internal/cache"
	"github.com/pribylovaa/go-contacts-api/internal/config"
	"github.com/pribylovaa/go-contacts-api/internal/password"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
	"github.com/pribylovaa/go-contacts-api/internal/token"
)

var (
	// ErrInvalidArgument — входные данные не прошли валидацию.
	// HTTP 400 (invalid_argument). Детали — в *ValidationError.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAccountExists — e-mail уже зарегистрирован. HTTP 409.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidConfirmationToken — токен подтверждения битый, просрочен
	// или выпущен для другой области действия. HTTP 422.
	ErrInvalidConfirmationToken = errors.New("invalid token for email verification")

	// ErrVerification — токен валиден, но пользователь из него не найден. HTTP 400.
	ErrVerification = errors.New("verification error")

	// ErrInvalidEmail — при входе: пользователь с таким e-mail не найден. HTTP 401.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrEmailNotConfirmed — при входе: e-mail ещё не подтверждён. HTTP 401.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrInvalidPassword — при входе: пароль не совпал. HTTP 401.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUnauthorized — любая проблема с access/refresh-токеном или
	// неизвестный субъект. Причина наружу не раскрывается. HTTP 401.
	ErrUnauthorized = errors.New("could not validate credentials")

	// ErrInvalidRefreshToken — предъявлен валидный, но не текущий refresh-токен;
	// сохранённый токен при этом сбрасывается. HTTP 401.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrContactNotFound — контакт не найден у владельца. HTTP 404.
	ErrContactNotFound = errors.New("contact not found")

	// ErrContactExists — у владельца уже есть контакт с таким e-mail
	// или телефоном. HTTP 409.
	ErrContactExists = errors.New("contact already exists")

	// ErrAvatarTooLarge — файл аватара больше avatar.max_size_bytes. HTTP 413.
	ErrAvatarTooLarge = errors.New("avatar is too large")
)

// ValidationError уточняет ErrInvalidArgument: какое поле и почему.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInvalidArgument).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Mailer отправляет письмо подтверждения e-mail.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, username, link string) error
}

// Deps — зависимости сервиса, передаются при создании.
type Deps struct {
	Storage storage.Storage
	Avatars storage.AvatarStorage
	Mailer  Mailer
	Users   *cache.Users
	Tokens  *token.Codec
	Hasher  *password.Hasher
	// Now — источник времени для дат (дни рождения, created_at); nil — time.Now.
	Now func() time.Time
}

// Service описывает бизнес-логику contacts-api.
type Service struct {
	storage storage.Storage
	avatars storage.AvatarStorage
	mailer  Mailer
	users   *cache.Users
	tokens  *token.Codec
	hasher  *password.Hasher
	now     func() time.Time
	cfg     config.Config

	// dispatch учитывает письма, отправляемые в фоне.
	dispatch sync.WaitGroup
}

// New создаёт новый экземпляр Service.
func New(deps Deps, cfg config.Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		storage: deps.Storage,
		avatars: deps.Avatars,
		mailer:  deps.Mailer,
		users:   deps.Users,
		tokens:  deps.Tokens,
		hasher:  deps.Hasher,
		now:     now,
		cfg:     cfg,
	}
}

// Wait блокируется до завершения фоновых отправок писем.
// Вызывается при остановке сервера и в тестах.
func (s *Service) Wait() {
	s.dispatch.Wait()
}

// Ping проверяет доступность БД (GET /api/healthchecker).
func (s *Service) Ping(ctx context.Context) error {
	const op = "service.Ping"

	if err := s.storage.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
