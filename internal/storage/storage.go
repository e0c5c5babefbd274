// storage описывает контракты хранилищ сервиса: реляционное (пользователи и
// контакты, postgres) и объектное (аватары, minio).
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-contacts-api/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument — аргумент не проходит ограничения хранилища.
	ErrInvalidArgument = errors.New("invalid argument")
)

// SearchField — поле контакта, по которому допускается поиск подстроки.
type SearchField string

const (
	FieldFirstName SearchField = "first_name"
	FieldLastName  SearchField = "last_name"
	FieldEmail     SearchField = "email"
)

// Valid сообщает, входит ли поле в допустимый набор.
func (f SearchField) Valid() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail:
		return true
	}

	return false
}

// UserStorage — справочник пользователей (источник истины).
type UserStorage interface {
	// SaveUser создаёт пользователя; ErrAlreadyExists при занятом e-mail.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по e-mail (без учёта регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// SetRefreshToken сохраняет дайджест refresh-токена; пустая строка — сброс.
	SetRefreshToken(ctx context.Context, userID uuid.UUID, digest string) error
	// ConfirmEmail выставляет флаг confirmed.
	ConfirmEmail(ctx context.Context, userID uuid.UUID) error
	// UpdateAvatar сохраняет ссылку на аватар и возвращает обновлённую запись.
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error)
}

// ContactStorage — контакты; все операции ограничены владельцем userID.
type ContactStorage interface {
	CreateContact(ctx context.Context, c *models.Contact) error
	ContactByID(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error)
	ListContacts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error)
	UpdateContact(ctx context.Context, c *models.Contact) error
	DeleteContact(ctx context.Context, userID, id uuid.UUID) error
	// SearchContacts ищет подстроку query в поле field (ILIKE %query%).
	SearchContacts(ctx context.Context, userID uuid.UUID, field SearchField, query string, limit, offset int) ([]models.Contact, error)
	// ContactsByBirthday возвращает контакты, чей день рождения (формат "MM-DD")
	// входит в days.
	ContactsByBirthday(ctx context.Context, userID uuid.UUID, days []string) ([]models.Contact, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	ContactStorage
	// Ping проверяет доступность БД.
	Ping(ctx context.Context) error
	Close()
}

// AvatarStorage — объектное хранилище аватаров.
type AvatarStorage interface {
	// PutAvatar загружает изображение и возвращает публичную ссылку на него.
	PutAvatar(ctx context.Context, userID uuid.UUID, contentType string, size int64, r io.Reader) (string, error)
}
