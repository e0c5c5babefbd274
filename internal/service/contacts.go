package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

// birthdayWindow — сколько дней, начиная с сегодняшнего, смотрит UpcomingBirthdays.
const birthdayWindow = 7

// ListContacts возвращает страницу контактов пользователя (limit 0 — 100).
func (s *Service) ListContacts(ctx context.Context, user *models.User, limit, offset int) ([]models.Contact, error) {
	const op = "service.contacts.ListContacts"

	limit, offset, err := page(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.storage.ListContacts(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Contact возвращает контакт пользователя по id.
func (s *Service) Contact(ctx context.Context, user *models.User, id uuid.UUID) (*models.Contact, error) {
	const op = "service.contacts.Contact"

	c, err := s.storage.ContactByID(ctx, user.ID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, contactErr(err))
	}

	return c, nil
}

// CreateContact создаёт контакт. E-mail и телефон уникальны в пределах владельца.
func (s *Service) CreateContact(ctx context.Context, user *models.User, in models.ContactInput) (*models.Contact, error) {
	const op = "service.contacts.CreateContact"

	in, err := normalizeContact(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	c := &models.Contact{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(c, in)

	if err := s.storage.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, contactErr(err))
	}

	return c, nil
}

// UpdateContact полностью перезаписывает изменяемые поля контакта.
func (s *Service) UpdateContact(ctx context.Context, user *models.User, id uuid.UUID, in models.ContactInput) (*models.Contact, error) {
	const op = "service.contacts.UpdateContact"

	in, err := normalizeContact(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := &models.Contact{
		ID:        id,
		UserID:    user.ID,
		UpdatedAt: s.now().UTC(),
	}
	applyInput(c, in)

	if err := s.storage.UpdateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, contactErr(err))
	}

	return c, nil
}

// DeleteContact удаляет контакт пользователя.
func (s *Service) DeleteContact(ctx context.Context, user *models.User, id uuid.UUID) error {
	const op = "service.contacts.DeleteContact"

	if err := s.storage.DeleteContact(ctx, user.ID, id); err != nil {
		return fmt.Errorf("%s: %w", op, contactErr(err))
	}

	return nil
}

// SearchContacts ищет подстроку query (без учёта регистра) в поле field:
// first_name, last_name или email. Пустой результат не является ошибкой.
func (s *Service) SearchContacts(ctx context.Context, user *models.User, field, query string, limit, offset int) ([]models.Contact, error) {
	const op = "service.contacts.SearchContacts"

	f := storage.SearchField(field)
	if !f.Valid() {
		return nil, fmt.Errorf("%s: %w", op, invalid("field", "must be first_name, last_name or email"))
	}

	query = strings.TrimSpace(query)
	if err := lengthBetween("q", query, 1, searchQueryMax); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit, offset, err := page(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.storage.SearchContacts(ctx, user.ID, f, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpcomingBirthdays возвращает контакты с днём рождения в ближайшие 7 дней,
// включая сегодняшний. Родившиеся 29 февраля попадают только в високосные годы.
func (s *Service) UpcomingBirthdays(ctx context.Context, user *models.User) ([]models.Contact, error) {
	const op = "service.contacts.UpcomingBirthdays"

	out, err := s.storage.ContactsByBirthday(ctx, user.ID, upcomingDays(s.now(), birthdayWindow))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// upcomingDays возвращает дни ("MM-DD") начиная с from.
func upcomingDays(from time.Time, n int) []string {
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, from.AddDate(0, 0, i).Format("01-02"))
	}

	return days
}

func applyInput(c *models.Contact, in models.ContactInput) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.PhoneNumber = in.PhoneNumber
	c.BornDate = in.BornDate
	c.Description = in.Description
}

// contactErr переводит ошибки хранилища в доменные.
func contactErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrContactNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrContactExists
	case errors.Is(err, storage.ErrInvalidArgument):
		return invalid("contact", "rejected by storage")
	default:
		return err
	}
}
