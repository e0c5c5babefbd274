package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

const contactColumns = `id, user_id, first_name, last_name, email, phone_number, born_date, description, created_at, updated_at`

func scanContact(row interface{ Scan(dest ...any) error }) (models.Contact, error) {
	var (
		c    models.Contact
		born pgtype.Date
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&born,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return models.Contact{}, err
	}

	if born.Valid {
		c.BornDate = born.Time
	}

	return c, nil
}

func collectContacts(rows pgx.Rows) ([]models.Contact, error) {
	defer rows.Close()

	out := make([]models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func bornDate(c *models.Contact) pgtype.Date {
	return pgtype.Date{Time: c.BornDate, Valid: !c.BornDate.IsZero()}
}

// CreateContact сохраняет новый контакт.
func (s *Storage) CreateContact(ctx context.Context, c *models.Contact) error {
	const op = "storage.postgres.CreateContact"

	query := `
		INSERT INTO contacts(` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.PhoneNumber,
		bornDate(c),
		c.Description,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}

	return nil
}

// ContactByID возвращает контакт владельца userID.
func (s *Storage) ContactByID(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	const op = "storage.postgres.ContactByID"

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	c, err := scanContact(s.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return &c, nil
}

// ListContacts возвращает страницу контактов владельца.
func (s *Storage) ListContacts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	const op = "storage.postgres.ListContacts"

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY last_name, first_name, id
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, mapErr(op, err)
	}

	out, err := collectContacts(rows)
	if err != nil {
		return nil, mapErr(op, err)
	}

	return out, nil
}

// UpdateContact перезаписывает изменяемые поля контакта.
func (s *Storage) UpdateContact(ctx context.Context, c *models.Contact) error {
	const op = "storage.postgres.UpdateContact"

	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone_number = $6,
		    born_date = $7, description = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
		RETURNING created_at
	`

	err := s.db.QueryRow(ctx, query,
		c.ID,
		c.UserID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.PhoneNumber,
		bornDate(c),
		c.Description,
		c.UpdatedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		return mapErr(op, err)
	}

	return nil
}

// DeleteContact удаляет контакт владельца.
func (s *Storage) DeleteContact(ctx context.Context, userID, id uuid.UUID) error {
	const op = "storage.postgres.DeleteContact"

	tag, err := s.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SearchContacts ищет подстроку без учёта регистра в одном из разрешённых полей.
func (s *Storage) SearchContacts(ctx context.Context, userID uuid.UUID, field storage.SearchField, q string, limit, offset int) ([]models.Contact, error) {
	const op = "storage.postgres.SearchContacts"

	// Имя колонки подставляется только из белого списка.
	if !field.Valid() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1 AND ` + string(field) + ` ILIKE $2 ESCAPE '\'
		ORDER BY last_name, first_name, id
		LIMIT $3 OFFSET $4
	`

	rows, err := s.db.Query(ctx, query, userID, "%"+escapeLike(q)+"%", limit, offset)
	if err != nil {
		return nil, mapErr(op, err)
	}

	out, err := collectContacts(rows)
	if err != nil {
		return nil, mapErr(op, err)
	}

	return out, nil
}

// ContactsByBirthday возвращает контакты с днём рождения из days ("MM-DD").
func (s *Storage) ContactsByBirthday(ctx context.Context, userID uuid.UUID, days []string) ([]models.Contact, error) {
	const op = "storage.postgres.ContactsByBirthday"

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND born_date IS NOT NULL
		  AND to_char(born_date, 'MM-DD') = ANY($2)
	`

	rows, err := s.db.Query(ctx, query, userID, days)
	if err != nil {
		return nil, mapErr(op, err)
	}

	out, err := collectContacts(rows)
	if err != nil {
		return nil, mapErr(op, err)
	}

	return out, nil
}

// escapeLike экранирует спецсимволы шаблона LIKE.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
