package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

const userColumns = `id, username, email, password_hash, avatar, refresh_token, confirmed, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Avatar,
		&u.RefreshToken,
		&u.Confirmed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.RefreshToken,
		user.Confirmed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}

	return nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return user, nil
}

// SetRefreshToken сохраняет (или сбрасывает пустой строкой) дайджест refresh-токена.
func (s *Storage) SetRefreshToken(ctx context.Context, userID uuid.UUID, digest string) error {
	const op = "storage.postgres.SetRefreshToken"

	query := `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, userID, digest)
	if err != nil {
		return mapErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ConfirmEmail отмечает e-mail пользователя подтверждённым.
func (s *Storage) ConfirmEmail(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.ConfirmEmail"

	query := `UPDATE users SET confirmed = TRUE, updated_at = now() WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return mapErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdateAvatar сохраняет ссылку на аватар.
func (s *Storage) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error) {
	const op = "storage.postgres.UpdateAvatar"

	query := `
		UPDATE users SET avatar = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, userID, url))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return user, nil
}
